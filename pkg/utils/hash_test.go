package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashFileMatchesHashString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparams.csv")
	content := "wavelength,s21\n1.55,0.93\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if fromFile != HashString(content) {
		t.Error("file hash and string hash disagree for identical content")
	}
	if HashString(content) != HashBytes([]byte(content)) {
		t.Error("string hash and byte hash disagree")
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing file must be reported")
	}
}
