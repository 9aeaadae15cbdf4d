package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJobDirIsPerJob(t *testing.T) {
	ws := NewWorkspace(filepath.Join(t.TempDir(), "batch"))

	d0, err := ws.JobDir(0)
	if err != nil {
		t.Fatalf("JobDir(0): %v", err)
	}
	d1, err := ws.JobDir(1)
	if err != nil {
		t.Fatalf("JobDir(1): %v", err)
	}
	if d0 == d1 {
		t.Fatal("jobs must not share a working directory")
	}

	info, err := os.Stat(d0)
	if err != nil || !info.IsDir() {
		t.Fatalf("job dir was not created: %v", err)
	}

	// Creating the same dir twice is fine.
	if _, err := ws.JobDir(0); err != nil {
		t.Fatalf("JobDir(0) again: %v", err)
	}
}

func TestSaveSolverLog(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	path, err := ws.SaveSolverLog(4, []byte("meep: convergence reached\n"))
	if err != nil {
		t.Fatalf("SaveSolverLog: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read saved log: %v", err)
	}
	if string(data) != "meep: convergence reached\n" {
		t.Errorf("log content mismatch: %q", data)
	}
}
