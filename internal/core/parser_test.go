package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleBatch = `
name: mzi-sweep
cores: 8
mode: eager
jobs:
  - command: meep-runner
    args: ["--config", "mzi_0.json"]
    dir: /tmp/mzi_0
    artifact: /tmp/mzi_0/sparams.csv
    cores: 4
    timeout: 30s
  - command: meep-runner
    args: ["--config", "mzi_1.json"]
    dir: /tmp/mzi_1
`

func TestParseBatch(t *testing.T) {
	bf, err := ParseBatch([]byte(sampleBatch))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if bf.Name != "mzi-sweep" || bf.Cores != 8 || bf.Mode != "eager" {
		t.Errorf("header mismatch: %+v", bf)
	}

	jobs, err := bf.Descriptors()
	if err != nil {
		t.Fatalf("descriptor conversion failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	if jobs[0].Index != 0 || jobs[1].Index != 1 {
		t.Error("indices must follow file order")
	}
	if jobs[0].CoresRequired != 4 {
		t.Errorf("job 0 cores: got %d, want 4", jobs[0].CoresRequired)
	}
	if jobs[0].Timeout != 30*time.Second {
		t.Errorf("job 0 timeout: got %s, want 30s", jobs[0].Timeout)
	}
	if jobs[0].Invocation.ArtifactPath != "/tmp/mzi_0/sparams.csv" {
		t.Errorf("job 0 artifact: got %q", jobs[0].Invocation.ArtifactPath)
	}

	// Unset fields fall back to defaults.
	if jobs[1].CoresRequired != 1 {
		t.Errorf("job 1 cores should default to 1, got %d", jobs[1].CoresRequired)
	}
	if jobs[1].Timeout != 0 {
		t.Errorf("job 1 timeout should default to none, got %s", jobs[1].Timeout)
	}
}

func TestParseBatchBadTimeout(t *testing.T) {
	bf, err := ParseBatch([]byte("jobs:\n  - command: solver\n    timeout: soonish\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := bf.Descriptors(); err == nil {
		t.Error("unparseable timeout must be rejected")
	}
}

func TestParseBatchInvalidYAML(t *testing.T) {
	if _, err := ParseBatch([]byte("jobs: [broken")); err == nil {
		t.Error("broken YAML must be rejected")
	}
}

func TestLoadBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(sampleBatch), 0o644); err != nil {
		t.Fatalf("write batch file: %v", err)
	}

	bf, err := LoadBatch(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(bf.Jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(bf.Jobs))
	}

	if _, err := LoadBatch(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file must be reported")
	}
}
