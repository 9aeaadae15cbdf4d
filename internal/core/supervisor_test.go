package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"simbatch/internal/storage"
)

func shJob(t *testing.T, index int, script string) (JobDescriptor, string) {
	t.Helper()
	dir := t.TempDir()
	return JobDescriptor{
		Index:         index,
		CoresRequired: 2,
		Invocation: Invocation{
			Command: "sh",
			Args:    []string{"-c", script},
			Dir:     dir,
		},
	}, dir
}

func TestSupervisorSuccessWithArtifact(t *testing.T) {
	job, dir := shJob(t, 0, "echo 0.95 > sparams.csv")
	job.Invocation.ArtifactPath = filepath.Join(dir, "sparams.csv")

	s := NewProcessSupervisor(nil)
	res := s.Run(context.Background(), job)

	if res.Status != StatusSucceeded {
		t.Fatalf("got %s (%s), want succeeded", res.Status, res.ErrorDetail)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code %d, want 0", res.ExitCode)
	}
	if res.ArtifactPath != job.Invocation.ArtifactPath {
		t.Errorf("artifact path %q not reported", job.Invocation.ArtifactPath)
	}
	if res.Index != 0 {
		t.Errorf("result index %d, want 0", res.Index)
	}
}

func TestSupervisorNonZeroExit(t *testing.T) {
	job, _ := shJob(t, 3, "echo solver blew up >&2; exit 3")

	ws := storage.NewWorkspace(t.TempDir())
	s := NewProcessSupervisor(ws)
	res := s.Run(context.Background(), job)

	if res.Status != StatusFailed {
		t.Fatalf("got %s, want failed", res.Status)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code %d, want 3", res.ExitCode)
	}
	if res.LogPath == "" {
		t.Fatal("diagnostic output was not captured")
	}
	log, err := os.ReadFile(res.LogPath)
	if err != nil {
		t.Fatalf("cannot read captured log: %v", err)
	}
	if !strings.Contains(string(log), "solver blew up") {
		t.Errorf("captured log missing solver stderr: %q", log)
	}
}

func TestSupervisorMissingArtifactFails(t *testing.T) {
	job, dir := shJob(t, 0, "true")
	job.Invocation.ArtifactPath = filepath.Join(dir, "never-written.csv")

	res := NewProcessSupervisor(nil).Run(context.Background(), job)

	if res.Status != StatusFailed {
		t.Fatalf("got %s, want failed for a missing artifact", res.Status)
	}
	if !strings.Contains(res.ErrorDetail, "artifact") {
		t.Errorf("error detail does not mention the artifact: %q", res.ErrorDetail)
	}
}

func TestSupervisorTimeout(t *testing.T) {
	job, _ := shJob(t, 1, "sleep 10")
	job.Timeout = 150 * time.Millisecond

	start := time.Now()
	res := NewProcessSupervisor(nil).Run(context.Background(), job)

	if res.Status != StatusTimedOut {
		t.Fatalf("got %s, want timed_out", res.Status)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("supervisor waited %s for a 150ms timeout", elapsed)
	}
	if res.ExitCode != -1 {
		t.Errorf("killed process reported exit code %d", res.ExitCode)
	}
	if !strings.Contains(res.ErrorDetail, "timeout") {
		t.Errorf("error detail does not mention the timeout: %q", res.ErrorDetail)
	}
}

func TestSupervisorBatchCancel(t *testing.T) {
	job, _ := shJob(t, 2, "sleep 10")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	res := NewProcessSupervisor(nil).Run(ctx, job)

	if res.Status != StatusTimedOut {
		t.Fatalf("got %s, want timed_out for a cancelled job", res.Status)
	}
	if res.ErrorDetail != "batch cancelled" {
		t.Errorf("error detail %q, want batch cancelled", res.ErrorDetail)
	}
}

func TestSupervisorExportsCoreHint(t *testing.T) {
	job, dir := shJob(t, 0, `printf %s "$SIMBATCH_CORES" > cores.txt`)
	job.CoresRequired = 3
	job.Invocation.ArtifactPath = filepath.Join(dir, "cores.txt")

	res := NewProcessSupervisor(nil).Run(context.Background(), job)
	if res.Status != StatusSucceeded {
		t.Fatalf("got %s (%s), want succeeded", res.Status, res.ErrorDetail)
	}

	data, err := os.ReadFile(res.ArtifactPath)
	if err != nil {
		t.Fatalf("cannot read artifact: %v", err)
	}
	if string(data) != "3" {
		t.Errorf("child saw SIMBATCH_CORES=%q, want 3", data)
	}
}

func TestSupervisorBadCommand(t *testing.T) {
	job := JobDescriptor{
		Index:         0,
		CoresRequired: 1,
		Invocation:    Invocation{Command: "/does/not/exist"},
	}

	res := NewProcessSupervisor(nil).Run(context.Background(), job)
	if res.Status != StatusFailed {
		t.Fatalf("got %s, want failed for an unstartable command", res.Status)
	}
	if !strings.Contains(res.ErrorDetail, "start solver") {
		t.Errorf("error detail %q does not explain the start failure", res.ErrorDetail)
	}
}
