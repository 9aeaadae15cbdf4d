package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace manages per-job working directories and captured solver logs
// under one batch root. Each job gets its own directory so concurrently
// running solvers never collide on output files.
type Workspace struct {
	BaseDir string
}

// NewWorkspace creates a workspace handle rooted at baseDir.
func NewWorkspace(baseDir string) *Workspace {
	return &Workspace{BaseDir: baseDir}
}

// JobDir returns the working directory for a job, creating it if needed.
func (w *Workspace) JobDir(index int) (string, error) {
	dir := filepath.Join(w.BaseDir, fmt.Sprintf("job_%03d", index))
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveSolverLog writes the captured stdout/stderr of a job's solver process
// and returns the log path.
func (w *Workspace) SaveSolverLog(index int, output []byte) (string, error) {
	dir, err := w.JobDir(index)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "solver.log")
	if err := os.WriteFile(path, output, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
