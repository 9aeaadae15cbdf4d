package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"simbatch/internal/storage"
)

// Runner executes one admitted job and reports its outcome. The scheduler
// core only sees this interface, so tests substitute an instant double for
// the real process supervisor.
type Runner interface {
	Run(ctx context.Context, job JobDescriptor) JobResult
}

// ProcessSupervisor launches one external solver process per job, waits for
// it to exit or time out, and always produces exactly one JobResult. Each
// admitted job gets its own supervisor goroutine, so a hung solver never
// blocks progress on its siblings.
type ProcessSupervisor struct {
	// Workspace receives captured solver output; nil discards it.
	Workspace *storage.Workspace
}

// NewProcessSupervisor creates a supervisor writing solver logs into ws.
func NewProcessSupervisor(ws *storage.Workspace) *ProcessSupervisor {
	return &ProcessSupervisor{Workspace: ws}
}

// Run starts the job's invocation and supervises it to termination.
//
// There is no portable way to hard-pin an opaque child to a core set, so the
// reserved count is exported to the child instead; the ledger accounts for
// the reservation either way.
func (s *ProcessSupervisor) Run(ctx context.Context, job JobDescriptor) JobResult {
	start := time.Now()

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	cmd := exec.Command(job.Invocation.Command, job.Invocation.Args...)
	cmd.Dir = job.Invocation.Dir
	cmd.Env = append(os.Environ(),
		"SIMBATCH_CORES="+strconv.Itoa(job.CoresRequired),
		"OMP_NUM_THREADS="+strconv.Itoa(job.CoresRequired),
	)
	// Own process group, so killing the job takes mpi-style children with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return JobResult{
			Index:       job.Index,
			Status:      StatusFailed,
			ExitCode:    -1,
			ErrorDetail: fmt.Sprintf("start solver: %v", err),
			Duration:    time.Since(start),
		}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	killed := false
	select {
	case <-runCtx.Done():
		syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
		killed = true
	case waitErr = <-done:
	}

	res := JobResult{
		Index:    job.Index,
		Duration: time.Since(start),
		LogPath:  s.saveLog(job.Index, output.Bytes()),
	}

	if killed {
		res.Status = StatusTimedOut
		res.ExitCode = -1
		if ctx.Err() != nil {
			res.ErrorDetail = "batch cancelled"
		} else {
			res.ErrorDetail = fmt.Sprintf("killed after timeout %s", job.Timeout)
		}
		return res
	}

	if waitErr != nil {
		res.Status = StatusFailed
		res.ExitCode = exitCode(waitErr)
		res.ErrorDetail = waitErr.Error()
		return res
	}

	// Zero exit: the declared artifact must actually exist.
	if p := job.Invocation.ArtifactPath; p != "" {
		if _, err := os.Stat(p); err != nil {
			res.Status = StatusFailed
			res.ErrorDetail = fmt.Sprintf("solver exited 0 but artifact is missing: %v", err)
			return res
		}
		res.ArtifactPath = p
	}
	res.Status = StatusSucceeded
	return res
}

func (s *ProcessSupervisor) saveLog(index int, output []byte) string {
	if s.Workspace == nil || len(output) == 0 {
		return ""
	}
	path, err := s.Workspace.SaveSolverLog(index, output)
	if err != nil {
		// Losing a log never fails the job itself.
		fmt.Printf("WARN: cannot save solver log for job %d: %v\n", index, err)
		return ""
	}
	return path
}

// exitCode extracts the process exit code from cmd.Wait's error.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
