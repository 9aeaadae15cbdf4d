package core

import (
	"fmt"
	"time"
)

// JobStatus is the terminal outcome of one job.
type JobStatus int

const (
	StatusSucceeded JobStatus = iota // solver exited zero and produced its artifact
	StatusFailed                     // solver exited non-zero, crashed, or left no artifact
	StatusTimedOut                   // killed by its own timeout or a batch cancel
	StatusNotRun                     // batch was cancelled before the job was admitted
)

func (s JobStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	case StatusNotRun:
		return "not_run"
	default:
		return "unknown"
	}
}

// Invocation describes how to start one external solver instance.
// The scheduler never interprets the command or the artifact contents;
// it only starts the process and checks the artifact exists on success.
type Invocation struct {
	Command      string // solver executable or wrapper script
	Args         []string
	Dir          string // working directory; each job gets its own so outputs never collide
	ArtifactPath string // expected output file on success (optional)
}

// JobDescriptor is one immutable request to run a solver instance.
// Descriptors are created by the caller before scheduling begins and are
// read-only afterwards.
type JobDescriptor struct {
	Index         int // position in the original input, fixes output order
	CoresRequired int // cores one solver instance consumes
	Invocation    Invocation
	Timeout       time.Duration // zero means no per-job timeout
}

// ValidateJobs checks every descriptor against the core budget before any
// process is spawned. A single invalid descriptor aborts the whole batch.
func ValidateJobs(jobs []JobDescriptor, totalCores int) error {
	for i, job := range jobs {
		if job.Index != i {
			return fmt.Errorf("job %d: descriptor index %d out of sequence", i, job.Index)
		}
		if job.CoresRequired <= 0 {
			return fmt.Errorf("job %d: cores must be positive, got %d", i, job.CoresRequired)
		}
		if job.CoresRequired > totalCores {
			return fmt.Errorf("job %d: requires %d cores but the budget is %d", i, job.CoresRequired, totalCores)
		}
		if job.Invocation.Command == "" {
			return fmt.Errorf("job %d: empty solver command", i)
		}
	}
	return nil
}
