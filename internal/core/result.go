package core

import (
	"fmt"
	"time"
)

// JobResult is the single record produced for one job. Exactly one is
// written per descriptor, no matter how the job ended.
type JobResult struct {
	Index        int
	Status       JobStatus
	ExitCode     int    // -1 when the process never exited on its own
	ArtifactPath string // set only on success
	LogPath      string // captured solver output, if a workspace was configured
	ErrorDetail  string // set on failure, timeout, or cancellation
	Duration     time.Duration
}

// BatchOutcome is the final aggregate for a batch: one result per input
// job, ordered by input index, plus the failure count.
type BatchOutcome struct {
	Results  []JobResult
	Failures int
}

// Aggregator collects per-job results keyed by input index and hands the
// batch outcome over only once every job has terminated. Recording an index
// twice or finalizing early indicates a scheduler bug and panics.
type Aggregator struct {
	results  []JobResult
	recorded []bool
	pending  int
}

// NewAggregator creates an aggregator expecting exactly n results.
func NewAggregator(n int) *Aggregator {
	return &Aggregator{
		results:  make([]JobResult, n),
		recorded: make([]bool, n),
		pending:  n,
	}
}

// Record stores the result for its index. Write-once per index.
func (a *Aggregator) Record(res JobResult) {
	if res.Index < 0 || res.Index >= len(a.results) {
		panic(fmt.Sprintf("aggregator: result index %d outside batch of %d", res.Index, len(a.results)))
	}
	if a.recorded[res.Index] {
		panic(fmt.Sprintf("aggregator: duplicate result for job %d", res.Index))
	}
	a.results[res.Index] = res
	a.recorded[res.Index] = true
	a.pending--
}

// Finalize returns the outcome in input order. Results arrive keyed by
// index, so completion order never matters.
func (a *Aggregator) Finalize() *BatchOutcome {
	if a.pending != 0 {
		panic(fmt.Sprintf("aggregator: finalize with %d jobs unrecorded", a.pending))
	}
	out := &BatchOutcome{Results: a.results}
	for _, res := range a.results {
		if res.Status != StatusSucceeded {
			out.Failures++
		}
	}
	return out
}
