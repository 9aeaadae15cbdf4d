package core

import (
	"context"
	"fmt"
)

// Mode selects the dispatch policy for a batch.
type Mode int

const (
	// ModeLazy admits the first pending jobs that fit whenever cores free
	// up, so a finishing job's cores are reused immediately.
	ModeLazy Mode = iota
	// ModeEager launches greedy waves and waits for a whole wave to finish
	// before starting the next one.
	ModeEager
)

func (m Mode) String() string {
	switch m {
	case ModeLazy:
		return "lazy"
	case ModeEager:
		return "eager"
	default:
		return "unknown"
	}
}

// ParseMode maps the batch-file spelling onto a Mode. Empty means lazy.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "lazy":
		return ModeLazy, nil
	case "eager", "wave":
		return ModeEager, nil
	default:
		return 0, fmt.Errorf("unknown dispatch mode %q (want lazy or eager)", s)
	}
}

// Options configure RunBatch.
type Options struct {
	TotalCores int // non-positive means the host's core count
	Mode       Mode
	Runner     Runner // nil means a ProcessSupervisor without log capture
}

// RunBatch executes every job against a fixed core budget and returns one
// result per job in input order, whatever order the jobs finished in.
//
// Individual job failures never abort the batch; they are recorded and the
// siblings keep running. The only error return is invalid configuration,
// reported before any process is spawned. Cancelling ctx kills the running
// jobs and records an explicit result for every job that never ran.
func RunBatch(ctx context.Context, jobs []JobDescriptor, opts Options) (*BatchOutcome, error) {
	ledger := NewCoreLedger(opts.TotalCores)
	if err := ValidateJobs(jobs, ledger.Total()); err != nil {
		return nil, err
	}

	runner := opts.Runner
	if runner == nil {
		runner = NewProcessSupervisor(nil)
	}

	b := &batch{
		jobs:   jobs,
		ledger: ledger,
		runner: runner,
		agg:    NewAggregator(len(jobs)),
		done:   make(chan JobResult),
	}
	if opts.Mode == ModeEager {
		b.runEager(ctx)
	} else {
		b.runLazy(ctx)
	}
	return b.agg.Finalize(), nil
}

// batch is the coordinating state for one RunBatch call. Only the
// coordinating goroutine touches the ledger, the pending queue, and the
// aggregator; supervisor goroutines report back on the done channel.
type batch struct {
	jobs    []JobDescriptor
	ledger  *CoreLedger
	runner  Runner
	agg     *Aggregator
	done    chan JobResult
	running int
}

// runLazy keeps one ordered pending queue and re-scans it on every
// completion event: release the finished job's cores, then admit the first
// pending jobs that fit. A skipped job stays eligible and is reconsidered
// on every later release, so earlier jobs are never starved.
func (b *batch) runLazy(ctx context.Context) {
	pending := append([]JobDescriptor(nil), b.jobs...)

	for len(pending) > 0 || b.running > 0 {
		if ctx.Err() != nil && b.running == 0 {
			b.markNotRun(pending)
			return
		}
		if ctx.Err() == nil {
			// With an idle budget this always admits at least the head of
			// the queue (validation caps every job at the total), so the
			// wait below cannot block with nothing running.
			pending = b.dispatch(ctx, pending)
		}
		b.reap()
	}
}

// runEager partitions the queue into greedy prefix waves whose core sum
// fits the budget and joins each wave completely before the next starts.
func (b *batch) runEager(ctx context.Context) {
	pending := append([]JobDescriptor(nil), b.jobs...)

	for len(pending) > 0 {
		if ctx.Err() != nil {
			b.markNotRun(pending)
			return
		}

		n, sum := 0, 0
		for n < len(pending) && sum+pending[n].CoresRequired <= b.ledger.Total() {
			sum += pending[n].CoresRequired
			n++
		}
		for _, job := range pending[:n] {
			if !b.ledger.TryAdmit(job.CoresRequired) {
				panic("scheduler: wave admission failed against an idle budget")
			}
			b.spawn(ctx, job)
		}
		pending = pending[n:]

		for b.running > 0 {
			b.reap()
		}
	}
}

// dispatch scans the pending queue in ascending index order and admits every
// job that fits the currently available cores. Jobs that do not fit are kept,
// in order, for the next scan.
func (b *batch) dispatch(ctx context.Context, pending []JobDescriptor) []JobDescriptor {
	remaining := pending[:0]
	for _, job := range pending {
		if !b.ledger.TryAdmit(job.CoresRequired) {
			remaining = append(remaining, job)
			continue
		}
		b.spawn(ctx, job)
	}
	return remaining
}

// spawn moves a job to Running on its own supervisor goroutine.
func (b *batch) spawn(ctx context.Context, job JobDescriptor) {
	b.running++
	go func() {
		b.done <- b.runner.Run(ctx, job)
	}()
}

// reap blocks for the next termination event, releases the finished job's
// cores, and records its result. Release happens before the caller's next
// dispatch scan, so freed cores are immediately reusable.
func (b *batch) reap() {
	res := <-b.done
	b.ledger.Release(b.jobs[res.Index].CoresRequired)
	b.running--
	b.agg.Record(res)
}

// markNotRun records an explicit cancelled result for every job that was
// still pending, so the outcome always covers the full batch.
func (b *batch) markNotRun(pending []JobDescriptor) {
	for _, job := range pending {
		b.agg.Record(JobResult{
			Index:       job.Index,
			Status:      StatusNotRun,
			ExitCode:    -1,
			ErrorDetail: "batch cancelled before admission",
		})
	}
}
