package core

import (
	"fmt"
	"runtime"
	"sync"
)

// CoreLedger tracks the fixed core budget shared by all running jobs.
// It is the sole admission authority: the sum of cores held by running jobs
// never exceeds the total, and available never leaves [0, total].
//
// The scheduler's coordinating goroutine owns the ledger; TryAdmit and
// Release are still atomic so the invariant holds even if a future caller
// touches it from more than one goroutine.
type CoreLedger struct {
	mu        sync.Mutex
	total     int
	available int
}

// NewCoreLedger creates a ledger for the given budget. A non-positive
// budget falls back to the host's core count.
func NewCoreLedger(totalCores int) *CoreLedger {
	if totalCores <= 0 {
		totalCores = runtime.NumCPU()
	}
	return &CoreLedger{total: totalCores, available: totalCores}
}

// TryAdmit reserves cores if they fit the available budget and reports
// whether the reservation happened. State is untouched on a false return.
// A non-positive request is a scheduler bug and panics.
func (l *CoreLedger) TryAdmit(cores int) bool {
	if cores <= 0 {
		panic(fmt.Sprintf("core ledger: admit of %d cores", cores))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if cores > l.available {
		return false
	}
	l.available -= cores
	return true
}

// Release returns cores reserved by an earlier TryAdmit. Releasing more
// than is outstanding is a scheduler bug and panics rather than clamping.
func (l *CoreLedger) Release(cores int) {
	if cores <= 0 {
		panic(fmt.Sprintf("core ledger: release of %d cores", cores))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.available+cores > l.total {
		panic(fmt.Sprintf("core ledger: release of %d cores overflows budget (%d available of %d)",
			cores, l.available, l.total))
	}
	l.available += cores
}

// Total returns the fixed budget.
func (l *CoreLedger) Total() int {
	return l.total
}

// Available returns the cores not currently reserved.
func (l *CoreLedger) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

// InUse returns the cores currently reserved by running jobs.
func (l *CoreLedger) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total - l.available
}
