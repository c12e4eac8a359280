package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/viswiz-io/viswiz-go/internal/state"
)

// plainReporter prints "NN% (c/t images)" whenever the whole percentage
// changes, which keeps CI logs short for large builds.
type plainReporter struct {
	mu          sync.Mutex
	out         io.Writer
	store       *state.Store
	lastPercent int
}

func newPlainReporter(out io.Writer, store *state.Store) *plainReporter {
	return &plainReporter{out: out, store: store, lastPercent: -1}
}

func (r *plainReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Start(total)
	r.lastPercent = -1
}

func (r *plainReporter) Progress(completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Advance(completed, total)
	snap := r.store.Snapshot()
	percent := int(snap.Percent() * 100)
	if percent == r.lastPercent {
		return
	}
	r.lastPercent = percent
	fmt.Fprintf(r.out, "%d%% (%d/%d images)\n", percent, snap.Completed, snap.Total)
}

func (r *plainReporter) Finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Finish(err)
}
