package ui

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/viswiz-io/viswiz-go/internal/state"
)

// Reporter renders upload progress. Progress may be called from any
// goroutine; Start and Finish bracket a single upload run.
type Reporter interface {
	Start(total int)
	Progress(completed, total int)
	Finish(err error)
}

// Options configure a Reporter.
type Options struct {
	Context     context.Context
	Out         io.Writer
	Store       *state.Store
	Interactive bool
	ThemeName   string
}

// New returns the interactive progress bar when opts.Interactive is set and
// plain percentage lines otherwise.
func New(opts Options) Reporter {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Store == nil {
		opts.Store = &state.Store{}
	}
	if opts.Interactive {
		return newBarReporter(opts)
	}
	return newPlainReporter(opts.Out, opts.Store)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Discard is a Reporter that renders nothing.
type Discard struct{}

func (Discard) Start(int)         {}
func (Discard) Progress(int, int) {}
func (Discard) Finish(error)      {}
