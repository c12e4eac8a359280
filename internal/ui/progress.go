package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/viswiz-io/viswiz-go/internal/state"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 60
	minBarWidth     = 10
	// Room reserved next to the bar for the "100% (n/n images)" label.
	labelWidth   = 28
	refreshEvery = 500 * time.Millisecond
)

// Model is the Bubble Tea model for the upload progress bar.
type Model struct {
	store  *state.Store
	bar    progress.Model
	styles Styles
	snap   state.Snapshot
	now    func() time.Time
}

// NewModel creates a progress model reading from store.
func NewModel(store *state.Store, theme Theme) Model {
	bar := progress.New(
		progress.WithGradient(theme.BarStart, theme.BarEnd),
		progress.WithWidth(defaultBarWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = theme.BarEmpty

	return Model{
		store:  store,
		bar:    bar,
		styles: theme.Styles(),
		snap:   store.Snapshot(),
		now:    time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd(refreshEvery)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(minBarWidth, min(msg.Width-labelWidth, maxBarWidth))
		return m, nil

	case progressMsg:
		m.snap = m.store.Snapshot()
		return m, nil

	case tickMsg:
		m.snap = m.store.Snapshot()
		return m, tickCmd(refreshEvery)

	case finishMsg:
		m.snap = m.store.Snapshot()
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	snap := m.snap
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Uploading images"))
	b.WriteString("\n")

	b.WriteString(m.bar.ViewAs(snap.Percent()))
	b.WriteString(" ")
	b.WriteString(m.styles.Text.Render(progressLabel(snap)))
	b.WriteString("\n")

	now := m.now()
	timing := "elapsed " + formatDuration(snap.Elapsed(now))
	if remaining := snap.Remaining(now); remaining > 0 {
		timing += "  remaining ~" + formatDuration(remaining)
	}
	b.WriteString(m.styles.MutedText.Render(timing))
	b.WriteString("\n")

	if snap.Done {
		if snap.Err != nil {
			b.WriteString(m.styles.DangerText.Render("Upload failed"))
		} else {
			b.WriteString(m.styles.SuccessText.Render(fmt.Sprintf("Uploaded %d images", snap.Completed)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func progressLabel(snap state.Snapshot) string {
	return fmt.Sprintf("%3d%% (%d/%d images)", int(snap.Percent()*100), snap.Completed, snap.Total)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}

// Messages

type tickMsg time.Time

type progressMsg struct{}

type finishMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// barReporter drives a Bubble Tea program from upload callbacks.
type barReporter struct {
	program *tea.Program
	store   *state.Store

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

func newBarReporter(opts Options) *barReporter {
	model := NewModel(opts.Store, GetTheme(opts.ThemeName))
	programOpts := []tea.ProgramOption{
		tea.WithOutput(opts.Out),
		tea.WithInput(nil),
	}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	return &barReporter{
		program: tea.NewProgram(model, programOpts...),
		store:   opts.Store,
		done:    make(chan struct{}),
	}
}

func (r *barReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Start(total)
	if r.started {
		return
	}
	r.started = true
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
}

func (r *barReporter) Progress(completed, total int) {
	r.store.Advance(completed, total)

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if started {
		r.program.Send(progressMsg{})
	}
}

// Finish records the outcome and waits for the final frame to be drawn.
func (r *barReporter) Finish(err error) {
	r.store.Finish(err)

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return
	}
	r.program.Send(finishMsg{})
	<-r.done
}
