// Package tui renders database generation progress and query results in
// the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/pokervals/internal/builder"
)

// ProgressMsg carries a generation progress report.
type ProgressMsg builder.Progress

// SizeDoneMsg reports a finished hand size.
type SizeDoneMsg builder.Result

// QuitMsg stops the program. Err is the generation error, if any.
type QuitMsg struct {
	Err error
}

// ProgressModel shows one progress bar for the hand size being generated
// and a line for every finished size.
type ProgressModel struct {
	bar         progress.Model
	current     builder.Progress
	done        []builder.Result
	cancel      context.CancelFunc
	quitting    bool
	interrupted bool
	err         error
}

// NewProgressModel creates the model. cancel is called when the user
// interrupts generation from the keyboard.
func NewProgressModel(cancel context.CancelFunc) *ProgressModel {
	return &ProgressModel{
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		cancel: cancel,
	}
}

// Init implements tea.Model.
func (m *ProgressModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProgressMsg:
		m.current = builder.Progress(msg)

	case SizeDoneMsg:
		m.done = append(m.done, builder.Result(msg))
		m.current = builder.Progress{}

	case QuitMsg:
		m.quitting = true
		switch {
		case errors.Is(msg.Err, context.Canceled):
			m.interrupted = true
		case msg.Err != nil:
			m.err = msg.Err
		}
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-48, 10), 60)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.interrupted = true
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *ProgressModel) View() string {
	var b strings.Builder
	for _, r := range m.done {
		status := fmt.Sprintf("%d unique of %d", r.Unique, r.Combinations)
		if r.Skipped {
			status = "already complete"
		}
		fmt.Fprintf(&b, "%s %d-card hands %s\n", SuccessStyle.Render("✓"), r.Size, LabelStyle.Render(status))
	}

	if p := m.current; p.Total > 0 {
		fmt.Fprintf(&b, "%s %s %5.1f%%  %s\n",
			ValueStyle.Render(fmt.Sprintf("%d-card", p.Size)),
			m.bar.ViewAs(p.Percent()/100),
			p.Percent(),
			LabelStyle.Render(fmt.Sprintf("%d/%d  %d unique  %s", p.Processed, p.Total, p.Unique, p.Elapsed.Round(time.Second))))
		if len(p.LastHand) > 0 {
			b.WriteString(Field("last hand", FormatCards(p.LastHand)+"  "+p.LastValue.String()))
			b.WriteByte('\n')
		}
	}

	if m.interrupted {
		b.WriteString(WarningStyle.Render("Interrupted, committing progress..."))
		b.WriteByte('\n')
	}
	if m.err != nil {
		b.WriteString(ErrorStyle.Render("✗ " + m.err.Error()))
		b.WriteByte('\n')
	}
	return b.String()
}

// Reporter drives a ProgressModel from builder callbacks.
type Reporter struct {
	program *tea.Program
	model   *ProgressModel
	out     io.Writer

	mu       sync.Mutex
	finished bool
	err      error
	done     chan struct{}
}

// NewReporter creates a reporter drawing to out.
func NewReporter(out io.Writer, cancel context.CancelFunc) *Reporter {
	model := NewProgressModel(cancel)
	return &Reporter{
		program: tea.NewProgram(model, tea.WithOutput(out)),
		model:   model,
		out:     out,
		done:    make(chan struct{}),
	}
}

// Start runs the program in the background.
func (r *Reporter) Start() {
	go func() {
		_, err := r.program.Run()
		r.mu.Lock()
		r.finished = true
		r.err = err
		r.mu.Unlock()
		close(r.done)
	}()
}

// Report is a builder.ProgressFunc.
func (r *Reporter) Report(p builder.Progress) {
	r.program.Send(ProgressMsg(p))
}

// SizeDone records a finished hand size.
func (r *Reporter) SizeDone(res builder.Result) {
	r.program.Send(SizeDoneMsg(res))
}

// Write prints log output above the progress bar, or straight to out once
// the program has stopped.
func (r *Reporter) Write(p []byte) (int, error) {
	r.mu.Lock()
	finished := r.finished
	r.mu.Unlock()
	if finished {
		return r.out.Write(p)
	}
	r.program.Println(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Close stops the program with the final generation error and waits for
// the terminal to be restored.
func (r *Reporter) Close(runErr error) error {
	r.program.Send(QuitMsg{Err: runErr})
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
