// internal/tui/spinner.go
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

// workDoneMsg tells the spinner the background work has finished.
type workDoneMsg struct{}

// spinnerModel shows a spinner and elapsed time while work runs.
type spinnerModel struct {
	spinner     spinner.Model
	label       string
	start       time.Time
	done        bool
	interrupted bool
}

func newSpinnerModel(label string) *spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &spinnerModel{spinner: s, label: label, start: time.Now()}
}

// Init starts the spinner animation.
func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner and quits once the work is done or the user interrupts.
func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner line, or nothing once finished.
func (m *spinnerModel) View() string {
	if m.done || m.interrupted {
		return ""
	}
	elapsed := fmt.Sprintf("%.1f", time.Since(m.start).Seconds())
	return fmt.Sprintf("\n  %s %s... %ss\n", m.spinner.View(), m.label, elapsed)
}

// Interactive reports whether stdout is a terminal that can show a spinner.
func Interactive() bool {
	return !color.NoColor
}

// WithSpinner runs fn while showing a spinner on stderr. Without a terminal
// it simply calls fn. Pressing ctrl+c cancels the context passed to fn.
func WithSpinner[T any](ctx context.Context, label string, fn func(context.Context) (T, error)) (T, error) {
	if !Interactive() {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newSpinnerModel(label)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))

	var (
		result T
		err    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err = fn(ctx)
		p.Send(workDoneMsg{})
	}()

	if _, runErr := p.Run(); runErr != nil {
		cancel()
		<-done
		return result, err
	}
	if m.interrupted {
		cancel()
	}
	<-done
	if m.interrupted && err == nil {
		err = context.Canceled
	}
	return result, err
}
