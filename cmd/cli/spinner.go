package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inkpress/desk/internal/session"
)

type busyMsg bool

type doneMsg struct {
	err error
}

// busyModel shows a spinner while the session has an exchange in flight. It
// quits once the operation has returned and the store is no longer busy.
type busyModel struct {
	label   string
	spinner spinner.Model
	busy    bool
	done    bool
	err     error
}

func newBusyModel(label string, busy bool) busyModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	return busyModel{
		label:   label,
		spinner: s,
		busy:    busy,
	}
}

func (m busyModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m busyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.err = context.Canceled
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case busyMsg:
		m.busy = bool(msg)

	case doneMsg:
		m.done = true
		m.err = msg.err
	}

	if m.done && !m.busy {
		return m, tea.Quit
	}

	return m, nil
}

func (m busyModel) View() string {
	if m.done && !m.busy {
		return ""
	}
	return fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), m.label)
}

// runWithSpinner runs op while a spinner follows the session's busy flag.
// Without a terminal op simply runs.
func runWithSpinner(ctx context.Context, label string, op func(context.Context) error) error {
	if !isInteractive() {
		return op(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(
		newBusyModel(label, application.Session.State().Busy),
		tea.WithContext(ctx),
	)

	// Notifications arrive on the goroutine running op, in order
	unsubscribe := application.Session.Subscribe(func(state session.State) {
		program.Send(busyMsg(state.Busy))
	})
	defer unsubscribe()

	go func() {
		program.Send(doneMsg{err: op(ctx)})
	}()

	final, err := program.Run()
	if err != nil {
		return err
	}

	if model, ok := final.(busyModel); ok {
		return model.err
	}
	return nil
}
