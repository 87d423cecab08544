package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vellum-labs/kbsync-cli/internal/core/domain"
	"github.com/vellum-labs/kbsync-cli/internal/core/ports/driving"
)

// pollInterval is how often the display refreshes from Status().
const pollInterval = 100 * time.Millisecond

// statusMsg carries a polled run status into the UI loop.
type statusMsg domain.RunStatus

// runDoneMsg carries the finished run's outcome.
type runDoneMsg struct {
	report domain.RunReport
	err    error
}

// progressModel is the bubbletea model behind the live sync display:
// a spinner plus the engine's current phase, refreshed by polling
// Status() while the run executes in the background.
type progressModel struct {
	runner driving.SyncRunner
	opts   driving.RunOptions
	ctx    context.Context
	cancel context.CancelFunc

	spinner spinner.Model
	status  domain.RunStatus
	report  domain.RunReport
	err     error
	done    bool
}

func newProgressModel(ctx context.Context, runner driving.SyncRunner, opts driving.RunOptions) progressModel {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return progressModel{
		runner:  runner,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		spinner: s,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun(), m.pollStatus())
}

// startRun executes the sync in the background and delivers its
// outcome as a message.
func (m progressModel) startRun() tea.Cmd {
	return func() tea.Msg {
		report, err := m.runner.Run(m.ctx, m.opts)
		return runDoneMsg{report: report, err: err}
	}
}

func (m progressModel) pollStatus() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return statusMsg(m.runner.Status())
	})
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// Cancel the run; the runDoneMsg that follows quits the
			// program, so nothing is left writing to the index.
			m.cancel()
		}
		return m, nil

	case statusMsg:
		m.status = domain.RunStatus(msg)
		return m, m.pollStatus()

	case runDoneMsg:
		m.cancel()
		m.report = msg.report
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	line := m.status.Message
	if line == "" {
		line = string(m.status.Phase)
	}
	switch {
	case m.status.Total > 0:
		line = fmt.Sprintf("%s %d/%d", line, m.status.Processed, m.status.Total)
	case m.status.Processed > 0:
		line = fmt.Sprintf("%s %d", line, m.status.Processed)
	}

	return fmt.Sprintf("%s %s\n", m.spinner.View(), line)
}

// runWithProgress executes the run behind a live terminal display and
// returns its outcome once the display has shut down.
func runWithProgress(ctx context.Context, runner driving.SyncRunner, opts driving.RunOptions) (domain.RunReport, error) {
	p := tea.NewProgram(newProgressModel(ctx, runner, opts))

	final, err := p.Run()
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("progress display: %w", err)
	}

	m := final.(progressModel)
	return m.report, m.err
}
