package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/procwise/internal/service"
)

const pollInterval = 250 * time.Millisecond

// tickMsg triggers polling the job status.
type tickMsg time.Time

// progressModel is the bubbletea model for a research job. Research has no
// measurable progress, so the bar tracks elapsed time against the timeout.
type progressModel struct {
	job      *service.Job
	status   service.JobStatus
	started  time.Time
	timeout  time.Duration
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
}

func newProgressModel(job *service.Job, timeout time.Duration) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return progressModel{
		job:      job,
		status:   job.Snapshot().Status,
		started:  time.Now(),
		timeout:  timeout,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.status = m.job.Snapshot().Status
		switch m.status {
		case service.JobStatusCompleted, service.JobStatusFailed:
			m.done = true
			return m, tea.Quit
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return ""
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.status))
	bar := m.progress.ViewAs(m.fraction(time.Now()))
	elapsed := time.Since(m.started).Round(time.Second)
	hint := m.theme.hintStyle().Render("Press q to hide progress")
	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, elapsed, hint)
}

// fraction is the share of the timeout used so far, held below 1 until the
// job finishes.
func (m progressModel) fraction(now time.Time) float64 {
	if m.timeout <= 0 {
		return 0
	}
	f := float64(now.Sub(m.started)) / float64(m.timeout)
	return min(max(f, 0), 0.95)
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runJobProgress shows the interactive progress UI until the job finishes
// or the user hides it. Hiding does not cancel the job.
func runJobProgress(job *service.Job, timeout time.Duration) error {
	p := tea.NewProgram(newProgressModel(job, timeout))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	return nil
}
