// Package tui renders a live scan progress view. It only ever shows
// aggregate counters read from the scheduler's stats; result rows are never
// streamed to the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aman-ray/tradescout/internal/engine/scraper"
	"github.com/aman-ray/tradescout/internal/tui/styles"
)

type tickMsg time.Time

// ScanDoneMsg signals that the scan goroutine has finished.
type ScanDoneMsg struct {
	Err error
}

// ProgressModel displays scan progress for a run executing in a separate
// goroutine. Stats lives behind a pointer so it survives bubbletea's value
// copies.
type ProgressModel struct {
	title     string
	stats     *scraper.Stats
	cancel    context.CancelFunc
	doneCh    <-chan error
	progress  progress.Model
	spinner   spinner.Model
	startTime time.Time
	done      bool
	err       error
}

// NewProgress builds the view. doneCh yields the run error (or nil) exactly
// once; cancel stops the scan on ctrl+c.
func NewProgress(title string, stats *scraper.Stats, doneCh <-chan error, cancel context.CancelFunc) ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return ProgressModel{
		title:     title,
		stats:     stats,
		cancel:    cancel,
		doneCh:    doneCh,
		progress:  p,
		spinner:   s,
		startTime: time.Now(),
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd(), m.waitDone())
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ProgressModel) waitDone() tea.Cmd {
	ch := m.doneCh
	return func() tea.Msg {
		return ScanDoneMsg{Err: <-ch}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil // quit arrives via ScanDoneMsg once the run drains
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case ScanDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	pModel, cmd := m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Box.Render(m.renderStats()))
	b.WriteString("\n\n")

	var pct float64
	if m.stats.JobsTotal > 0 {
		done := m.stats.JobsDone.Load() + m.stats.JobsFailed.Load()
		pct = float64(done) / float64(m.stats.JobsTotal)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	if m.done {
		if m.err != nil && m.err != context.Canceled {
			b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(styles.SuccessText.Render(
				fmt.Sprintf("Complete! %d businesses accepted", m.stats.Accepted.Load())))
		}
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(styles.StatusBar.Render(" scanning • esc cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m ProgressModel) renderStats() string {
	var sb strings.Builder
	elapsed := time.Since(m.startTime).Truncate(time.Second)

	row := func(label, value string) {
		sb.WriteString(styles.Label.Render(label))
		sb.WriteString(styles.Value.Render(value))
		sb.WriteString("\n")
	}

	jobsDone := m.stats.JobsDone.Load() + m.stats.JobsFailed.Load()
	row("Jobs:", fmt.Sprintf("%d/%d", jobsDone, m.stats.JobsTotal))
	row("Listings:", fmt.Sprintf("%d", m.stats.ListingsFound.Load()))
	row("Accepted:", fmt.Sprintf("%d", m.stats.Accepted.Load()))
	row("Duplicates:", fmt.Sprintf("%d", m.stats.RejectedDupes.Load()))

	failed := m.stats.JobsFailed.Load()
	failStyle := styles.Value
	if failed > 0 {
		failStyle = styles.ErrorText
	}
	sb.WriteString(styles.Label.Render("Failed:"))
	sb.WriteString(failStyle.Render(fmt.Sprintf("%d", failed)))
	sb.WriteString("\n")

	if rl := m.stats.RateLimits.Load(); rl > 0 {
		sb.WriteString(styles.Label.Render("Rate Lim:"))
		sb.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).Bold(true).
			Render(fmt.Sprintf("%d", rl)))
		sb.WriteString("\n")
	}

	row("Elapsed:", elapsed.String())

	// ETA from observed job rate
	if jobsDone > 0 && m.stats.JobsTotal > 0 && !m.done && elapsed > 0 {
		rate := float64(jobsDone) / elapsed.Seconds()
		remaining := float64(int64(m.stats.JobsTotal)-jobsDone) / rate
		eta := time.Duration(remaining * float64(time.Second)).Truncate(time.Second)
		row("ETA:", "~"+eta.String())
	}

	return sb.String()
}
