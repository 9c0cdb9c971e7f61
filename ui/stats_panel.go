package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/examreview/internal/engine"
)

// RunStats holds the counters shown in the status panel
type RunStats struct {
	Total     int
	Answered  int
	Failed    int
	Mode      engine.Mode
	StartTime time.Time
	EndTime   time.Time
}

// StatusPanel shows mode, progress and timing of the run
type StatusPanel struct {
	stats      RunStats
	bar        progress.Model
	spinner    spinner.Model
	width      int
	height     int
	style      lipgloss.Style
	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
}

func NewStatusPanel(total int) *StatusPanel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return &StatusPanel{
		stats:   RunStats{Total: total},
		bar:     progress.New(progress.WithDefaultGradient()),
		spinner: s,
		style:   borderStyle.BorderForeground(lipgloss.Color("99")),
		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true),
		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
	}
}

func (s *StatusPanel) Init() tea.Cmd {
	return s.spinner.Tick
}

func (s *StatusPanel) Update(msg tea.Msg) (Component, tea.Cmd) {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

func (s *StatusPanel) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.bar.Width = max(10, width-8)
}

// SetMode records a mode change; the clock starts with the first Running
func (s *StatusPanel) SetMode(m engine.Mode) {
	s.stats.Mode = m
	if m == engine.Running && s.stats.StartTime.IsZero() {
		s.stats.StartTime = time.Now()
	}
}

// Answered counts one recorded answer
func (s *StatusPanel) Answered(failed bool) {
	s.stats.Answered++
	if failed {
		s.stats.Failed++
	}
}

// Finish stops the clock
func (s *StatusPanel) Finish() {
	s.stats.EndTime = time.Now()
}

// Stats returns the current counters
func (s *StatusPanel) Stats() RunStats {
	return s.stats
}

func (s *StatusPanel) View() string {
	ratio := 0.0
	if s.stats.Total > 0 {
		ratio = float64(s.stats.Answered) / float64(s.stats.Total)
	}

	mode := s.stats.Mode.String()
	switch s.stats.Mode {
	case engine.Running:
		mode = s.spinner.View() + " " + mode
	case engine.Paused:
		mode = warningStyle.Render(mode)
	case engine.Aborted:
		mode = errorStyle.Render(mode)
	}

	rows := []struct {
		label string
		value string
	}{
		{"Mode", mode},
		{"Answered", fmt.Sprintf("%d/%d", s.stats.Answered, s.stats.Total)},
		{"Failed", fmt.Sprintf("%d", s.stats.Failed)},
		{"Elapsed", s.formatElapsedTime()},
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("Automation") + "\n\n")
	for _, r := range rows {
		content.WriteString(fmt.Sprintf("%s %s\n", s.labelStyle.Render(fmt.Sprintf("%-10s", r.label+":")), s.valueStyle.Render(r.value)))
	}
	content.WriteString("\n" + s.bar.ViewAs(ratio))

	return s.style.Width(s.width).Height(s.height).Render(content.String())
}

func (s *StatusPanel) formatElapsedTime() string {
	if s.stats.StartTime.IsZero() {
		return "00:00:00"
	}
	end := s.stats.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	elapsed := end.Sub(s.stats.StartTime)
	return fmt.Sprintf("%02d:%02d:%02d",
		int(elapsed.Hours()),
		int(elapsed.Minutes())%60,
		int(elapsed.Seconds())%60,
	)
}
