package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LogLevel represents the severity of a console entry
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelWarning
	LevelError
)

// LogEntry is a single console message
type LogEntry struct {
	timestamp time.Time
	level     LogLevel
	message   string
}

var (
	errorLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// ConsolePanel shows run events, filterable by level with keys 1-3
type ConsolePanel struct {
	viewport  viewport.Model
	entries   []LogEntry
	width     int
	height    int
	style     lipgloss.Style
	showLevel LogLevel
}

func NewConsolePanel() *ConsolePanel {
	return &ConsolePanel{
		viewport:  viewport.New(0, 0),
		style:     borderStyle.BorderForeground(lipgloss.Color("196")),
		showLevel: LevelInfo,
	}
}

func (c *ConsolePanel) Init() tea.Cmd {
	return nil
}

func (c *ConsolePanel) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.viewport.Width = max(0, width-4)
	c.viewport.Height = max(0, height-4)
}

// Add appends an entry
func (c *ConsolePanel) Add(level LogLevel, msg string) {
	c.entries = append(c.entries, LogEntry{timestamp: time.Now(), level: level, message: msg})
	c.refresh()
}

// Entries returns the messages at or above level
func (c *ConsolePanel) Entries(level LogLevel) []string {
	var out []string
	for _, e := range c.entries {
		if e.level >= level {
			out = append(out, e.message)
		}
	}
	return out
}

func (c *ConsolePanel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "1":
			c.showLevel = LevelInfo
			c.refresh()
		case "2":
			c.showLevel = LevelWarning
			c.refresh()
		case "3":
			c.showLevel = LevelError
			c.refresh()
		}
		return c, nil
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return c, cmd
}

func (c *ConsolePanel) View() string {
	filter := fmt.Sprintf("Filter: %s (1:Info 2:Warn 3:Error)", levelString(c.showLevel))
	return c.style.Width(c.width).Render(c.viewport.View() + "\n" + infoStyle.Render(filter))
}

func (c *ConsolePanel) refresh() {
	var sb strings.Builder
	for _, e := range c.entries {
		if e.level < c.showLevel {
			continue
		}

		style := infoStyle
		switch e.level {
		case LevelError:
			style = errorLogStyle
		case LevelWarning:
			style = warningStyle
		}

		sb.WriteString(fmt.Sprintf("%s [%s] %s\n",
			timestampStyle.Render(e.timestamp.Format("15:04:05")),
			style.Render(levelString(e.level)),
			e.message,
		))
	}

	c.viewport.SetContent(sb.String())
	c.viewport.GotoBottom()
}

func levelString(level LogLevel) string {
	switch level {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	default:
		return "INFO"
	}
}
