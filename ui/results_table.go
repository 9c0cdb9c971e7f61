package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/examreview/internal/model"
)

// AnswerRow is one answered question compared with the page's answer
type AnswerRow struct {
	Number  int
	Title   string
	Correct string
	AI      string
}

// Match reports whether the AI answer equals the correct answer
func (r AnswerRow) Match() bool {
	return r.AI == r.Correct
}

// AnswersPanel shows the answers in the order they were recorded
type AnswersPanel struct {
	viewport    viewport.Model
	questions   map[int]model.Question
	rows        []AnswerRow
	width       int
	height      int
	headerStyle lipgloss.Style
	style       lipgloss.Style
}

func NewAnswersPanel(questions []model.Question) *AnswersPanel {
	byNumber := make(map[int]model.Question, len(questions))
	for _, q := range questions {
		byNumber[q.Number] = q
	}

	return &AnswersPanel{
		viewport:  viewport.New(0, 0),
		questions: byNumber,
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		style: borderStyle.BorderForeground(lipgloss.Color("35")),
	}
}

func (t *AnswersPanel) Init() tea.Cmd {
	return nil
}

func (t *AnswersPanel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.viewport.Width = max(0, width-4)
	t.viewport.Height = max(0, height-4)
}

func (t *AnswersPanel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "pgup":
			t.viewport.HalfViewUp()
		case "pgdown":
			t.viewport.HalfViewDown()
		}
		return t, nil
	}

	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// Add appends the answer for number
func (t *AnswersPanel) Add(number int, answer string) {
	q := t.questions[number]
	t.rows = append(t.rows, AnswerRow{Number: number, Title: q.Title, Correct: q.Answer, AI: answer})
	t.refresh()
}

// Rows returns the recorded rows
func (t *AnswersPanel) Rows() []AnswerRow {
	return t.rows
}

func (t *AnswersPanel) refresh() {
	atBottom := t.viewport.AtBottom()
	titleWidth := max(10, t.width-40)

	lines := make([]string, 0, len(t.rows)+1)
	lines = append(lines, t.headerStyle.Render(fmt.Sprintf("%4s  %-*s  %-12s %-12s", "#", titleWidth, "Question", "Correct", "AI")))
	for _, r := range t.rows {
		line := fmt.Sprintf("%4d  %-*s  %-12s %-12s",
			r.Number,
			titleWidth, truncate(r.Title, titleWidth),
			truncate(r.Correct, 12),
			truncate(r.AI, 12),
		)
		switch {
		case r.AI == model.SentinelFailed:
			line = errorStyle.Render(line)
		case r.Match():
			line = okStyle.Render(line)
		default:
			line = warningStyle.Render(line)
		}
		lines = append(lines, line)
	}

	t.viewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		t.viewport.GotoBottom()
	}
}

func (t *AnswersPanel) matches() int {
	count := 0
	for _, r := range t.rows {
		if r.Match() {
			count++
		}
	}
	return count
}

func (t *AnswersPanel) View() string {
	if len(t.rows) == 0 {
		return t.style.Width(t.width).Render(infoStyle.Render("No answers yet"))
	}

	stats := fmt.Sprintf("Answered: %d | Matching: %d", len(t.rows), t.matches())
	return t.style.Width(t.width).Render(
		t.viewport.View() + "\n" + infoStyle.Render(stats),
	)
}
