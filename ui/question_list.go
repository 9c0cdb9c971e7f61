package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/examreview/internal/model"
)

const (
	statusPending  = "pending"
	statusAnswered = "answered"
	statusFailed   = "failed"
)

// QuestionItem is one question in the list
type QuestionItem struct {
	number int
	title  string
	kind   string
	status string
	answer string
}

// FilterValue implements list.Item interface
func (i QuestionItem) FilterValue() string { return i.title }

func (i QuestionItem) Title() string {
	return fmt.Sprintf("%d. %s", i.number, i.title)
}

func (i QuestionItem) Description() string {
	if i.status == statusPending {
		return fmt.Sprintf("%s | %s", i.kind, i.status)
	}
	return fmt.Sprintf("%s | %s: %s", i.kind, i.status, i.answer)
}

// QuestionPanel lists the questions of the run and their status
type QuestionPanel struct {
	list     list.Model
	style    lipgloss.Style
	index    map[int]int
	answered int
	width    int
	height   int
}

func NewQuestionPanel(questions []model.Question) *QuestionPanel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(lipgloss.Color("170"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(lipgloss.Color("244"))

	items := make([]list.Item, 0, len(questions))
	index := make(map[int]int, len(questions))
	for i, q := range questions {
		index[q.Number] = i
		items = append(items, QuestionItem{number: q.Number, title: q.Title, kind: q.Type, status: statusPending})
	}

	l := list.New(items, delegate, 0, 0)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = l.Styles.Title.Foreground(lipgloss.Color("240"))

	q := &QuestionPanel{
		list:  l,
		style: borderStyle.BorderForeground(lipgloss.Color("99")),
		index: index,
	}
	q.updateTitle()
	return q
}

func (q *QuestionPanel) Init() tea.Cmd {
	return nil
}

func (q *QuestionPanel) Update(msg tea.Msg) (Component, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "k":
			q.list.CursorUp()
		case "down", "j":
			q.list.CursorDown()
		}
		return q, nil
	}

	var cmd tea.Cmd
	q.list, cmd = q.list.Update(msg)
	return q, cmd
}

func (q *QuestionPanel) View() string {
	return q.style.Width(q.width).Height(q.height).Render(q.list.View())
}

func (q *QuestionPanel) SetSize(width, height int) {
	q.width = width
	q.height = height
	q.list.SetSize(max(0, width-4), max(0, height-2))
}

// MarkAnswered updates the item for number. It reports whether the question
// was pending before.
func (q *QuestionPanel) MarkAnswered(number int, answer string) bool {
	i, ok := q.index[number]
	if !ok {
		return false
	}
	item := q.list.Items()[i].(QuestionItem)
	wasPending := item.status == statusPending

	item.status = statusAnswered
	if answer == model.SentinelFailed {
		item.status = statusFailed
	}
	item.answer = answer
	q.list.SetItem(i, item)

	if wasPending {
		q.answered++
		q.updateTitle()
	}
	return wasPending
}

// Pending returns the number of unanswered questions
func (q *QuestionPanel) Pending() int {
	return len(q.index) - q.answered
}

func (q *QuestionPanel) updateTitle() {
	q.list.Title = fmt.Sprintf("Questions (%d pending)", q.Pending())
}
