// Package ui is the terminal automation panel: it follows the engine's
// answers and mode changes and exposes pause, resume and exit keys.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/examreview/internal/engine"
	"github.com/go-scripts/examreview/internal/model"
)

// Component is one panel of the layout
type Component interface {
	Init() tea.Cmd
	Update(tea.Msg) (Component, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// Controller is the subset of the engine driven by the keys
type Controller interface {
	Pause() bool
	Resume() bool
	Exit()
}

// AnsweredMsg reports a recorded answer
type AnsweredMsg struct {
	Number int
	Answer string
}

// ModeMsg reports an engine mode change
type ModeMsg struct {
	Mode engine.Mode
}

// DoneMsg reports that the run returned
type DoneMsg struct {
	Records []model.AnswerRecord
	Err     error
}

type tickMsg time.Time

var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			PaddingLeft(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("86"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Observer forwards engine answers to the program
func Observer(p *tea.Program) engine.Observer {
	return engine.ObserverFunc(func(number int, answer string) {
		p.Send(AnsweredMsg{Number: number, Answer: answer})
	})
}

// ModeHook forwards engine mode changes to the program
func ModeHook(p *tea.Program) func(engine.Mode) {
	return func(m engine.Mode) {
		p.Send(ModeMsg{Mode: m})
	}
}

// Panel is the root model
type Panel struct {
	status    *StatusPanel
	questions *QuestionPanel
	answers   *AnswersPanel
	console   *ConsolePanel

	ctrl    Controller
	mode    engine.Mode
	done    bool
	exiting bool
	err     error
	width   int
	height  int
}

// NewPanel builds the panel for a run over questions. Answers already known
// from an earlier run are shown as answered.
func NewPanel(questions []model.Question, known []model.AnswerRecord) *Panel {
	p := &Panel{
		status:    NewStatusPanel(len(questions)),
		questions: NewQuestionPanel(questions),
		answers:   NewAnswersPanel(questions),
		console:   NewConsolePanel(),
	}
	for _, r := range known {
		p.record(r.QuestionNumber, r.AnswerText)
	}
	return p
}

// SetController attaches the engine. It must be called before the program runs.
func (p *Panel) SetController(c Controller) {
	p.ctrl = c
}

// Err returns the error the run finished with
func (p *Panel) Err() error {
	return p.err
}

func (p *Panel) Init() tea.Cmd {
	return tea.Batch(
		p.status.Init(),
		p.questions.Init(),
		p.answers.Init(),
		p.console.Init(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// control runs an engine call off the event loop; the engine's hooks send
// messages back into the program
func (p *Panel) control(f func(Controller)) tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	ctrl := p.ctrl
	return func() tea.Msg {
		f(ctrl)
		return nil
	}
}

func (p *Panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.SetSize(msg.Width, msg.Height)

	case tickMsg:
		if !p.done {
			cmds = append(cmds, tick())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "p", " ":
			if p.mode == engine.Running {
				p.console.Add(LevelInfo, "Pausing after the current question")
				cmds = append(cmds, p.control(func(c Controller) { c.Pause() }))
			}
		case "r":
			if p.mode == engine.Paused {
				cmds = append(cmds, p.control(func(c Controller) { c.Resume() }))
			}
		case "q", "ctrl+c", "esc":
			if p.done {
				return p, tea.Quit
			}
			if !p.exiting {
				p.exiting = true
				p.console.Add(LevelWarning, "Exiting automation")
				return p, tea.Sequence(p.control(func(c Controller) { c.Exit() }), tea.Quit)
			}
		}

	case ModeMsg:
		p.mode = msg.Mode
		p.status.SetMode(msg.Mode)
		p.console.Add(LevelInfo, fmt.Sprintf("Automation %s", msg.Mode))

	case AnsweredMsg:
		p.record(msg.Number, msg.Answer)
		if msg.Answer == model.SentinelFailed {
			p.console.Add(LevelError, fmt.Sprintf("Question %d: AI request failed", msg.Number))
		} else {
			p.console.Add(LevelInfo, fmt.Sprintf("Question %d answered: %s", msg.Number, msg.Answer))
		}

	case DoneMsg:
		p.done = true
		p.err = msg.Err
		p.status.Finish()
		if msg.Err != nil {
			p.console.Add(LevelError, msg.Err.Error())
		} else {
			p.console.Add(LevelInfo, fmt.Sprintf("Run finished with %d answers. Press q to close.", len(msg.Records)))
		}
	}

	var cmd tea.Cmd
	var c Component

	c, cmd = p.status.Update(msg)
	p.status = c.(*StatusPanel)
	cmds = append(cmds, cmd)

	c, cmd = p.questions.Update(msg)
	p.questions = c.(*QuestionPanel)
	cmds = append(cmds, cmd)

	c, cmd = p.answers.Update(msg)
	p.answers = c.(*AnswersPanel)
	cmds = append(cmds, cmd)

	c, cmd = p.console.Update(msg)
	p.console = c.(*ConsolePanel)
	cmds = append(cmds, cmd)

	return p, tea.Batch(cmds...)
}

func (p *Panel) record(number int, answer string) {
	if p.questions.MarkAnswered(number, answer) {
		p.status.Answered(answer == model.SentinelFailed)
	}
	p.answers.Add(number, answer)
}

// SetSize splits the screen: status and question list on top, answers in the
// middle, console at the bottom
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height

	half := width / 2
	topHeight := height * 2 / 5
	middleHeight := height * 2 / 5
	bottomHeight := height - topHeight - middleHeight - 1

	p.status.SetSize(half, topHeight)
	p.questions.SetSize(width-half, topHeight)
	p.answers.SetSize(width, middleHeight)
	p.console.SetSize(width, bottomHeight)
}

func (p *Panel) View() string {
	top := lipgloss.JoinHorizontal(lipgloss.Top, p.status.View(), p.questions.View())
	return lipgloss.JoinVertical(
		lipgloss.Left,
		top,
		p.answers.View(),
		p.console.View(),
		helpStyle.Render(p.help()),
	)
}

func (p *Panel) help() string {
	switch {
	case p.done:
		return " q: close"
	case p.mode == engine.Paused:
		return " r: resume • q: exit"
	default:
		return " p: pause • q: exit • ↑/↓: scroll"
	}
}

func truncate(s string, w int) string {
	r := []rune(s)
	if w <= 3 || len(r) <= w {
		return s
	}
	return string(r[:w-3]) + "..."
}
