package engine

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/go-scripts/examreview/internal/model"
)

const choiceTemplate = `Answer the following multiple-choice question. Reply with a single letter (A, B, C or D) and nothing else.
{{if .Type}}
Type: {{.Type}}{{end}}
Question: {{.Title}}
{{range .Options}}
{{.Label}}. {{.Content}}{{end}}
`

const freeTemplate = `Answer the following question briefly. Reply with the answer only, on a single line.
{{if .Type}}
Type: {{.Type}}{{end}}
Question: {{.Title}}
`

var (
	standaloneChoice = regexp.MustCompile(`(?i)\b[a-d]\b`)
	anyChoice        = regexp.MustCompile(`[A-Da-d]`)
)

// Prompter renders questions into prompts and reads answers back out of replies
type Prompter struct {
	choice *template.Template
	free   *template.Template
}

// NewPrompter parses the built-in templates
func NewPrompter() *Prompter {
	return &Prompter{
		choice: template.Must(template.New("choice").Parse(choiceTemplate)),
		free:   template.Must(template.New("free").Parse(freeTemplate)),
	}
}

// Build renders the prompt for q
func (p *Prompter) Build(q model.Question) (string, error) {
	tmpl := p.free
	if q.IsMultipleChoice() {
		tmpl = p.choice
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, q); err != nil {
		return "", fmt.Errorf("failed to render prompt for question %d: %w", q.Number, err)
	}
	return b.String(), nil
}

// Parse extracts the answer for q from a reply. Multiple-choice replies yield
// the first standalone letter A-D (any A-D character as a fallback),
// upper-cased, or "" when there is none. Free-response replies yield their
// first line.
func (p *Prompter) Parse(q model.Question, reply string) string {
	if q.IsMultipleChoice() {
		return ParseChoice(reply)
	}
	return FirstLine(reply)
}

// ParseChoice returns the first option letter in reply
func ParseChoice(reply string) string {
	if m := standaloneChoice.FindString(reply); m != "" {
		return strings.ToUpper(m)
	}
	if m := anyChoice.FindString(reply); m != "" {
		return strings.ToUpper(m)
	}
	return ""
}

// FirstLine returns the trimmed first line of reply
func FirstLine(reply string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(reply), "\n")
	return strings.TrimSpace(line)
}
