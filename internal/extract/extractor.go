// Package extract turns an exam-review document into ordered Question records.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/examreview/internal/document"
	"github.com/go-scripts/examreview/internal/model"
)

// Selectors of the review page schema
const (
	selWrongMarkers  = ".que-list li"
	selGroup         = ".group"
	selGroupTitle    = ".title"
	selQuestion      = ".question-review"
	selTitle         = ".ck-content.title"
	selOption        = ".option"
	selOptionLabel   = ".item"
	selOptionContent = ".opt-content"
	selOptionList    = ".option-list"
	selCorrectOption = ".option .item.correct"
	selDetailItem    = ".item-box"
	selDetailCaption = ".label"
	selDetailAnswer  = ".text-answer"
	selScore         = ".score-detail .text-color-danger"

	classWrong = "error"
)

var (
	// ErrNoGroups is returned when the document holds no question groups,
	// usually because the page has not finished rendering.
	ErrNoGroups = errors.New("no question groups found, make sure the page has fully loaded")

	leadingInt     = regexp.MustCompile(`^\s*(\d+)`)
	numericPrefix  = regexp.MustCompile(`^\s*\d+(?:\.\s+|[、．]\s*)`)
	answerCaptions = []string{"正确答案", "correct answer"}
)

// ExtractionError reports a structural failure that yields no result
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor walks review documents
type Extractor struct {
	logger *log.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger used for progress and field defaults
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New creates an Extractor
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the questions of root in document order. With onlyWrong set
// only the questions flagged as wrong are returned; their numbers are the
// same as in an unfiltered scan.
func (e *Extractor) Extract(root document.Node, onlyWrong bool) ([]model.Question, error) {
	var wrong map[int]bool
	if onlyWrong {
		wrong = e.WrongSet(root)
		e.logger.Debug("Wrong set built", "count", len(wrong))
	}

	groups := root.Find(selGroup)
	if len(groups) == 0 {
		return nil, &ExtractionError{Err: ErrNoGroups}
	}
	e.logger.Debug("Found question groups", "count", len(groups))

	questions := make([]model.Question, 0)
	number := 1
	for _, group := range groups {
		groupType := ""
		if t := group.First(selGroupTitle); t != nil {
			groupType = t.Text()
		}

		for _, node := range group.Find(selQuestion) {
			current := number
			number++

			if onlyWrong && !wrong[current] {
				continue
			}

			questions = append(questions, model.Question{
				Number:  current,
				Type:    groupType,
				Title:   e.title(node, current),
				Options: e.options(node),
				Answer:  e.answer(node, current),
				Score:   e.score(node, current),
			})
		}
	}

	e.logger.Info("Extraction complete",
		"visited", number-1,
		"extracted", len(questions),
		"only_wrong", onlyWrong)
	for groupType, count := range Summarize(questions) {
		e.logger.Debug("Group summary", "type", groupType, "questions", count)
	}
	return questions, nil
}

// Summarize counts questions per group type
func Summarize(questions []model.Question) map[string]int {
	counts := make(map[string]int)
	for _, q := range questions {
		counts[q.Type]++
	}
	return counts
}

// WrongSet returns the displayed numbers of the markers flagged as wrong.
// Markers without a leading number are ignored.
func (e *Extractor) WrongSet(root document.Node) map[int]bool {
	set := make(map[int]bool)
	for _, item := range root.Find(selWrongMarkers) {
		if !item.HasClass(classWrong) {
			continue
		}
		n, ok := parseLeadingInt(item.Text())
		if !ok {
			e.logger.Debug("Ignoring wrong marker without number", "text", item.Text())
			continue
		}
		set[n] = true
	}
	return set
}

func (e *Extractor) title(q document.Node, number int) string {
	node := q.First(selTitle)
	if node == nil {
		e.logger.Debug("Title missing, using empty string", "question", number)
		return ""
	}
	return node.Text()
}

func (e *Extractor) options(q document.Node) []model.Option {
	opts := make([]model.Option, 0)
	for _, node := range q.Find(selOption) {
		label := textOf(node.First(selOptionLabel))
		if label == "" {
			continue
		}
		opts = append(opts, model.Option{
			Label:   label,
			Content: textOf(node.First(selOptionContent)),
		})
	}
	return opts
}

func (e *Extractor) answer(q document.Node, number int) string {
	if q.First(selOptionList) != nil {
		if correct := q.First(selCorrectOption); correct != nil {
			return correct.Text()
		}
		e.logger.Debug("No option marked correct", "question", number)
		return ""
	}

	for _, box := range q.Find(selDetailItem) {
		if !isAnswerCaption(textOf(box.First(selDetailCaption))) {
			continue
		}
		text := textOf(box.First(selDetailAnswer))
		return strings.TrimSpace(numericPrefix.ReplaceAllString(text, ""))
	}

	e.logger.Debug("Correct answer missing, using empty string", "question", number)
	return ""
}

func (e *Extractor) score(q document.Node, number int) int {
	node := q.First(selScore)
	if node == nil {
		return 0
	}
	n, ok := parseLeadingInt(node.Text())
	if !ok {
		e.logger.Debug("Unparsable score, using 0", "question", number, "text", node.Text())
		return 0
	}
	return n
}

func isAnswerCaption(caption string) bool {
	lower := strings.ToLower(caption)
	for _, marker := range answerCaptions {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func textOf(n document.Node) string {
	if n == nil {
		return ""
	}
	return n.Text()
}

func parseLeadingInt(s string) (int, bool) {
	m := leadingInt.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
