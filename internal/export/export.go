// Package export serializes extracted questions to CSV and JSON and hands the
// result to a Downloader.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/go-scripts/examreview/internal/model"
)

// BOM is the UTF-8 byte-order mark prefixed to delivered CSV files
const BOM = "\ufeff"

// OptionLabels are the option columns of the question CSV
var OptionLabels = []string{"A", "B", "C", "D"}

var questionHeader = []string{"number", "title", "optionA", "optionB", "optionC", "optionD", "correctAnswer"}

// CSV renders one row per question. When onlyWrong is set and answers is
// non-nil, only questions whose AI answer differs from the correct answer are
// kept; answers are paired by question number and a question without an
// answer counts as differing.
func CSV(questions []model.Question, answers []model.AnswerRecord, onlyWrong bool) ([]byte, error) {
	filter := onlyWrong && answers != nil
	byNumber := model.IndexAnswers(answers)

	rows := make([][]string, 0, len(questions)+1)
	rows = append(rows, questionHeader)
	for _, q := range questions {
		if filter {
			if a, ok := byNumber[q.Number]; ok && a.AnswerText == q.Answer {
				continue
			}
		}
		rows = append(rows, questionRow(q))
	}

	return encodeCSV(rows)
}

func questionRow(q model.Question) []string {
	row := make([]string, 0, len(questionHeader))
	row = append(row, fmt.Sprint(q.Number), q.Title)
	for _, label := range OptionLabels {
		opt, _ := q.OptionByLabel(label)
		row = append(row, opt.Content)
	}
	return append(row, q.Answer)
}

// EncodeRows writes rows as CSV
func EncodeRows(rows [][]string) ([]byte, error) {
	return encodeCSV(rows)
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the questions as an indented array. Nil slices, the question
// list or any options list, render as [].
func JSON(questions []model.Question) ([]byte, error) {
	out := make([]model.Question, len(questions))
	for i, q := range questions {
		if q.Options == nil {
			q.Options = []model.Option{}
		}
		out[i] = q
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseJSON reads questions previously written by JSON
func ParseJSON(data []byte) ([]model.Question, error) {
	var questions []model.Question
	if err := json.Unmarshal(bytes.TrimPrefix(data, []byte(BOM)), &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return questions, nil
}

// WithBOM prefixes content with the UTF-8 byte-order mark unless it already
// carries one
func WithBOM(content []byte) []byte {
	if bytes.HasPrefix(content, []byte(BOM)) {
		return content
	}
	out := make([]byte, 0, len(BOM)+len(content))
	out = append(out, BOM...)
	return append(out, content...)
}
