// Package scoring compares AI answers with the correct answers of the page.
package scoring

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/examreview/internal/export"
	"github.com/go-scripts/examreview/internal/model"
)

var reportHeader = []string{"number", "correctAnswer", "aiAnswer", "isCorrect"}

// Report is the outcome of a comparison
type Report struct {
	Results  []model.ComparisonResult
	Correct  int
	Total    int
	Accuracy float64
}

// Compare pairs every question with the answer recorded for its number.
// Equality is exact. A question without an answer is incorrect with an empty
// AI answer. Accuracy is a percentage, 0 when there are no questions.
func Compare(questions []model.Question, answers []model.AnswerRecord) Report {
	byNumber := model.IndexAnswers(answers)

	r := Report{
		Results: make([]model.ComparisonResult, 0, len(questions)),
		Total:   len(questions),
	}
	for _, q := range questions {
		res := model.ComparisonResult{QuestionNumber: q.Number, CorrectAnswer: q.Answer}
		if a, ok := byNumber[q.Number]; ok {
			res.AIAnswer = a.AnswerText
			res.IsCorrect = a.AnswerText == q.Answer
		}
		if res.IsCorrect {
			r.Correct++
		}
		r.Results = append(r.Results, res)
	}

	if r.Total > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Total) * 100
	}
	return r
}

// AccuracyText formats the accuracy as NN.NN%
func (r Report) AccuracyText() string {
	return fmt.Sprintf("%.2f%%", r.Accuracy)
}

// CSV renders one row per result followed by an accuracy summary row
func (r Report) CSV() ([]byte, error) {
	rows := make([][]string, 0, len(r.Results)+2)
	rows = append(rows, reportHeader)
	for _, res := range r.Results {
		correct := "no"
		if res.IsCorrect {
			correct = "yes"
		}
		rows = append(rows, []string{fmt.Sprint(res.QuestionNumber), res.CorrectAnswer, res.AIAnswer, correct})
	}
	rows = append(rows, []string{"accuracy", r.AccuracyText(), "", ""})

	return export.EncodeRows(rows)
}

// Deliver renders the report and hands it to d as ai_answers_comparison.csv
func (r Report) Deliver(d export.Downloader, logger *log.Logger) error {
	data, err := r.CSV()
	if err != nil {
		return err
	}
	export.Deliver(d, export.WithBOM(data), export.ComparisonFileName, logger)
	return nil
}
