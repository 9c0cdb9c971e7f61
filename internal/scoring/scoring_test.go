package scoring

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/examreview/internal/export"
	"github.com/go-scripts/examreview/internal/model"
)

func questions() []model.Question {
	return []model.Question{
		{Number: 1, Answer: "A", Options: []model.Option{{Label: "A"}}},
		{Number: 2, Answer: "Paris"},
		{Number: 3, Answer: "C"},
		{Number: 4, Answer: "D"},
	}
}

func TestCompareAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		answers  []model.AnswerRecord
		correct  int
		accuracy float64
	}{
		{
			name: "all correct",
			answers: []model.AnswerRecord{
				{QuestionNumber: 1, AnswerText: "A"},
				{QuestionNumber: 2, AnswerText: "Paris"},
				{QuestionNumber: 3, AnswerText: "C"},
				{QuestionNumber: 4, AnswerText: "D"},
			},
			correct:  4,
			accuracy: 100,
		},
		{
			name: "none correct",
			answers: []model.AnswerRecord{
				{QuestionNumber: 1, AnswerText: "B"},
				{QuestionNumber: 2, AnswerText: "paris"},
				{QuestionNumber: 3, AnswerText: model.SentinelFailed},
				{QuestionNumber: 4, AnswerText: ""},
			},
			correct:  0,
			accuracy: 0,
		},
		{
			name: "partial and out of order",
			answers: []model.AnswerRecord{
				{QuestionNumber: 3, AnswerText: "C"},
				{QuestionNumber: 1, AnswerText: "A"},
				{QuestionNumber: 2, AnswerText: "Lyon"},
			},
			correct:  2,
			accuracy: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compare(questions(), tt.answers)
			assert.Equal(t, 4, r.Total)
			assert.Equal(t, tt.correct, r.Correct)
			assert.InDelta(t, tt.accuracy, r.Accuracy, 1e-9)
			assert.Len(t, r.Results, 4)
		})
	}
}

func TestCompareEmpty(t *testing.T) {
	r := Compare(nil, []model.AnswerRecord{{QuestionNumber: 1, AnswerText: "A"}})
	assert.Zero(t, r.Total)
	assert.Zero(t, r.Accuracy)
	assert.Equal(t, "0.00%", r.AccuracyText())
}

func TestCompareMissingAnswer(t *testing.T) {
	r := Compare(questions()[:2], []model.AnswerRecord{{QuestionNumber: 2, AnswerText: "Paris"}})

	assert.Equal(t, model.ComparisonResult{QuestionNumber: 1, CorrectAnswer: "A"}, r.Results[0])
	assert.Equal(t, model.ComparisonResult{QuestionNumber: 2, CorrectAnswer: "Paris", AIAnswer: "Paris", IsCorrect: true}, r.Results[1])
}

func TestReportCSV(t *testing.T) {
	r := Compare(questions()[:3], []model.AnswerRecord{
		{QuestionNumber: 1, AnswerText: "A"},
		{QuestionNumber: 2, AnswerText: "Rome, Italy"},
		{QuestionNumber: 3, AnswerText: "C"},
	})

	data, err := r.CSV()
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"number", "correctAnswer", "aiAnswer", "isCorrect"},
		{"1", "A", "A", "yes"},
		{"2", "Paris", "Rome, Italy", "no"},
		{"3", "C", "C", "yes"},
		{"accuracy", "66.67%", "", ""},
	}, rows)
}

type recordingDownloader struct {
	name    string
	content []byte
}

func (d *recordingDownloader) Download(content []byte, filename string) error {
	d.name = filename
	d.content = content
	return nil
}

func TestReportDeliver(t *testing.T) {
	d := &recordingDownloader{}
	r := Compare(questions()[:1], []model.AnswerRecord{{QuestionNumber: 1, AnswerText: "A"}})

	require.NoError(t, r.Deliver(d, log.New(&bytes.Buffer{})))

	assert.Equal(t, "ai_answers_comparison.csv", d.name)
	assert.True(t, bytes.HasPrefix(d.content, []byte(export.BOM)))
	assert.Contains(t, string(d.content), "accuracy,100.00%,,")
}
