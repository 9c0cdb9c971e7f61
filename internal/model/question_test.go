package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionByLabel(t *testing.T) {
	q := Question{Options: []Option{{Label: "A", Content: "one"}, {Label: "B", Content: "two"}}}

	opt, ok := q.OptionByLabel("B")
	assert.True(t, ok)
	assert.Equal(t, "two", opt.Content)

	_, ok = q.OptionByLabel("D")
	assert.False(t, ok)
	assert.True(t, q.IsMultipleChoice())
	assert.False(t, Question{}.IsMultipleChoice())
}

func TestIndexAnswersLastWins(t *testing.T) {
	byNumber := IndexAnswers([]AnswerRecord{
		{QuestionNumber: 1, AnswerText: "A"},
		{QuestionNumber: 2, AnswerText: SentinelFailed},
		{QuestionNumber: 1, AnswerText: "C"},
	})

	assert.Len(t, byNumber, 2)
	assert.Equal(t, "C", byNumber[1].AnswerText)
	assert.True(t, byNumber[2].Failed())
}
