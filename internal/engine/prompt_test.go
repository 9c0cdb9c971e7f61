package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/examreview/internal/model"
)

func TestBuildChoicePrompt(t *testing.T) {
	p := NewPrompter()
	q := model.Question{
		Number: 7,
		Type:   "单选题",
		Title:  "Which is prime?",
		Options: []model.Option{
			{Label: "A", Content: "4"},
			{Label: "B", Content: "6"},
			{Label: "C", Content: "7"},
		},
	}

	prompt, err := p.Build(q)
	require.NoError(t, err)

	assert.Contains(t, prompt, "single letter")
	assert.Contains(t, prompt, "Type: 单选题")
	assert.Contains(t, prompt, "Question: Which is prime?\n")
	assert.Contains(t, prompt, "A. 4\nB. 6\nC. 7")
}

func TestBuildFreePrompt(t *testing.T) {
	prompt, err := NewPrompter().Build(model.Question{Number: 1, Title: "Capital of France"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Question: Capital of France\n")
	assert.NotContains(t, prompt, "Type:")
	assert.NotContains(t, prompt, "single letter")
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{"B", "B"},
		{"c", "C"},
		{"The answer is d.", "D"},
		{"Answer: (A)", "A"},
		{"Answer: C", "C"},
		{"答案是C", "C"},
		{"abc", "A"},
		{"", ""},
		{"xyz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseChoice(tt.reply))
		})
	}
}

func TestParseFreeResponse(t *testing.T) {
	p := NewPrompter()
	q := model.Question{Number: 2, Title: "Capital"}

	assert.Equal(t, "Paris", p.Parse(q, "  Paris \nIt is the capital."))
	assert.Equal(t, "", p.Parse(q, "\n\n"))
	assert.Equal(t, "B", p.Parse(model.Question{Options: []model.Option{{Label: "A"}}}, "b"))
}
