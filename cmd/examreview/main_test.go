package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/examreview/internal/ai"
	"github.com/go-scripts/examreview/internal/export"
	"github.com/go-scripts/examreview/internal/model"
	"github.com/go-scripts/examreview/internal/vault"
)

const reviewPage = `<html><head><title>Unit Test</title></head><body>
<ul class="que-list"><li class="right">1</li><li class="error">2</li></ul>
<div class="group"><div class="title">单选题</div>
<div class="question-review"><div class="ck-content title">Pick B</div><div class="option-list">
<div class="option"><span class="item">A</span><span class="opt-content">first</span></div>
<div class="option"><span class="item correct">B</span><span class="opt-content">second, really</span></div>
</div><div class="score-detail"><span class="text-color-danger">2分</span></div></div>
</div>
<div class="group"><div class="title">填空题</div>
<div class="question-review"><div class="ck-content title">Capital of France</div>
<div class="item-box"><span class="label">正确答案</span><span class="text-answer">1. Paris</span></div></div>
</div></body></html>`

// testEnv isolates config lookup, the vault and the output directory
func testEnv(t *testing.T) (*Globals, string) {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("EXAMREVIEW_VAULT_PATH", filepath.Join(dir, "vault", "vault.json"))
	t.Setenv("EXAMREVIEW_LOG_LEVEL", "error")

	pagePath := filepath.Join(dir, "review.html")
	require.NoError(t, os.WriteFile(pagePath, []byte(reviewPage), 0644))

	return &Globals{Output: filepath.Join(dir, "out")}, pagePath
}

func glob(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	require.Len(t, matches, 1, pattern)
	return matches[0]
}

func TestExtractCommand(t *testing.T) {
	g, pagePath := testEnv(t)

	cmd := &ExtractCmd{PageFlags: PageFlags{File: pagePath}, Format: "both"}
	require.NoError(t, cmd.Run(g))

	csvData, err := os.ReadFile(glob(t, filepath.Join(g.Output, "Unit Test_all_*.csv")))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(csvData, []byte(export.BOM)))
	assert.Contains(t, string(csvData), `1,Pick B,first,"second, really",,,B`)
	assert.Contains(t, string(csvData), "2,Capital of France,,,,,Paris")

	jsonData, err := os.ReadFile(glob(t, filepath.Join(g.Output, "Unit Test_all_*.json")))
	require.NoError(t, err)
	questions, err := export.ParseJSON(jsonData)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 2, questions[0].Score)
	assert.Contains(t, string(jsonData), `"options": []`)
	assert.NotContains(t, string(jsonData), `"options": null`)
}

func TestExtractCommandOnlyWrong(t *testing.T) {
	g, pagePath := testEnv(t)

	cmd := &ExtractCmd{PageFlags: PageFlags{File: pagePath, OnlyWrong: true}, Format: "csv"}
	require.NoError(t, cmd.Run(g))

	data, err := os.ReadFile(glob(t, filepath.Join(g.Output, "Unit Test_wrong_*.csv")))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "2,Capital of France"))
}

func mockAI(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req ai.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt := req.Messages[len(req.Messages)-1].Content

		reply := "B"
		if strings.Contains(prompt, "Capital of France") {
			reply = "Paris\nIt is the capital."
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ai.ChatResponse{Choices: []ai.ChatChoice{{Message: ai.Message{Role: "assistant", Content: reply}}}})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAnswerCommand(t *testing.T) {
	g, pagePath := testEnv(t)
	var calls int32
	server := mockAI(t, &calls)
	t.Setenv("EXAMREVIEW_AI_ENDPOINT", server.URL+"/v1/chat/completions")

	cmd := &AnswerCmd{PageFlags: PageFlags{File: pagePath}, APIKey: "sk-test"}
	require.NoError(t, cmd.Run(g))
	assert.EqualValues(t, 2, calls)

	records, err := export.NewAnswersFile(filepath.Join(g.Output, "Unit Test_answers.json")).Load()
	require.NoError(t, err)
	assert.Equal(t, []model.AnswerRecord{
		{QuestionNumber: 1, AnswerText: "B"},
		{QuestionNumber: 2, AnswerText: "Paris"},
	}, records)

	report, err := os.ReadFile(filepath.Join(g.Output, export.ComparisonFileName))
	require.NoError(t, err)
	assert.Contains(t, string(report), "accuracy,100.00%,,")

	store, err := vault.NewFileStore(os.Getenv("EXAMREVIEW_VAULT_PATH"))
	require.NoError(t, err)
	secret, err := vault.New(store, nil).StoredSecret()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", secret)

	resume := &AnswerCmd{PageFlags: PageFlags{File: pagePath}, Resume: true}
	require.NoError(t, resume.Run(g))
	assert.EqualValues(t, 2, calls, "resumed run must not query answered questions")
}

func TestCompareCommand(t *testing.T) {
	g, pagePath := testEnv(t)

	answersPath := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, export.NewAnswersFile(answersPath).Save([]model.AnswerRecord{
		{QuestionNumber: 1, AnswerText: "A"},
		{QuestionNumber: 2, AnswerText: "Paris"},
	}))

	cmd := &CompareCmd{PageFlags: PageFlags{File: pagePath}, Answers: answersPath}
	require.NoError(t, cmd.Run(g))

	report, err := os.ReadFile(filepath.Join(g.Output, export.ComparisonFileName))
	require.NoError(t, err)
	assert.Contains(t, string(report), "1,B,A,no")
	assert.Contains(t, string(report), "accuracy,50.00%,,")
}

func TestKeyCommands(t *testing.T) {
	g, _ := testEnv(t)

	require.NoError(t, (&KeySetCmd{Secret: "sk-abcdefghijkl"}).Run(g))
	require.NoError(t, (&KeyStatusCmd{}).Run(g))

	store, err := vault.NewFileStore(os.Getenv("EXAMREVIEW_VAULT_PATH"))
	require.NoError(t, err)
	secret, err := vault.New(store, nil).StoredSecret()
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdefghijkl", secret)

	require.NoError(t, (&KeyForgetCmd{}).Run(g))
	_, err = vault.New(store, nil).StoredSecret()
	assert.ErrorIs(t, err, vault.ErrNoCredential)
	require.NoError(t, (&KeyStatusCmd{}).Run(g))
}

func TestKeyCommandsRecoverFromCorruptKey(t *testing.T) {
	g, _ := testEnv(t)

	path := os.Getenv("EXAMREVIEW_VAULT_PATH")
	store, err := vault.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(vault.KeyMaterialName, "not-base64!!"))

	err = (&KeySetCmd{Secret: "sk-abcdefghijkl"}).Run(g)
	assert.ErrorIs(t, err, vault.ErrCorruptKey)
	assert.ErrorContains(t, err, "--reset-key")
	require.NoError(t, (&KeyStatusCmd{}).Run(g))

	require.NoError(t, (&KeyForgetCmd{ResetKey: true}).Run(g))
	require.NoError(t, (&KeySetCmd{Secret: "sk-abcdefghijkl"}).Run(g))

	store, err = vault.NewFileStore(path)
	require.NoError(t, err)
	secret, err := vault.New(store, nil).StoredSecret()
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdefghijkl", secret)
}

func TestLogLevelFlagOverridesInvalidConfig(t *testing.T) {
	g, _ := testEnv(t)
	t.Setenv("EXAMREVIEW_LOG_LEVEL", "verbose")

	_, err := g.setup()
	assert.ErrorContains(t, err, "invalid log level")

	g.LogLevel = "DEBUG"
	a, err := g.setup()
	require.NoError(t, err)
	assert.Equal(t, "debug", a.cfg.LogLevel)
}

func TestPromptSecret(t *testing.T) {
	var out bytes.Buffer
	secret, err := promptSecret(strings.NewReader("  sk-typed \n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "sk-typed", secret)
	assert.Contains(t, out.String(), "API key")

	_, err = promptSecret(strings.NewReader("\n"), &out)
	assert.ErrorIs(t, err, vault.ErrNoCredential)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "sk-********mnop", mask("sk-abcdefghmnop"))
	assert.Equal(t, "****", mask("abcd"))
}
