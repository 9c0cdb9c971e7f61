package model

// SentinelFailed stands in for an answer when the AI request for a question failed
const SentinelFailed = "analysis failed"

// Option is a single labelled choice of a multiple-choice question
type Option struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Question is one extracted exam item.
// Number is the global position of the item on the review page, assigned
// before any filtering, so it is stable between "all" and "wrong only" scans.
type Question struct {
	Number  int      `json:"number"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Options []Option `json:"options"`
	Answer  string   `json:"answer"`
	Score   int      `json:"score"`
}

// IsMultipleChoice reports whether the question carries options
func (q Question) IsMultipleChoice() bool {
	return len(q.Options) > 0
}

// OptionByLabel returns the option with the given label, if any
func (q Question) OptionByLabel(label string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return Option{}, false
}

// AnswerRecord is the AI answer produced for one question
type AnswerRecord struct {
	QuestionNumber int    `json:"questionNumber"`
	AnswerText     string `json:"answerText"`
}

// Failed reports whether the record holds the failure sentinel
func (r AnswerRecord) Failed() bool {
	return r.AnswerText == SentinelFailed
}

// ComparisonResult pairs the page's correct answer with the AI answer
type ComparisonResult struct {
	QuestionNumber int    `json:"questionNumber"`
	CorrectAnswer  string `json:"correctAnswer"`
	AIAnswer       string `json:"aiAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// IndexAnswers keys answer records by question number. When a number occurs
// more than once the last record wins.
func IndexAnswers(answers []AnswerRecord) map[int]AnswerRecord {
	byNumber := make(map[int]AnswerRecord, len(answers))
	for _, a := range answers {
		byNumber[a.QuestionNumber] = a
	}
	return byNumber
}
