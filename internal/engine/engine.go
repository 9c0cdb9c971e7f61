// Package engine drives the per-question answering loop.
//
// A run walks the questions strictly one at a time in number order. Before
// each dispatch it passes a pause gate; a paused run blocks there until
// Resume. At most one transport call is outstanding. A failed call turns into
// the failure sentinel for that question and the run continues. Exit is a
// hard stop: it does not wait for an in-flight call, whose result is dropped.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/go-scripts/examreview/internal/ai"
	"github.com/go-scripts/examreview/internal/model"
	"github.com/go-scripts/examreview/internal/vault"
)

// Transport sends one prompt to the AI service
type Transport interface {
	Send(ctx context.Context, prompt, secret string) ai.Result
}

// Credentials supplies and persists the AI service secret
type Credentials interface {
	StoredSecret() (string, error)
	SaveSecret(secret string) error
}

// Observer is told about every recorded answer
type Observer interface {
	Answered(number int, answer string)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(number int, answer string)

func (f ObserverFunc) Answered(number int, answer string) { f(number, answer) }

var (
	// ErrBusy is returned when Run or Restore is called while a run is active
	ErrBusy = errors.New("automation is already running")
	// ErrExited is returned by a Run interrupted through Exit
	ErrExited = errors.New("automation exited")
)

// SessionFault aborts a whole run. The session is discarded and the secret
// cleared before it is returned.
type SessionFault struct {
	SessionID string
	Err       error
}

func (f *SessionFault) Error() string {
	return fmt.Sprintf("session %s aborted: %v", f.SessionID, f.Err)
}

func (f *SessionFault) Unwrap() error {
	return f.Err
}

type session struct {
	id       string
	answered map[int]bool
	answers  []model.AnswerRecord
	secret   string
	cancel   context.CancelFunc
}

func newSession() *session {
	return &session{
		id:       uuid.NewString(),
		answered: make(map[int]bool),
	}
}

// Engine owns the automation session
type Engine struct {
	transport Transport
	creds     Credentials
	observer  Observer
	modeHook  func(Mode)
	prompts   *Prompter
	logger    *log.Logger

	mu      sync.Mutex
	mode    Mode
	seq     uint64
	paused  bool
	resumed chan struct{}
	session *session

	// hookMu orders mode hook delivery; delivered is the seq last handed out
	hookMu    sync.Mutex
	delivered uint64
}

// Option configures an Engine
type Option func(*Engine)

// WithObserver registers the per-answer observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithModeHook registers a callback invoked after mode changes. Calls are
// serialized and never go backwards: a change that loses the race to a newer
// one is not delivered. The hook must not call Pause, Resume or Exit.
func WithModeHook(hook func(Mode)) Option {
	return func(e *Engine) {
		e.modeHook = hook
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an idle Engine
func New(transport Transport, creds Credentials, opts ...Option) *Engine {
	e := &Engine{
		transport: transport,
		creds:     creds,
		prompts:   NewPrompter(),
		logger:    log.Default(),
		mode:      Idle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the current mode
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Answers returns a copy of the records of the current session
func (e *Engine) Answers() []model.AnswerRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	return append([]model.AnswerRecord(nil), e.session.answers...)
}

// Answered reports whether number has been processed in the current session
func (e *Engine) Answered(number int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && e.session.answered[number]
}

// Restore seeds the session with records from an earlier partial run so that
// their questions are not queried again
func (e *Engine) Restore(records []model.AnswerRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode.Active() {
		return ErrBusy
	}
	if e.session == nil {
		e.session = newSession()
	}
	for _, r := range records {
		if e.session.answered[r.QuestionNumber] {
			continue
		}
		e.session.answered[r.QuestionNumber] = true
		e.session.answers = append(e.session.answers, r)
	}
	return nil
}

// Run answers questions and blocks until the run completes, aborts or is
// exited. A non-empty supplied secret is persisted and used; otherwise the
// stored secret is used, and vault.ErrNoCredential is returned when there is
// none. Questions already answered in this session are skipped.
func (e *Engine) Run(ctx context.Context, questions []model.Question, supplied string) ([]model.AnswerRecord, error) {
	if e.Mode().Active() {
		return nil, ErrBusy
	}

	secret, err := e.resolveSecret(supplied)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.mode.Active() {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	if e.session == nil {
		e.session = newSession()
	}
	s := e.session
	s.secret = secret
	s.cancel = cancel
	e.paused = false
	e.mode = Running
	seq := e.nextSeq()
	e.mu.Unlock()
	e.notifyMode(seq, Running)

	e.logger.Info("Automation started", "session", s.id, "questions", len(questions))
	return e.loop(runCtx, s, questions)
}

func (e *Engine) resolveSecret(supplied string) (string, error) {
	if e.creds == nil {
		if supplied == "" {
			return "", vault.ErrNoCredential
		}
		return supplied, nil
	}

	if supplied != "" {
		if err := e.creds.SaveSecret(supplied); err != nil {
			e.logger.Warn("Failed to store secret, using it for this run only", "err", err)
		}
		return supplied, nil
	}

	secret, err := e.creds.StoredSecret()
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", vault.ErrNoCredential
	}
	return secret, nil
}

func (e *Engine) loop(ctx context.Context, s *session, questions []model.Question) (records []model.AnswerRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = e.abort(s, fmt.Errorf("panic in automation loop: %v", r))
		}
	}()

	ordered, err := orderQuestions(questions)
	if err != nil {
		return e.abort(s, err)
	}

	for _, q := range ordered {
		if err := e.waitIfPaused(ctx); err != nil {
			return e.interrupted(s, err)
		}

		if e.isAnswered(s, q.Number) {
			e.logger.Debug("Skipping answered question", "session", s.id, "question", q.Number)
			continue
		}

		prompt, err := e.prompts.Build(q)
		if err != nil {
			return e.abort(s, err)
		}

		secret, ok := e.secretOf(s)
		if !ok {
			return nil, ErrExited
		}

		res := e.transport.Send(ctx, prompt, secret)
		if ctx.Err() != nil {
			return e.interrupted(s, ctx.Err())
		}

		answer := model.SentinelFailed
		if res.OK {
			answer = e.prompts.Parse(q, res.Text)
		} else {
			e.logger.Warn("AI request failed",
				"session", s.id,
				"question", q.Number,
				"kind", res.ErrorKind,
				"message", res.Message)
		}

		if !e.record(s, q.Number, answer) {
			return nil, ErrExited
		}
		e.logger.Debug("Question answered", "session", s.id, "question", q.Number, "answer", answer)

		if e.observer != nil {
			e.observer.Answered(q.Number, answer)
		}
	}

	return e.complete(s)
}

// orderQuestions returns a copy sorted by number; duplicate or non-positive
// numbers are rejected
func orderQuestions(questions []model.Question) ([]model.Question, error) {
	ordered := append([]model.Question(nil), questions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})
	for i, q := range ordered {
		if q.Number <= 0 {
			return nil, fmt.Errorf("invalid question number %d", q.Number)
		}
		if i > 0 && ordered[i-1].Number == q.Number {
			return nil, fmt.Errorf("duplicate question number %d", q.Number)
		}
	}
	return ordered, nil
}

func (e *Engine) isAnswered(s *session, number int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.answered[number]
}

func (e *Engine) secretOf(s *session) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != s {
		return "", false
	}
	return s.secret, true
}

// record appends the answer unless the session was exited meanwhile
func (e *Engine) record(s *session, number int, answer string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != s {
		return false
	}
	s.answered[number] = true
	s.answers = append(s.answers, model.AnswerRecord{QuestionNumber: number, AnswerText: answer})
	return true
}

func (e *Engine) complete(s *session) ([]model.AnswerRecord, error) {
	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return nil, ErrExited
	}
	s.secret = ""
	s.cancel = nil
	e.paused = false
	e.mode = Completed
	seq := e.nextSeq()
	records := append([]model.AnswerRecord(nil), s.answers...)
	e.mu.Unlock()
	e.notifyMode(seq, Completed)

	e.logger.Info("Automation completed", "session", s.id, "answers", len(records))
	return records, nil
}

// interrupted handles a cancelled run context. An exited session reports
// ErrExited; a cancelled parent context is a fault of the run.
func (e *Engine) interrupted(s *session, cause error) ([]model.AnswerRecord, error) {
	e.mu.Lock()
	exited := e.session != s
	e.mu.Unlock()
	if exited {
		e.logger.Info("Automation exited", "session", s.id)
		return nil, ErrExited
	}
	return e.abort(s, cause)
}

// abort moves the run to Aborted and then forces an exit
func (e *Engine) abort(s *session, cause error) ([]model.AnswerRecord, error) {
	e.mu.Lock()
	if e.session != s {
		e.mu.Unlock()
		return nil, ErrExited
	}
	records := append([]model.AnswerRecord(nil), s.answers...)
	e.mode = Aborted
	seq := e.nextSeq()
	e.mu.Unlock()
	e.notifyMode(seq, Aborted)

	e.logger.Error("Automation aborted", "session", s.id, "err", cause)
	e.Exit()
	return records, &SessionFault{SessionID: s.id, Err: cause}
}

// Pause stops the run at the next gate. An in-flight call is not interrupted.
// It reports whether the engine was running.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	if e.mode != Running {
		e.mu.Unlock()
		return false
	}
	e.paused = true
	e.resumed = make(chan struct{})
	e.mode = Paused
	seq := e.nextSeq()
	e.mu.Unlock()

	e.notifyMode(seq, Paused)
	return true
}

// Resume releases a paused run. It reports whether the engine was paused.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	if e.mode != Paused {
		e.mu.Unlock()
		return false
	}
	e.paused = false
	close(e.resumed)
	e.mode = Running
	seq := e.nextSeq()
	e.mu.Unlock()

	e.notifyMode(seq, Running)
	return true
}

// Exit stops immediately without waiting for an in-flight call, discards the
// session and its secret and resets the engine to Idle
func (e *Engine) Exit() {
	e.mu.Lock()
	s := e.session
	e.session = nil
	if s != nil {
		s.secret = ""
		if s.cancel != nil {
			s.cancel()
		}
	}
	if e.paused {
		e.paused = false
		close(e.resumed)
	}
	if e.mode == Idle {
		e.mu.Unlock()
		return
	}
	e.mode = Idle
	seq := e.nextSeq()
	e.mu.Unlock()

	e.notifyMode(seq, Idle)
}

func (e *Engine) waitIfPaused(ctx context.Context) error {
	for {
		e.mu.Lock()
		if !e.paused {
			e.mu.Unlock()
			return ctx.Err()
		}
		resumed := e.resumed
		e.mu.Unlock()

		select {
		case <-resumed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// nextSeq stamps a mode change. Callers hold e.mu.
func (e *Engine) nextSeq() uint64 {
	e.seq++
	return e.seq
}

func (e *Engine) notifyMode(seq uint64, m Mode) {
	if e.modeHook == nil {
		return
	}
	e.hookMu.Lock()
	defer e.hookMu.Unlock()
	if seq <= e.delivered {
		return
	}
	e.delivered = seq
	e.modeHook(m)
}
