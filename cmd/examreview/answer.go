package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/examreview/internal/ai"
	"github.com/go-scripts/examreview/internal/engine"
	"github.com/go-scripts/examreview/internal/export"
	"github.com/go-scripts/examreview/internal/logging"
	"github.com/go-scripts/examreview/internal/model"
	"github.com/go-scripts/examreview/internal/scoring"
	"github.com/go-scripts/examreview/internal/vault"
	"github.com/go-scripts/examreview/ui"
)

// AnswerCmd runs the automation over the questions of a page
type AnswerCmd struct {
	PageFlags `embed:""`

	APIKey  string `help:"AI service API key; stored encrypted for later runs" name:"api-key"`
	Answers string `help:"Answers JSON, rewritten after every answer (default <output>/<exam>_answers.json)" type:"path"`
	Resume  bool   `help:"Skip questions already present in the answers file"`
	TUI     bool   `help:"Show the interactive automation panel" name:"tui"`
}

type runResult struct {
	records []model.AnswerRecord
	err     error
}

func (c *AnswerCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}

	loadCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	questions, exam, err := c.load(loadCtx, a)
	stop()
	if err != nil {
		return err
	}

	answersPath := c.Answers
	if answersPath == "" {
		answersPath = filepath.Join(a.cfg.OutputDir, export.SanitizeFilename(exam+"_answers.json"))
	}
	answers := export.NewAnswersFile(answersPath)

	var restored []model.AnswerRecord
	if c.Resume {
		restored, err = answers.Load()
		if errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("No answers to resume from", "file", answersPath)
		} else if err != nil {
			return err
		}
	}

	if c.TUI {
		logger, closer, err := logging.NewFile(a.cfg.LogLevel, filepath.Join(a.cfg.OutputDir, "examreview.log"))
		if err != nil {
			return err
		}
		defer closer.Close()
		a.logger = logger
	}

	v, err := a.vault()
	if err != nil {
		return err
	}
	supplied, err := c.secret(a, v)
	if err != nil {
		return err
	}

	client, err := ai.NewClient(ai.Config{
		Endpoint:          a.cfg.AI.Endpoint,
		Model:             a.cfg.AI.Model,
		Temperature:       a.cfg.AI.Temperature,
		Timeout:           a.cfg.AI.Timeout,
		MaxRetries:        a.cfg.AI.MaxRetries,
		RequestsPerMinute: a.cfg.AI.RequestsPerMinute,
	}, a.logger)
	if err != nil {
		return err
	}

	var res runResult
	if c.TUI {
		res, err = c.runPanel(a.logger, client, v, answers, questions, restored, supplied)
	} else {
		res, err = c.runPlain(a.logger, client, v, answers, questions, restored, supplied)
	}
	if err != nil {
		return err
	}

	return c.finish(a, answers, questions, res)
}

// secret returns the key to hand to the engine. Without a supplied key and
// without a usable stored one the user is asked for it.
func (c *AnswerCmd) secret(a *app, v *vault.Vault) (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if a.cfg.AI.APIKey != "" {
		return a.cfg.AI.APIKey, nil
	}

	_, err := v.StoredSecret()
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, vault.ErrNoCredential) {
		return "", err
	}
	if errors.Is(err, vault.ErrCorruptKey) {
		a.logger.Warn("Stored key material is corrupt, the key entered now is used for this run only",
			"hint", "examreview key forget --reset-key")
	}
	return promptSecret(os.Stdin, os.Stderr)
}

// saver rewrites the answers file after every answer
func saver(eng **engine.Engine, answers *export.AnswersFile, logger *log.Logger) engine.ObserverFunc {
	return func(number int, answer string) {
		if err := answers.Save((*eng).Answers()); err != nil {
			logger.Error("Failed to save answers", "file", answers.Path(), "err", err)
		}
	}
}

func (c *AnswerCmd) runPlain(logger *log.Logger, client *ai.Client, v *vault.Vault, answers *export.AnswersFile,
	questions []model.Question, restored []model.AnswerRecord, supplied string) (runResult, error) {

	s := newSpinner(fmt.Sprintf("Answering %d questions", len(questions)))
	var eng *engine.Engine
	save := saver(&eng, answers, logger)
	done := len(restored)
	eng = engine.New(client, v,
		engine.WithLogger(logger),
		engine.WithObserver(engine.ObserverFunc(func(number int, answer string) {
			save(number, answer)
			done++
			s.Lock()
			s.Suffix = fmt.Sprintf(" Answered %d/%d (question %d: %s)", done, len(questions), number, answer)
			s.Unlock()
		})),
		engine.WithModeHook(func(m engine.Mode) {
			logger.Debug("Mode changed", "mode", m)
		}),
	)
	if err := eng.Restore(restored); err != nil {
		return runResult{}, err
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		if _, ok := <-interrupts; ok {
			logger.Warn("Interrupted, exiting automation")
			eng.Exit()
		}
	}()

	s.Start()
	records, err := eng.Run(context.Background(), questions, supplied)
	s.Stop()
	return runResult{records: records, err: err}, nil
}

func (c *AnswerCmd) runPanel(logger *log.Logger, client *ai.Client, v *vault.Vault, answers *export.AnswersFile,
	questions []model.Question, restored []model.AnswerRecord, supplied string) (runResult, error) {

	panel := ui.NewPanel(questions, restored)
	prog := tea.NewProgram(panel, tea.WithAltScreen())

	var eng *engine.Engine
	save := saver(&eng, answers, logger)
	notify := ui.Observer(prog)
	eng = engine.New(client, v,
		engine.WithLogger(logger),
		engine.WithObserver(engine.ObserverFunc(func(number int, answer string) {
			save(number, answer)
			notify.Answered(number, answer)
		})),
		engine.WithModeHook(ui.ModeHook(prog)),
	)
	if err := eng.Restore(restored); err != nil {
		return runResult{}, err
	}
	panel.SetController(eng)

	done := make(chan runResult, 1)
	go func() {
		records, err := eng.Run(context.Background(), questions, supplied)
		prog.Send(ui.DoneMsg{Records: records, Err: err})
		done <- runResult{records: records, err: err}
	}()

	if _, err := prog.Run(); err != nil {
		eng.Exit()
		<-done
		return runResult{}, fmt.Errorf("automation panel failed: %w", err)
	}
	return <-done, nil
}

// finish persists the answers and delivers the comparison report
func (c *AnswerCmd) finish(a *app, answers *export.AnswersFile, questions []model.Question, res runResult) error {
	var fault *engine.SessionFault
	switch {
	case errors.Is(res.err, engine.ErrExited):
		fmt.Printf("Automation exited. Answers so far are in %s; rerun with --resume to continue\n", answers.Path())
		return nil
	case errors.Is(res.err, vault.ErrNoCredential):
		return fmt.Errorf("no usable API key, run `examreview key set` or pass --api-key: %w", res.err)
	case errors.As(res.err, &fault):
		if len(res.records) > 0 {
			if err := answers.Save(res.records); err != nil {
				a.logger.Error("Failed to save partial answers", "err", err)
			}
		}
		return res.err
	case res.err != nil:
		return res.err
	}

	if err := answers.Save(res.records); err != nil {
		return err
	}

	d, err := a.downloader()
	if err != nil {
		return err
	}
	report := scoring.Compare(questions, res.records)
	if err := report.Deliver(d, a.logger); err != nil {
		return err
	}

	failed := 0
	for _, r := range res.records {
		if r.Failed() {
			failed++
		}
	}
	fmt.Printf("Answered %d questions (%d failed). Accuracy %s (%d/%d)\n",
		len(res.records), failed, report.AccuracyText(), report.Correct, report.Total)
	fmt.Printf("Answers: %s\nReport:  %s\n", answers.Path(), d.Path(export.ComparisonFileName))
	return nil
}
