package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-scripts/examreview/internal/export"
	"github.com/go-scripts/examreview/internal/model"
)

// ExtractCmd exports the questions of a review page
type ExtractCmd struct {
	PageFlags `embed:""`

	Format  string `help:"Output format" enum:"csv,json,both" default:"both"`
	Answers string `help:"Answers JSON; with --ai-wrong only questions the AI got wrong are written to CSV" type:"existingfile"`
	AIWrong bool   `help:"Keep only questions whose answer in --answers differs from the correct answer" name:"ai-wrong"`
}

func (c *ExtractCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	questions, exam, err := c.load(ctx, a)
	if err != nil {
		return err
	}

	var answers []model.AnswerRecord
	if c.Answers != "" {
		if answers, err = export.NewAnswersFile(c.Answers).Load(); err != nil {
			return err
		}
	}

	d, err := a.downloader()
	if err != nil {
		return err
	}

	wrongOnly := c.OnlyWrong || (c.AIWrong && answers != nil)
	now := time.Now()

	if c.Format == "csv" || c.Format == "both" {
		data, err := export.CSV(questions, answers, c.AIWrong)
		if err != nil {
			return err
		}
		export.Deliver(d, export.WithBOM(data), export.FileName(exam, wrongOnly, "csv", now), a.logger)
	}
	if c.Format == "json" || c.Format == "both" {
		data, err := export.JSON(questions)
		if err != nil {
			return err
		}
		export.Deliver(d, data, export.FileName(exam, wrongOnly, "json", now), a.logger)
	}

	fmt.Printf("Exported %d questions to %s\n", len(questions), a.cfg.OutputDir)
	return nil
}
