package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-scripts/examreview/internal/export"
	"github.com/go-scripts/examreview/internal/scoring"
)

// CompareCmd scores a saved answers file
type CompareCmd struct {
	PageFlags `embed:""`

	Answers string `help:"Answers JSON written by the answer command" required:"" type:"existingfile"`
}

func (c *CompareCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	questions, _, err := c.load(ctx, a)
	if err != nil {
		return err
	}
	answers, err := export.NewAnswersFile(c.Answers).Load()
	if err != nil {
		return err
	}

	d, err := a.downloader()
	if err != nil {
		return err
	}

	report := scoring.Compare(questions, answers)
	if err := report.Deliver(d, a.logger); err != nil {
		return err
	}

	fmt.Printf("Accuracy %s (%d/%d), report written to %s\n",
		report.AccuracyText(), report.Correct, report.Total, d.Path(export.ComparisonFileName))
	return nil
}
