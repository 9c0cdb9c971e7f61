package main

import (
	"github.com/alecthomas/kong"
)

// Globals are flags shared by every command. Set flags override config.yaml
// and environment values.
type Globals struct {
	Config   string `help:"Path to configuration file" short:"c" type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)" short:"l"`
	Output   string `help:"Output directory" short:"o" type:"path"`
}

// CLI is the command tree
type CLI struct {
	Globals

	Extract ExtractCmd `cmd:"" help:"Extract questions from a review page and export CSV/JSON"`
	Answer  AnswerCmd  `cmd:"" help:"Answer questions with the AI service and score the answers"`
	Compare CompareCmd `cmd:"" help:"Score a saved answers file against the questions"`
	Key     KeyCmd     `cmd:"" help:"Manage the stored AI service secret"`
}

func main() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("examreview"),
		kong.Description("Extract exam review questions, answer them with an AI service and score the result."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
