package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/examreview/internal/config"
	"github.com/go-scripts/examreview/internal/export"
	"github.com/go-scripts/examreview/internal/extract"
	"github.com/go-scripts/examreview/internal/logging"
	"github.com/go-scripts/examreview/internal/model"
	"github.com/go-scripts/examreview/internal/source"
	"github.com/go-scripts/examreview/internal/vault"
)

// app carries what every command needs
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func (g *Globals) setup() (*app, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(g.LogLevel)
	}
	if g.Output != "" {
		cfg.OutputDir = g.Output
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)

	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) vault() (*vault.Vault, error) {
	store, err := vault.NewFileStore(a.cfg.VaultPath)
	if err != nil {
		return nil, err
	}
	return vault.New(store, a.logger), nil
}

func (a *app) downloader() (*export.FileDownloader, error) {
	return export.NewFileDownloader(a.cfg.OutputDir)
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	return s
}

// PageFlags select where questions come from
type PageFlags struct {
	URL       string `help:"Review page URL, rendered with a headless browser" short:"u" xor:"source"`
	File      string `help:"Saved review page HTML" short:"f" type:"existingfile" xor:"source"`
	Questions string `help:"Questions JSON written by the extract command" short:"q" type:"existingfile" xor:"source"`
	OnlyWrong bool   `help:"Keep only the questions the page marks as wrong" name:"only-wrong"`
}

// load returns the questions and the exam name used in file names
func (p *PageFlags) load(ctx context.Context, a *app) ([]model.Question, string, error) {
	if p.Questions != "" {
		data, err := os.ReadFile(p.Questions)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read questions: %w", err)
		}
		questions, err := export.ParseJSON(data)
		if err != nil {
			return nil, "", err
		}
		name := strings.TrimSuffix(filepath.Base(p.Questions), filepath.Ext(p.Questions))
		return questions, name, nil
	}

	var (
		loader   source.Loader
		location string
	)
	switch {
	case p.URL != "":
		b := source.NewBrowser(source.BrowserConfig{
			Headless: a.cfg.Browser.Headless,
			Wait:     a.cfg.Browser.Wait,
			Timeout:  a.cfg.Browser.Timeout,
		}, a.logger)
		defer b.Close()
		loader, location = b, p.URL
	case p.File != "":
		loader, location = source.File{}, p.File
	default:
		return nil, "", errors.New("one of --url, --file or --questions is required")
	}

	s := newSpinner("Loading " + location)
	s.Start()
	page, err := loader.Load(ctx, location)
	s.Stop()
	if err != nil {
		return nil, "", err
	}

	root, err := page.Root()
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse page: %w", err)
	}

	questions, err := extract.New(extract.WithLogger(a.logger)).Extract(root, p.OnlyWrong)
	if err != nil {
		return nil, "", err
	}

	a.logger.Info("Questions extracted", "exam", page.ExamName(), "count", len(questions), "only_wrong", p.OnlyWrong)
	for kind, n := range extract.Summarize(questions) {
		a.logger.Debug("Question group", "type", kind, "count", n)
	}
	return questions, page.ExamName(), nil
}

// promptSecret reads one line from in after writing a prompt to out
func promptSecret(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter AI service API key: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	secret := strings.TrimSpace(line)
	if secret == "" {
		return "", vault.ErrNoCredential
	}
	return secret, nil
}

func mask(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:3] + strings.Repeat("*", len(secret)-7) + secret[len(secret)-4:]
}
