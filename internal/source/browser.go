package source

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"
)

// ReadySelector is waited for before the page is captured
const ReadySelector = ".group"

// BrowserConfig controls the headless browser
type BrowserConfig struct {
	Headless bool
	Wait     time.Duration
	Timeout  time.Duration
	// ExecPath overrides the browser binary
	ExecPath string
}

// Browser renders pages with a chromedp-driven Chrome. Review pages are
// client-rendered, so the raw HTTP response does not contain the questions.
type Browser struct {
	config        BrowserConfig
	logger        *log.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewBrowser starts a browser context. Close releases it.
func NewBrowser(config BrowserConfig, logger *log.Logger) *Browser {
	if logger == nil {
		logger = log.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", config.Headless),
	)
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &Browser{
		config:        config,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
}

// Close shuts the browser down
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// Load navigates to url, waits for the question groups to render and
// captures the document
func (b *Browser) Load(ctx context.Context, url string) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, b.config.Timeout)
	defer timeoutCancel()

	stop := context.AfterFunc(ctx, timeoutCancel)
	defer stop()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
	}
	if b.config.Wait > 0 {
		tasks = append(tasks, chromedp.Sleep(b.config.Wait))
	}

	start := time.Now()
	b.logger.Info("Loading page", "url", url)
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return Page{}, fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	page := Page{URL: url}
	if err := chromedp.Run(timeoutCtx, chromedp.Title(&page.Title)); err != nil {
		b.logger.Warn("Error getting title", "url", url, "err", err)
	}
	if err := chromedp.Run(timeoutCtx, chromedp.OuterHTML("html", &page.HTML)); err != nil {
		return Page{}, fmt.Errorf("failed to capture %s: %w", url, err)
	}

	b.logger.Info("Page loaded", "url", url, "title", page.Title, "bytes", len(page.HTML), "elapsed", time.Since(start).Round(time.Millisecond))
	return page, nil
}
