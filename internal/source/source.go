// Package source acquires the rendered exam-review page.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-scripts/examreview/internal/document"
)

// Page is a rendered review page
type Page struct {
	HTML  string
	Title string
	URL   string
}

// Root parses the page markup
func (p Page) Root() (document.Node, error) {
	return document.ParseString(p.HTML)
}

// ExamName returns the page title, falling back to the last URL path
// element when the title is empty
func (p Page) ExamName() string {
	if title := strings.TrimSpace(p.Title); title != "" {
		return title
	}
	base := filepath.Base(strings.TrimRight(p.URL, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Loader fetches a page
type Loader interface {
	Load(ctx context.Context, location string) (Page, error)
}

// File loads a page saved to disk
type File struct{}

// Load reads the HTML file at path; the title comes from its <title> element
func (File) Load(ctx context.Context, path string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read page: %w", err)
	}

	page := Page{HTML: string(data), URL: path}
	root, err := page.Root()
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse page %s: %w", path, err)
	}
	if title := root.First("title"); title != nil {
		page.Title = title.Text()
	}
	return page, nil
}
