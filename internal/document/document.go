// Package document exposes the small structured-document query capability
// the extractor needs: descendant lookup by CSS selector and trimmed text.
//
// Queries are answered by goquery, so any selector cascadia understands is
// accepted. An invalid selector matches nothing.
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is a handle into a parsed document tree
type Node interface {
	// Find returns all descendants matching selector, in document order.
	Find(selector string) []Node
	// First returns the first descendant matching selector, or nil.
	First(selector string) Node
	// Text returns the trimmed text content of the node and its descendants.
	Text() string
	// HasClass reports whether the node carries the given class.
	HasClass(name string) bool
}

// Parse reads an HTML document and returns its root node
func Parse(r io.Reader) (Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &selection{s: goquery.NewDocumentFromNode(root).Selection}, nil
}

// ParseString is Parse for in-memory markup
func ParseString(markup string) (Node, error) {
	return Parse(strings.NewReader(markup))
}

// selection wraps a goquery selection holding exactly one node
type selection struct {
	s *goquery.Selection
}

func (n *selection) Find(selector string) []Node {
	var found []Node
	n.s.Find(selector).Each(func(_ int, s *goquery.Selection) {
		found = append(found, &selection{s: s})
	})
	return found
}

func (n *selection) First(selector string) Node {
	match := n.s.Find(selector).First()
	if match.Length() == 0 {
		return nil
	}
	return &selection{s: match}
}

func (n *selection) Text() string {
	return strings.TrimSpace(n.s.Text())
}

func (n *selection) HasClass(name string) bool {
	return n.s.HasClass(name)
}
