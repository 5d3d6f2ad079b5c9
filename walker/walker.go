// Package walker applies a translator to every eligible text node and
// attribute under a root element.
package walker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/minios-linux/domlokit/dom"
	"github.com/minios-linux/domlokit/skip"
	"github.com/minios-linux/domlokit/translator"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// DefaultAttributes are the attributes translated by TranslateAttributes.
var DefaultAttributes = []string{"placeholder", "title", "aria-label"}

// Stats counts the work done by one call.
type Stats struct {
	// Visited is the number of non-empty text nodes considered.
	Visited int
	// Changed is the number of text nodes rewritten.
	Changed int
	// AttrsChanged is the number of attribute values rewritten.
	AttrsChanged int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Visited += o.Visited
	s.Changed += o.Changed
	s.AttrsChanged += o.AttrsChanged
}

// Walker ties a translator to a skip policy.
type Walker struct {
	Translator *translator.Translator
	Policy     *skip.Policy
	// Attributes overrides DefaultAttributes when non-nil.
	Attributes []string
	// StrictAttributes also skips attributes of elements inside a skipped
	// subtree. Without it, only the text path consults the policy.
	StrictAttributes bool
	Logger           zerolog.Logger
}

// New returns a walker translating DefaultAttributes.
func New(t *translator.Translator, p *skip.Policy, logger zerolog.Logger) *Walker {
	return &Walker{Translator: t, Policy: p, Logger: logger}
}

func (w *Walker) attributes() []string {
	if w.Attributes != nil {
		return w.Attributes
	}
	return DefaultAttributes
}

// Eligible returns the text nodes under root that may be translated, in
// document order: non-blank and outside every skipped element. A skipped
// root yields nothing.
func (w *Walker) Eligible(root *html.Node) []*html.Node {
	if root == nil || w.Policy.Closest(root) {
		return nil
	}
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if strings.TrimSpace(c.Data) != "" {
					nodes = append(nodes, c)
				}
			case html.ElementNode:
				if !w.Policy.Matches(c) {
					walk(c)
				}
			}
		}
	}
	walk(root)
	return nodes
}

// TranslateSubtree translates the eligible text nodes under root. Nodes are
// collected before the first write. A failed write does not stop the
// remaining nodes; all failures are returned joined.
func (w *Walker) TranslateSubtree(doc dom.Document, root *html.Node) (Stats, error) {
	nodes := w.Eligible(root)
	stats := Stats{Visited: len(nodes)}

	var errs []error
	for _, n := range nodes {
		changed, err := w.Translator.TranslateNode(doc, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			stats.Changed++
		}
	}
	return stats, errors.Join(errs...)
}

// TranslateAttributes translates the configured attributes of every
// descendant of root that carries them. Only exact matches are rewritten.
// The skip policy is consulted only with StrictAttributes.
func (w *Walker) TranslateAttributes(doc dom.Document, root *html.Node) (Stats, error) {
	var stats Stats
	if root == nil {
		return stats, nil
	}

	var errs []error
	sel := goquery.NewDocumentFromNode(root).Selection
	for _, name := range w.attributes() {
		sel.Find("[" + name + "]").Each(func(_ int, s *goquery.Selection) {
			if w.StrictAttributes && w.Policy.Closest(s.Get(0)) {
				return
			}
			value, _ := s.Attr(name)
			out, changed := w.Translator.TranslateAttr(value)
			if !changed {
				return
			}
			if err := doc.SetAttr(s.Get(0), name, out); err != nil {
				errs = append(errs, fmt.Errorf("writing %s=%q: %w", name, value, err))
				return
			}
			stats.AttrsChanged++
		})
	}
	return stats, errors.Join(errs...)
}

// Pass runs TranslateSubtree and then TranslateAttributes over root.
func (w *Walker) Pass(doc dom.Document, root *html.Node) (Stats, error) {
	stats, textErr := w.TranslateSubtree(doc, root)
	attrStats, attrErr := w.TranslateAttributes(doc, root)
	stats.Add(attrStats)

	w.Logger.Debug().
		Int("visited", stats.Visited).
		Int("changed", stats.Changed).
		Int("attrs_changed", stats.AttrsChanged).
		Msg("pass finished")
	return stats, errors.Join(textErr, attrErr)
}
