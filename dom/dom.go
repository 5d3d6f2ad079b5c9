// Package dom defines the document view the localizer works against and an
// in-memory implementation over golang.org/x/net/html.
//
// Nodes are always *html.Node. A live browser document keeps an html.Node
// mirror of the page and forwards writes to the browser; an in-memory Tree
// writes to the nodes directly.
package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoBody is returned by Body when the document has no body element yet.
var ErrNoBody = errors.New("document has no body")

// MutationKind classifies a mutation record.
type MutationKind int

const (
	// ChildList is a change to an element's children anywhere in the
	// observed subtree. Character data and attribute changes are not
	// reported.
	ChildList MutationKind = iota + 1
	// DocumentReplaced means the whole document was swapped out, as after
	// a navigation inside the tab. A pass never causes it.
	DocumentReplaced
)

func (k MutationKind) String() string {
	switch k {
	case ChildList:
		return "childList"
	case DocumentReplaced:
		return "documentReplaced"
	}
	return "unknown"
}

// Mutation is one observed change.
type Mutation struct {
	Kind    MutationKind
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

// Document is the capability the localizer needs from a page.
type Document interface {
	// Body returns the body element. Nodes reachable from it are valid
	// arguments to SetText and SetAttr until the next mutation batch.
	Body() (*html.Node, error)
	// SetText replaces the content of a text node.
	SetText(n *html.Node, text string) error
	// SetAttr sets an attribute on an element.
	SetAttr(el *html.Node, name, value string) error
	// Observe registers fn for child-list mutations in the body subtree and
	// for document replacement. Edits outside the body (a <style> added to
	// <head>) are not reported. There is no way to unregister.
	Observe(fn func([]Mutation))
	// Ready is closed once the document has finished loading.
	Ready() <-chan struct{}
}

// InBody reports whether n is the body element or one of its descendants.
func InBody(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && cur.Data == "body" {
			return true
		}
	}
	return false
}

// Attr returns the value of the named attribute of el.
func Attr(el *html.Node, name string) (string, bool) {
	if el == nil || el.Type != html.ElementNode {
		return "", false
	}
	for _, a := range el.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute sets or appends an attribute on el in place.
func SetAttribute(el *html.Node, name, value string) {
	for i, a := range el.Attr {
		if a.Namespace == "" && a.Key == name {
			el.Attr[i].Val = value
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: name, Val: value})
}

// TextContent concatenates the text nodes under n in document order.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			} else {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// FindElement returns the first element named tag under n, depth first.
func FindElement(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return b.String()
		}
	}
	return b.String()
}
