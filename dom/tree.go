package dom

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Tree is an in-memory Document. Structural edits made through its methods
// notify observers synchronously, one batch per call. SetText and SetAttr
// do not notify, matching a child-list-only observer.
//
// A Tree is not safe for concurrent structural edits; callers serialize
// access to the nodes.
type Tree struct {
	root *html.Node

	mu        sync.Mutex
	observers []func([]Mutation)
	ready     chan struct{}
	readyOnce sync.Once
}

// Parse parses an HTML document. The returned tree is already ready.
func Parse(r io.Reader) (*Tree, error) {
	t := NewLoading()
	if err := t.LoadHTML(r); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

// NewLoading returns an empty tree whose Ready channel stays open until
// LoadHTML is called.
func NewLoading() *Tree {
	return &Tree{
		root:  &html.Node{Type: html.DocumentNode},
		ready: make(chan struct{}),
	}
}

// LoadHTML replaces the document content and signals readiness. Loading
// into a tree that is already ready notifies a DocumentReplaced mutation.
func (t *Tree) LoadHTML(r io.Reader) error {
	root, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parsing HTML: %w", err)
	}
	t.root = root
	first := false
	t.readyOnce.Do(func() {
		close(t.ready)
		first = true
	})
	if !first {
		t.notify([]Mutation{{Kind: DocumentReplaced, Target: root}})
	}
	return nil
}

// Root returns the document node.
func (t *Tree) Root() *html.Node {
	return t.root
}

// Body implements Document.
func (t *Tree) Body() (*html.Node, error) {
	if body := FindElement(t.root, "body"); body != nil {
		return body, nil
	}
	return nil, ErrNoBody
}

// SetText implements Document.
func (t *Tree) SetText(n *html.Node, text string) error {
	if n == nil || n.Type != html.TextNode {
		return fmt.Errorf("SetText: not a text node")
	}
	n.Data = text
	return nil
}

// SetAttr implements Document.
func (t *Tree) SetAttr(el *html.Node, name, value string) error {
	if el == nil || el.Type != html.ElementNode {
		return fmt.Errorf("SetAttr %s: not an element", name)
	}
	SetAttribute(el, name, value)
	return nil
}

// Observe implements Document.
func (t *Tree) Observe(fn func([]Mutation)) {
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

// Ready implements Document.
func (t *Tree) Ready() <-chan struct{} {
	return t.ready
}

// AppendChild appends child to parent and notifies observers.
func (t *Tree) AppendChild(parent, child *html.Node) {
	parent.AppendChild(child)
	t.notify([]Mutation{{Kind: ChildList, Target: parent, Added: []*html.Node{child}}})
}

// RemoveChild detaches child from its parent and notifies observers.
func (t *Tree) RemoveChild(child *html.Node) {
	parent := child.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(child)
	t.notify([]Mutation{{Kind: ChildList, Target: parent, Removed: []*html.Node{child}}})
}

// AppendHTML parses fragment in the context of parent, appends the result
// and notifies observers once.
func (t *Tree) AppendHTML(parent *html.Node, fragment string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	t.notify([]Mutation{{Kind: ChildList, Target: parent, Added: nodes}})
	return nodes, nil
}

// Text returns a new text node, for use with AppendChild.
func Text(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// notify delivers the mutations that concern the body. Edits elsewhere in
// the document are discarded.
func (t *Tree) notify(batch []Mutation) {
	batch = slices.DeleteFunc(batch, func(m Mutation) bool {
		return m.Kind == ChildList && !InBody(m.Target)
	})
	if len(batch) == 0 {
		return
	}
	t.mu.Lock()
	observers := slices.Clone(t.observers)
	t.mu.Unlock()
	for _, fn := range observers {
		fn(batch)
	}
}

// Render writes the document as HTML.
func (t *Tree) Render(w io.Writer) error {
	return html.Render(w, t.root)
}

// String renders the document, for tests and diagnostics.
func (t *Tree) String() string {
	var b strings.Builder
	if err := t.Render(&b); err != nil {
		return ""
	}
	return b.String()
}
