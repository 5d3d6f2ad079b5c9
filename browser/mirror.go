package browser

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CDP node types.
const (
	nodeElement  = 1
	nodeText     = 3
	nodeComment  = 8
	nodeDocument = 9
	nodeDoctype  = 10
)

// mirror is an html.Node copy of a CDP document with the node ids needed
// to write back.
type mirror struct {
	root  *html.Node
	ids   map[*html.Node]proto.DOMNodeID
	nodes map[proto.DOMNodeID]*html.Node
}

// buildMirror converts the tree returned by DOM.getDocument. Nested
// documents (iframes) and shadow roots are not descended into.
func buildMirror(root *proto.DOMNode) *mirror {
	m := &mirror{
		ids:   make(map[*html.Node]proto.DOMNodeID),
		nodes: make(map[proto.DOMNodeID]*html.Node),
	}
	m.root = m.convert(root)
	if m.root == nil {
		m.root = &html.Node{Type: html.DocumentNode}
	}
	return m
}

func (m *mirror) convert(n *proto.DOMNode) *html.Node {
	if n == nil {
		return nil
	}

	var out *html.Node
	switch n.NodeType {
	case nodeDocument:
		out = &html.Node{Type: html.DocumentNode}
	case nodeElement:
		name := n.LocalName
		if name == "" {
			name = strings.ToLower(n.NodeName)
		}
		out = &html.Node{Type: html.ElementNode, Data: name, DataAtom: atom.Lookup([]byte(name))}
		for i := 0; i+1 < len(n.Attributes); i += 2 {
			out.Attr = append(out.Attr, html.Attribute{Key: n.Attributes[i], Val: n.Attributes[i+1]})
		}
	case nodeText:
		out = &html.Node{Type: html.TextNode, Data: n.NodeValue}
	case nodeComment:
		out = &html.Node{Type: html.CommentNode, Data: n.NodeValue}
	case nodeDoctype:
		out = &html.Node{Type: html.DoctypeNode, Data: strings.ToLower(n.NodeName)}
	default:
		return nil
	}

	m.ids[out] = n.NodeID
	m.nodes[n.NodeID] = out
	for _, c := range n.Children {
		if child := m.convert(c); child != nil {
			out.AppendChild(child)
		}
	}
	return out
}
