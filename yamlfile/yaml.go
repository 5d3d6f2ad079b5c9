// Package yamlfile reads YAML translation dictionaries.
//
// Leaf keys are source strings and leaf values their translations. Nested
// mappings only group entries; the group path is kept so callers can pick
// sections out of one file:
//
//	exact:
//	  Save: 保存
//	  Search: 検索
//	phrases:
//	  Save As: 名前を付けて保存
//
// Non-string leaves (numbers, booleans, null) and sequences are ignored.
// Entries keep document order.
package yamlfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one string leaf.
type Entry struct {
	// Group is the dot-joined path of enclosing keys, "" at top level.
	Group string
	// Key is the leaf key, i.e. the source text.
	Key   string
	Value string
	// Line is the 1-based line of the key, for diagnostics.
	Line int
}

// File is a parsed YAML dictionary.
type File struct {
	entries []Entry
}

// ParseFile reads and parses a YAML dictionary file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses YAML data.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	f := &File{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML root must be a mapping, got kind %d", root.Kind)
	}
	f.collect(root, "")
	return f, nil
}

func (f *File) collect(node *yaml.Node, group string) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		switch valNode.Kind {
		case yaml.MappingNode:
			path := keyNode.Value
			if group != "" {
				path = group + "." + path
			}
			f.collect(valNode, path)
		case yaml.ScalarNode:
			switch valNode.Tag {
			case "!!bool", "!!int", "!!float", "!!null":
				continue
			}
			f.entries = append(f.entries, Entry{
				Group: group,
				Key:   keyNode.Value,
				Value: valNode.Value,
				Line:  keyNode.Line,
			})
		}
	}
}

// Entries returns every string leaf in document order.
func (f *File) Entries() []Entry {
	return f.entries
}

// Section returns the leaves under the top-level key name, in document
// order, including nested groups below it.
func (f *File) Section(name string) []Entry {
	var out []Entry
	for _, e := range f.entries {
		if e.Group == name || strings.HasPrefix(e.Group, name+".") {
			out = append(out, e)
		}
	}
	return out
}

// HasSection reports whether any leaf lives under the top-level key name.
func (f *File) HasSection(name string) bool {
	return len(f.Section(name)) > 0
}
