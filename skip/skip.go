// Package skip defines which elements must never have their text or
// attributes rewritten.
//
// The selector lists are data. The product-specific presets in particular
// mirror one application's generated class names and must be revisited
// whenever that markup changes.
package skip

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Non-content elements: scripts, code blocks and form controls.
var NonContent = []string{
	"script",
	"style",
	"noscript",
	"code",
	"pre",
	"textarea",
	"input",
	"select",
	"option",
}

// OptOut lists explicit "do not localize" markers.
var OptOut = []string{
	"[data-framer-ja-skip]",
	"[data-domlokit-skip]",
	`[translate="no"]`,
}

// Editable lists user-authored or inline-editing content.
var Editable = []string{
	`[contenteditable="true"]`,
	".editing",
}

// Embedded lists nested documents and preview surfaces.
var Embedded = []string{
	`[data-testid="canvas-iframe"]`,
	`[data-testid="preview-iframe"]`,
	"iframe",
	"canvas",
}

// Presets are product-specific UI chrome, keyed by product name.
var Presets = map[string][]string{
	"framer": {
		".t3suiwm", // page/layer names
		".n17gpdk2",
		`[data-testid="page-row"] .t3suiwm`,
		".t1fxejbk", // project title
		".h112jo8h", // URL display
		".tarvkue",  // search input
		".phdad7q",
		`[class*="PropertyValue"]`,
		`[class*="EditableText"]`,
		".szey606",
	},
}

// Defaults returns the generic selector groups in evaluation order.
func Defaults() []string {
	var out []string
	for _, group := range [][]string{NonContent, OptOut, Editable, Embedded} {
		out = append(out, group...)
	}
	return out
}

// Policy is an ordered, compiled set of skip selectors.
type Policy struct {
	selectors []string
	compiled  []cascadia.Selector
}

// Compile parses selectors into a Policy.
func Compile(selectors []string) (*Policy, error) {
	p := &Policy{
		selectors: make([]string, 0, len(selectors)),
		compiled:  make([]cascadia.Selector, 0, len(selectors)),
	}
	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("invalid skip selector %q: %w", s, err)
		}
		p.selectors = append(p.selectors, s)
		p.compiled = append(p.compiled, sel)
	}
	return p, nil
}

// Default compiles Defaults().
func Default() *Policy {
	p, err := Compile(Defaults())
	if err != nil {
		panic(err)
	}
	return p
}

// PresetSelectors returns the selectors of the named presets in order.
func PresetSelectors(names ...string) ([]string, error) {
	var out []string
	for _, name := range names {
		preset, ok := Presets[name]
		if !ok {
			return nil, fmt.Errorf("unknown skip preset %q", name)
		}
		out = append(out, preset...)
	}
	return out, nil
}

// WithPresets returns the default selectors followed by the named presets.
func WithPresets(names ...string) ([]string, error) {
	presets, err := PresetSelectors(names...)
	if err != nil {
		return nil, err
	}
	return append(Defaults(), presets...), nil
}

// Selectors returns the source selectors in order.
func (p *Policy) Selectors() []string {
	return p.selectors
}

// Matches reports whether el itself matches any selector. Non-element nodes
// never match.
func (p *Policy) Matches(el *html.Node) bool {
	if p == nil || el == nil || el.Type != html.ElementNode {
		return false
	}
	for _, sel := range p.compiled {
		if sel.Match(el) {
			return true
		}
	}
	return false
}

// Closest reports whether n or any of its ancestors matches, up to the
// document root.
func (p *Policy) Closest(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if p.Matches(cur) {
			return true
		}
	}
	return false
}
