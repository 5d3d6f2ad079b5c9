package skip

import (
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("html.Parse() error: %v", err)
	}
	return doc
}

func find(t *testing.T, doc *html.Node, sel string) *html.Node {
	t.Helper()
	n := cascadia.MustCompile(sel).MatchFirst(doc)
	if n == nil {
		t.Fatalf("selector %q matched nothing", sel)
	}
	return n
}

func TestDefaultCategories(t *testing.T) {
	doc := parse(t, `<body>
<div id="plain">Save</div>
<code id="code">Save</code>
<div data-framer-ja-skip id="optout"><span id="inner">Save</span></div>
<div contenteditable="true" id="edit">Save</div>
<div contenteditable="false" id="noedit">Save</div>
<select id="sel"><option id="opt">Save</option></select>
<canvas id="cv"></canvas>
</body>`)
	p := Default()

	tests := []struct {
		sel  string
		want bool
	}{
		{"#plain", false},
		{"#code", true},
		{"#optout", true},
		{"#inner", true}, // via ancestor
		{"#edit", true},
		{"#noedit", false},
		{"#opt", true},
		{"#cv", true},
	}
	for _, tc := range tests {
		if got := p.Closest(find(t, doc, tc.sel)); got != tc.want {
			t.Fatalf("Closest(%s) = %v, want %v", tc.sel, got, tc.want)
		}
	}

	if p.Matches(find(t, doc, "#inner")) {
		t.Fatal("Matches(#inner) should only test the element itself")
	}
}

func TestClosest_TextNodeUsesParentChain(t *testing.T) {
	doc := parse(t, `<body><pre><b id="b">x</b></pre></body>`)
	text := find(t, doc, "#b").FirstChild
	if text == nil || text.Type != html.TextNode {
		t.Fatal("expected text node child")
	}
	if !Default().Closest(text) {
		t.Fatal("text under <pre> should be skipped")
	}
}

func TestWithPresets(t *testing.T) {
	sels, err := WithPresets("framer")
	if err != nil {
		t.Fatalf("WithPresets() error: %v", err)
	}
	p, err := Compile(sels)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	doc := parse(t, `<body><div class="x PropertyValue-abc" id="pv">Fill</div><div class="t1fxejbk" id="title">My</div></body>`)
	if !p.Closest(find(t, doc, "#pv")) || !p.Closest(find(t, doc, "#title")) {
		t.Fatal("framer preset selectors should match")
	}

	if _, err := WithPresets("nope"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestCompile_InvalidSelector(t *testing.T) {
	_, err := Compile([]string{"div", "[unclosed"})
	if err == nil || !strings.Contains(err.Error(), "[unclosed") {
		t.Fatalf("Compile() error = %v, want error naming selector", err)
	}
}

func TestNilPolicy(t *testing.T) {
	var p *Policy
	doc := parse(t, `<body><code>x</code></body>`)
	if p.Closest(find(t, doc, "code")) {
		t.Fatal("nil policy should skip nothing")
	}
}
