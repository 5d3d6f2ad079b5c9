// Package extract reports the strings a pass left untranslated, so the gaps
// can be filled in a dictionary.
//
// Strings are deduplicated by their trimmed text and kept in the order they
// were first seen. The report can be written as a gettext template or as an
// i18next skeleton with empty values.
package extract

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/minios-linux/domlokit/i18next"
	"github.com/minios-linux/domlokit/pofile"
	"github.com/minios-linux/domlokit/skip"
	"github.com/minios-linux/domlokit/textmatch"
	"github.com/minios-linux/domlokit/walker"
	"golang.org/x/net/html"
)

// Item is one untranslated string.
type Item struct {
	Text string
	// Count is the number of places the string was seen.
	Count int
	// Location is a selector-like path to the first occurrence.
	Location string
	// InText is true when the string occurred as node text.
	InText bool
	// Attrs lists the attribute names the string occurred in.
	Attrs []string
}

// Result holds the collected items.
type Result struct {
	Items []*Item
	index map[string]*Item
}

// Extractor collects untranslated strings with the same eligibility rules
// as a walker.
type Extractor struct {
	Policy *skip.Policy
	Script *textmatch.Script
	// Attributes overrides walker.DefaultAttributes when non-nil.
	Attributes       []string
	StrictAttributes bool
}

// Collect walks root and returns the strings that still need translating.
func (e *Extractor) Collect(root *html.Node) *Result {
	res := &Result{index: make(map[string]*Item)}
	if root == nil {
		return res
	}

	w := &walker.Walker{Policy: e.Policy}
	for _, n := range w.Eligible(root) {
		e.add(res, n.Data, "", n.Parent)
	}

	attrs := e.Attributes
	if attrs == nil {
		attrs = walker.DefaultAttributes
	}
	sel := goquery.NewDocumentFromNode(root).Selection
	for _, name := range attrs {
		sel.Find("[" + name + "]").Each(func(_ int, s *goquery.Selection) {
			el := s.Get(0)
			if e.StrictAttributes && e.Policy.Closest(el) {
				return
			}
			value, _ := s.Attr(name)
			e.add(res, value, name, el)
		})
	}

	return res
}

// hasLetter reports whether s contains any letter. Numbers and punctuation
// alone are not worth translating.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func (e *Extractor) add(r *Result, raw, attr string, el *html.Node) {
	text := strings.TrimSpace(raw)
	if text == "" || !hasLetter(text) || e.Script.AlreadyLocalized(text) {
		return
	}
	it, ok := r.index[text]
	if !ok {
		it = &Item{Text: text, Location: Location(el)}
		r.index[text] = it
		r.Items = append(r.Items, it)
	}
	it.Count++
	if attr == "" {
		it.InText = true
		return
	}
	for _, a := range it.Attrs {
		if a == attr {
			return
		}
	}
	it.Attrs = append(it.Attrs, attr)
}

// Location renders a path such as "main > div#toolbar > button.primary"
// from the body down to el.
func Location(el *html.Node) string {
	if el == nil || el.Type != html.ElementNode {
		return ""
	}
	s := goquery.NewDocumentFromNode(el).Selection
	parts := []string{step(s)}
	s.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if name := goquery.NodeName(p); name == "body" || name == "html" {
			return false
		}
		parts = append(parts, step(p))
		return true
	})
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func step(s *goquery.Selection) string {
	name := goquery.NodeName(s)
	if id, ok := s.Attr("id"); ok && id != "" {
		return name + "#" + id
	}
	if class, ok := s.Attr("class"); ok {
		if fields := strings.Fields(class); len(fields) > 0 {
			return name + "." + fields[0]
		}
	}
	return name
}

// Len returns the number of distinct strings.
func (r *Result) Len() int {
	return len(r.Items)
}

// Sorted returns the items by descending count, ties in first-seen order.
func (r *Result) Sorted() []*Item {
	out := append([]*Item(nil), r.Items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Template renders the items as a PO template.
func (r *Result) Template(project, lang string) *pofile.File {
	f := pofile.NewTemplate(project, lang)
	for _, it := range r.Items {
		e := &pofile.Entry{MsgID: it.Text}
		if it.Location != "" {
			e.References = []string{it.Location}
		}
		if it.Count > 1 {
			e.ExtractedComments = append(e.ExtractedComments, fmt.Sprintf("seen %d times", it.Count))
		}
		if len(it.Attrs) > 0 {
			e.ExtractedComments = append(e.ExtractedComments, "attribute: "+strings.Join(it.Attrs, ", "))
		}
		f.Entries = append(f.Entries, e)
	}
	return f
}

// Skeleton renders the items as an i18next file with empty translations.
func (r *Result) Skeleton(meta i18next.Meta) *i18next.File {
	f := i18next.New(meta)
	for _, it := range r.Items {
		f.Set(it.Text, "")
	}
	return f
}
