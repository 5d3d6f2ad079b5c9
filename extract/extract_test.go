package extract

import (
	"bytes"
	"strings"
	"testing"

	"github.com/minios-linux/domlokit/dom"
	"github.com/minios-linux/domlokit/i18next"
	"github.com/minios-linux/domlokit/pofile"
	"github.com/minios-linux/domlokit/skip"
	"github.com/minios-linux/domlokit/textmatch"
	"golang.org/x/net/html"
)

const page = `<main>
  <div id="toolbar">
    <button class="primary big">Publish</button>
    <button>保存</button>
    <button title="Share">Publish</button>
  </div>
  <p data-domlokit-skip="">Skipped text</p>
  <span>42</span>
  <input placeholder="Search layers">
</main>`

func collect(t *testing.T, src string) *Result {
	t.Helper()
	tree, err := dom.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	body, err := tree.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	e := &Extractor{Policy: skip.Default(), Script: textmatch.MustScript("ja")}
	return e.Collect(body)
}

func TestCollect(t *testing.T) {
	res := collect(t, page)

	var texts []string
	for _, it := range res.Items {
		texts = append(texts, it.Text)
	}
	want := []string{"Publish", "Search layers", "Share"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Fatalf("texts = %q, want %q", texts, want)
	}

	publish := res.Items[0]
	if publish.Count != 2 || !publish.InText || len(publish.Attrs) != 0 {
		t.Fatalf("Publish item = %+v", publish)
	}
	if publish.Location != "main > div#toolbar > button.primary" {
		t.Fatalf("Location = %q", publish.Location)
	}

	search := res.Items[1]
	if search.InText || len(search.Attrs) != 1 || search.Attrs[0] != "placeholder" {
		t.Fatalf("Search layers item = %+v", search)
	}
	if res.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", res.Len())
	}
}

func TestSorted(t *testing.T) {
	res := collect(t, `<p>One</p><p>Two</p><p>Two</p><p>Three</p>`)
	sorted := res.Sorted()
	if sorted[0].Text != "Two" || sorted[1].Text != "One" || sorted[2].Text != "Three" {
		t.Fatalf("Sorted() order = %q, %q, %q", sorted[0].Text, sorted[1].Text, sorted[2].Text)
	}
	if res.Items[0].Text != "One" {
		t.Fatal("Sorted() must not reorder Items")
	}
}

func TestTemplate(t *testing.T) {
	res := collect(t, page)
	var buf bytes.Buffer
	if err := res.Template("framer-ja", "ja").Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	back, err := pofile.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(back.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(back.Entries))
	}
	first := back.Entries[0]
	if first.MsgID != "Publish" || first.MsgStr != "" {
		t.Fatalf("first entry = %+v", first)
	}
	if len(first.ExtractedComments) != 1 || first.ExtractedComments[0] != "seen 2 times" {
		t.Fatalf("ExtractedComments = %q", first.ExtractedComments)
	}
	if got := back.Entries[1].ExtractedComments; len(got) != 1 || got[0] != "attribute: placeholder" {
		t.Fatalf("attribute comment = %q", got)
	}
}

func TestSkeleton(t *testing.T) {
	res := collect(t, page)
	f := res.Skeleton(i18next.Meta{Name: "日本語"})
	_, translated, untranslated := f.Stats()
	if translated != 0 || untranslated != 3 {
		t.Fatalf("Stats() translated=%d untranslated=%d", translated, untranslated)
	}
	if f.Keys()[2] != "Share" {
		t.Fatalf("Keys() = %q", f.Keys())
	}
}

func TestLocation(t *testing.T) {
	if got := Location(nil); got != "" {
		t.Fatalf("Location(nil) = %q", got)
	}
	if got := Location(&html.Node{Type: html.TextNode}); got != "" {
		t.Fatalf("Location(text) = %q", got)
	}
}
