package translator

import (
	"errors"
	"testing"

	"github.com/minios-linux/domlokit/dictionary"
	"github.com/minios-linux/domlokit/dom"
	"github.com/minios-linux/domlokit/textmatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newTranslator(exact, phrases [][2]string) *Translator {
	b := dictionary.NewBuilder()
	for _, e := range exact {
		b.AddExact(e[0], e[1])
	}
	for _, p := range phrases {
		b.AddPhrase(p[0], p[1])
	}
	return New(b.Build(), textmatch.MustScript("ja"))
}

func TestTranslateText(t *testing.T) {
	tr := newTranslator(
		[][2]string{{"Save", "保存"}, {"Search", "検索"}, {"Layer", "レイヤー"}, {"All", "すべて"}},
		[][2]string{{"Save As", "名前を付けて保存"}, {"Select All", "すべて選択"}},
	)

	tests := []struct {
		name    string
		in      string
		want    string
		changed bool
	}{
		{"exact", "Save", "保存", true},
		{"exact keeps surrounding whitespace", "  Search\n", "  検索\n", true},
		{"phrase before word", "Save As", "名前を付けて保存", true},
		{"phrase inside sentence", "Click Save As to copy", "Click 名前を付けて保存 to copy", true},
		{"phrase replaces every occurrence", "Select All / Select All", "すべて選択 / すべて選択", true},
		{"word pass", "New Layer", "New レイヤー", true},
		{"whole words only", "Saved Layers", "Saved Layers", false},
		{"already localized", "保存 Save", "保存 Save", false},
		{"blank", "   ", "   ", false},
		{"no match", "Publish", "Publish", false},
		{"several words", "Save Search", "保存 検索", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := tr.TranslateText(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestTranslateText_ExactPrecedence(t *testing.T) {
	// "Save As" is an exact key and also contains the phrase "Save".
	tr := newTranslator(
		[][2]string{{"Save As", "名前を付けて保存"}},
		[][2]string{{"Save", "保存"}},
	)
	got, changed := tr.TranslateText("Save As")
	assert.True(t, changed)
	assert.Equal(t, "名前を付けて保存", got)
}

func TestTranslateText_Idempotent(t *testing.T) {
	tr := newTranslator(
		[][2]string{{"Save", "保存"}, {"Layer", "レイヤー"}},
		[][2]string{{"Save As", "名前を付けて保存"}},
	)
	for _, in := range []string{"Save", "Save As", "New Layer", " Save As now "} {
		once, _ := tr.TranslateText(in)
		twice, changed := tr.TranslateText(once)
		assert.False(t, changed, "second pass over %q changed it", once)
		assert.Equal(t, once, twice)
	}
}

func TestTranslateText_MetacharactersAreLiteral(t *testing.T) {
	tr := newTranslator(
		[][2]string{{"Size", "$1 サイズ"}},
		[][2]string{{"(Beta)", "(ベータ)"}, {"a.b", "エー・ビー"}},
	)
	got, _ := tr.TranslateText("Feature (Beta) axb a.b")
	assert.Equal(t, "Feature (ベータ) axb エー・ビー", got)

	got, _ = tr.TranslateText("Font Size")
	assert.Equal(t, "Font $1 サイズ", got)
}

func TestTranslateAttr(t *testing.T) {
	tr := newTranslator([][2]string{{"Search", "検索"}}, [][2]string{{"Search", "さがす"}})

	got, changed := tr.TranslateAttr("Search")
	assert.True(t, changed)
	assert.Equal(t, "検索", got)

	for _, v := range []string{"", "検索", "Search here", " Search "} {
		got, changed = tr.TranslateAttr(v)
		assert.False(t, changed, "value %q", v)
		assert.Equal(t, v, got)
	}
}

type failingDoc struct {
	dom.Document
}

func (failingDoc) SetText(*html.Node, string) error {
	return errors.New("node detached")
}

func TestTranslateNode(t *testing.T) {
	tr := newTranslator([][2]string{{"Save", "保存"}}, nil)
	tree, err := dom.ParseString(`<p>Save</p><p>Publish</p>`)
	require.NoError(t, err)
	body, err := tree.Body()
	require.NoError(t, err)

	first := body.FirstChild.FirstChild
	changed, err := tr.TranslateNode(tree, first)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "保存", first.Data)

	second := body.LastChild.FirstChild
	changed, err = tr.TranslateNode(tree, second)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = tr.TranslateNode(tree, body)
	require.NoError(t, err)
	assert.False(t, changed, "elements are ignored")

	third := dom.Text("Save")
	changed, err = tr.TranslateNode(failingDoc{tree}, third)
	assert.False(t, changed)
	assert.ErrorContains(t, err, `writing text "Save": node detached`)
	assert.Equal(t, "Save", third.Data)
}
