package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_DuplicatesKeepFirstPosition(t *testing.T) {
	b := NewBuilder()
	b.AddExact("Save", "セーブ")
	b.AddExact("Search", "検索")
	b.AddExact("Save", "保存")
	b.AddExact("Publish", "")
	b.AddPhrase("", "空")

	d := b.Build()
	assert.Equal(t, []string{"Save", "Search"}, d.ExactKeys())
	got, ok := d.Lookup("Save")
	require.True(t, ok)
	assert.Equal(t, "保存", got)

	_, ok = d.Lookup("Publish")
	assert.False(t, ok, "empty targets are not translations")
	assert.Equal(t, 2, b.Ignored())
	assert.Equal(t, 2, d.Len())
}

func TestBuild_PhraseOrder(t *testing.T) {
	b := NewBuilder()
	b.AddPhrase("Save", "保存")
	b.AddPhrase("Save As", "名前を付けて保存")
	b.AddPhrase("Undo", "元に戻す")

	assert.Equal(t, []Entry{
		{"Save", "保存"}, {"Save As", "名前を付けて保存"}, {"Undo", "元に戻す"},
	}, b.Build().Phrases())

	b.SetPhraseOrder(OrderLongestFirst)
	d := b.Build()
	assert.Equal(t, []Entry{
		{"Save As", "名前を付けて保存"}, {"Save", "保存"}, {"Undo", "元に戻す"},
	}, d.Phrases())
	assert.Empty(t, d.Shadowed())
}

func TestShadowed(t *testing.T) {
	b := NewBuilder()
	b.AddPhrase("Save", "保存")
	b.AddPhrase("Save As", "名前を付けて保存")
	b.AddPhrase("Auto Save As", "自動保存")

	shadows := b.Build().Shadowed()
	require.Len(t, shadows, 2)
	assert.Equal(t, Shadow{Phrase: "Save As", By: "Save"}, shadows[0])
	assert.Equal(t, Shadow{Phrase: "Auto Save As", By: "Save"}, shadows[1])
	assert.Contains(t, shadows[0].String(), `"Save" is applied before "Save As"`)
}

func TestParseNames(t *testing.T) {
	o, err := ParsePhraseOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderFile, o)
	_, err = ParsePhraseOrder("shortest")
	assert.Error(t, err)

	k, err := ParseKind("phrases")
	require.NoError(t, err)
	assert.Equal(t, KindPhrase, k)
	_, err = ParseKind("fuzzy")
	assert.Error(t, err)

	_, err = ParseFormat("xliff")
	assert.Error(t, err)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"i18next", "exact.ja.json", `{"translations": {"Save": "保存", "Search": "検索"}}`},
		{"flat json", "exact.ja.json", `{"Save": "保存", "Search": "検索"}`},
		{"po", "exact.ja.po", "msgid \"Save\"\nmsgstr \"保存\"\n\nmsgid \"Search\"\nmsgstr \"検索\"\n"},
		{"yaml", "exact.ja.yaml", "Save: 保存\nSearch: 検索\n"},
		{"properties", "exact.ja.properties", "Save = 保存\nSearch = 検索\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			n, err := b.Load(writeFile(t, tt.file, tt.content), KindExact, "")
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, []string{"Save", "Search"}, b.Build().ExactKeys())
		})
	}
}

func TestLoad_YAMLSections(t *testing.T) {
	path := writeFile(t, "dict.yaml", `exact:
  Save: 保存
phrases:
  Save As: 名前を付けて保存
`)
	b := NewBuilder()
	n, err := b.Load(path, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	d := b.Build()
	assert.Equal(t, []string{"Save"}, d.ExactKeys())
	assert.Equal(t, []Entry{{"Save As", "名前を付けて保存"}}, d.Phrases())
}

func TestLoad_Errors(t *testing.T) {
	b := NewBuilder()

	_, err := b.Load(writeFile(t, "dict.txt", "Save=保存"), KindExact, "")
	assert.ErrorContains(t, err, "cannot detect dictionary format")

	_, err = b.Load(writeFile(t, "dict.json", `{"Save": "保存"}`), "", "")
	assert.ErrorContains(t, err, "kind is required")

	_, err = b.Load(writeFile(t, "dict.yaml", "exact:\n  Save: 保存\nstray: x\n"), "", "")
	assert.ErrorContains(t, err, `entry "stray" is outside`)

	_, err = b.Load(filepath.Join(t.TempDir(), "missing.json"), KindExact, "")
	assert.Error(t, err)
}
