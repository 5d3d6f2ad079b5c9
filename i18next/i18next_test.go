package i18next

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_NestedLayoutPreservesOrder(t *testing.T) {
	data := []byte(`{
  "_meta": {"name": "日本語", "flag": "JP"},
  "translations": {
    "Save As": "名前を付けて保存",
    "Save": "保存",
    "Publish": ""
  }
}`)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if f.Meta.Name != "日本語" {
		t.Fatalf("Meta.Name = %q", f.Meta.Name)
	}
	want := []string{"Save As", "Save", "Publish"}
	if got := f.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	total, translated, untranslated := f.Stats()
	if total != 3 || translated != 2 || untranslated != 1 {
		t.Fatalf("Stats() = %d/%d/%d", total, translated, untranslated)
	}
}

func TestParse_FlatLayout(t *testing.T) {
	f, err := Parse([]byte(`{"Search": "検索", "Home": "ホーム"}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := f.Keys(); !reflect.DeepEqual(got, []string{"Search", "Home"}) {
		t.Fatalf("Keys() = %v", got)
	}
	if f.Translations["Home"] != "ホーム" {
		t.Fatalf("Home = %q", f.Translations["Home"])
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		`{"broken":`,
		`["not", "an", "object"]`,
		`{"count": 3}`,
		`{"translations": {"a": {"nested": "x"}}}`,
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c)); err == nil {
			t.Fatalf("Parse(%s) expected error", c)
		}
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	f := New(Meta{Name: "日本語", Flag: "JP"})
	f.Set("Open <file>", "")
	f.Set("Save", "保存")
	f.Set("Open <file>", "ファイルを開く")

	out := string(f.Marshal())
	if !strings.Contains(out, `"Open <file>": "ファイルを開く"`) {
		t.Fatalf("Marshal output should not HTML-escape:\n%s", out)
	}

	back, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("Parse(Marshal()) error: %v", err)
	}
	if got := back.Keys(); !reflect.DeepEqual(got, []string{"Open <file>", "Save"}) {
		t.Fatalf("Keys after round trip = %v", got)
	}
}
