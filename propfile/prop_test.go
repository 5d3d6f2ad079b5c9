package propfile

import (
	"reflect"
	"testing"
)

func TestParse_Basic(t *testing.T) {
	data := []byte("Save=保存\nSave As = 名前を付けて保存\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("Save"); got != "保存" {
		t.Errorf("Save = %q, want %q", got, "保存")
	}
	if got, _ := f.Get("Save As"); got != "名前を付けて保存" {
		t.Errorf("Save As = %q, want %q", got, "名前を付けて保存")
	}
}

func TestParse_CommentsAndBlanks(t *testing.T) {
	data := []byte("# toolbar\n! legacy comment\n\nkey=value\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Keys()) != 1 {
		t.Errorf("expected 1 key, got %d", len(f.Keys()))
	}
	if f.Entries()[0].Line != 4 {
		t.Errorf("Line = %d, want 4", f.Entries()[0].Line)
	}
}

func TestParse_EscapedSeparators(t *testing.T) {
	data := []byte(`Ratio\: 16\:9 = 比率: 16:9` + "\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := f.Get("Ratio: 16:9"); !ok || got != "比率: 16:9" {
		t.Errorf("Get(Ratio: 16:9) = %q, %v", got, ok)
	}
}

func TestParse_UnicodeEscapes(t *testing.T) {
	f, err := Parse([]byte(`Search=\u691c\u7d22` + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("Search"); got != "検索" {
		t.Errorf("Search = %q, want %q", got, "検索")
	}

	if _, err := Parse([]byte(`bad=\u12`)); err == nil {
		t.Error("expected error for truncated escape")
	}
	if _, err := Parse([]byte(`bad=\uzzzz`)); err == nil {
		t.Error("expected error for non-hex escape")
	}
}

func TestParse_Continuation(t *testing.T) {
	data := []byte("Welcome=ようこそ、\\\n    Framer へ\nNext=次へ\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("Welcome"); got != "ようこそ、Framer へ" {
		t.Errorf("Welcome = %q", got)
	}
	if got := f.Entries()[1].Line; got != 3 {
		t.Errorf("Next line = %d, want 3", got)
	}
}

func TestParse_DuplicateKeepsFirstPosition(t *testing.T) {
	f, err := Parse([]byte("a=1\nb=2\na=3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
	if got, _ := f.Get("a"); got != "3" {
		t.Errorf("a = %q, want %q", got, "3")
	}
}

func TestParse_EmptyKey(t *testing.T) {
	if _, err := Parse([]byte("=value\n")); err == nil {
		t.Error("expected error for empty key")
	}
}
