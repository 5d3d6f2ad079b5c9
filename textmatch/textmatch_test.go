package textmatch

import (
	"errors"
	"regexp"
	"testing"
)

func TestScriptFor(t *testing.T) {
	tests := []struct {
		lang string
		code string
	}{
		{"ja", "Jpan"},
		{"ja_JP", "Jpan"},
		{"zh-Hant", "Hant"},
		{"zh", "Hans"},
		{"ko", "Kore"},
		{"ru", "Cyrl"},
	}
	for _, tc := range tests {
		s, err := ScriptFor(tc.lang)
		if err != nil {
			t.Fatalf("ScriptFor(%q) error: %v", tc.lang, err)
		}
		if s.Code != tc.code {
			t.Fatalf("ScriptFor(%q).Code = %q, want %q", tc.lang, s.Code, tc.code)
		}
	}
}

func TestScriptFor_LatinRejected(t *testing.T) {
	_, err := ScriptFor("de")
	if !errors.Is(err, ErrLatinScript) {
		t.Fatalf("ScriptFor(de) error = %v, want ErrLatinScript", err)
	}
}

func TestAlreadyLocalized(t *testing.T) {
	ja := MustScript("ja")
	tests := []struct {
		text string
		want bool
	}{
		{"Save", false},
		{"保存", true},
		{"Save 保存", true},
		{"ひらがな", true},
		{"カタカナ", true},
		{"한국어", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := ja.AlreadyLocalized(tc.text); got != tc.want {
			t.Fatalf("AlreadyLocalized(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}

	var none *Script
	if none.AlreadyLocalized("保存") {
		t.Fatal("nil Script should never match")
	}
}

func TestEscapeForPattern(t *testing.T) {
	keys := []string{"a.b", "(beta)", "50% off", "C++", "[x]", `back\slash`, "$5 ^ up?"}
	for _, k := range keys {
		re := regexp.MustCompile("^" + EscapeForPattern(k) + "$")
		if !re.MatchString(k) {
			t.Fatalf("escaped pattern for %q does not match itself", k)
		}
	}
	if regexp.MustCompile(EscapeForPattern("a.b")).MatchString("axb") {
		t.Fatal("escaped dot should not match arbitrary characters")
	}
}

func TestApply_PhraseReplacesAllOccurrences(t *testing.T) {
	rules := []Rule{PhraseRule("Save As", "名前を付けて保存")}
	got, changed := Apply("Save As / Save As", rules)
	if !changed {
		t.Fatal("expected change")
	}
	if got != "名前を付けて保存 / 名前を付けて保存" {
		t.Fatalf("Apply() = %q", got)
	}
}

func TestApply_WordBoundaries(t *testing.T) {
	rules := []Rule{WordRule("Page", "ページ")}

	got, changed := Apply("Page Pages page", rules)
	if !changed || got != "ページ Pages page" {
		t.Fatalf("Apply() = %q, %v", got, changed)
	}

	got, changed = Apply("Homepage", rules)
	if changed || got != "Homepage" {
		t.Fatalf("Apply(Homepage) = %q, %v; want untouched", got, changed)
	}
}

func TestApply_ReplacementIsLiteral(t *testing.T) {
	rules := []Rule{PhraseRule("Price", "$1 価格")}
	got, _ := Apply("Price", rules)
	if got != "$1 価格" {
		t.Fatalf("Apply() = %q, want literal replacement", got)
	}
}

func TestApply_NoMatch(t *testing.T) {
	got, changed := Apply("Nothing here", []Rule{PhraseRule("Save", "保存"), WordRule("Open", "開く")})
	if changed || got != "Nothing here" {
		t.Fatalf("Apply() = %q, %v", got, changed)
	}
}
