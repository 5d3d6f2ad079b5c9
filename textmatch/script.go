// Package textmatch holds the string-level pieces of localization: the
// target-script heuristic used as an idempotence guard, pattern escaping,
// and the pure rule-substitution function used by the node translator.
package textmatch

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// ErrLatinScript is returned for targets written in Latin script. The
// already-localized guard relies on the target script differing from the
// source script, which does not hold for these targets.
var ErrLatinScript = errors.New("target language uses Latin script")

// Script is the set of Unicode ranges that mark text as already written
// in the target language.
type Script struct {
	// Code is the ISO 15924 code, e.g. "Jpan".
	Code  string
	table *unicode.RangeTable
}

// japanese matches the ranges used by the original Framer content script:
// Hiragana, Katakana and the CJK Unified Ideographs block up to U+9FAF.
var japanese = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3040, Hi: 0x309F, Stride: 1},
		{Lo: 0x30A0, Hi: 0x30FF, Stride: 1},
		{Lo: 0x4E00, Hi: 0x9FAF, Stride: 1},
	},
}

var scriptTables = map[string]*unicode.RangeTable{
	"Jpan": japanese,
	"Hans": unicode.Han,
	"Hant": unicode.Han,
	"Hani": unicode.Han,
	"Kore": unicode.Hangul,
	"Hang": unicode.Hangul,
	"Cyrl": unicode.Cyrillic,
	"Grek": unicode.Greek,
	"Arab": unicode.Arabic,
	"Hebr": unicode.Hebrew,
	"Thai": unicode.Thai,
	"Deva": unicode.Devanagari,
	"Geor": unicode.Georgian,
	"Armn": unicode.Armenian,
}

// ScriptFor resolves a BCP 47 language tag ("ja", "zh-Hant", "ru_RU") to
// its script heuristic.
func ScriptFor(lang string) (*Script, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
	if err != nil {
		return nil, fmt.Errorf("parsing language %q: %w", lang, err)
	}

	sc, _ := tag.Script()
	code := sc.String()
	if code == "Latn" {
		return nil, fmt.Errorf("%s: %w", lang, ErrLatinScript)
	}

	table, ok := scriptTables[code]
	if !ok {
		return nil, fmt.Errorf("no script ranges known for %q (script %s)", lang, code)
	}
	return &Script{Code: code, table: table}, nil
}

// MustScript is like ScriptFor but panics on error. Intended for tests and
// package-level defaults.
func MustScript(lang string) *Script {
	s, err := ScriptFor(lang)
	if err != nil {
		panic(err)
	}
	return s
}

// AlreadyLocalized reports whether text contains any rune in the target
// script. A nil Script never matches.
func (s *Script) AlreadyLocalized(text string) bool {
	if s == nil {
		return false
	}
	for _, r := range text {
		if unicode.Is(s.table, r) {
			return true
		}
	}
	return false
}
