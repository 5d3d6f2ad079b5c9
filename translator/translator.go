// Package translator rewrites single text nodes and attribute values
// against a dictionary.
package translator

import (
	"fmt"
	"strings"

	"github.com/minios-linux/domlokit/dictionary"
	"github.com/minios-linux/domlokit/dom"
	"github.com/minios-linux/domlokit/textmatch"
	"golang.org/x/net/html"
)

// Translator applies one dictionary for one target script. It is safe for
// concurrent use.
type Translator struct {
	dict    *dictionary.Dictionary
	script  *textmatch.Script
	phrases []textmatch.Rule
	words   []textmatch.Rule
}

// New compiles the phrase and word rules of dict.
func New(dict *dictionary.Dictionary, script *textmatch.Script) *Translator {
	t := &Translator{dict: dict, script: script}
	for _, e := range dict.Phrases() {
		t.phrases = append(t.phrases, textmatch.PhraseRule(e.Source, e.Target))
	}
	for _, e := range dict.Exact() {
		t.words = append(t.words, textmatch.WordRule(e.Source, e.Target))
	}
	return t
}

// Dictionary returns the dictionary the translator was built from.
func (t *Translator) Dictionary() *dictionary.Dictionary {
	return t.dict
}

// Script returns the target script.
func (t *Translator) Script() *textmatch.Script {
	return t.script
}

// TranslateText returns the localized form of text and whether it differs.
//
// Text whose trimmed form is empty or already contains target-script
// characters is returned as is. A trimmed text that is an exact key is
// replaced wholesale, keeping the surrounding whitespace. Anything else
// goes through every phrase and then every exact key as a whole word.
func (t *Translator) TranslateText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || t.script.AlreadyLocalized(trimmed) {
		return text, false
	}

	if dst, ok := t.dict.Lookup(trimmed); ok {
		out := strings.Replace(text, trimmed, dst, 1)
		return out, out != text
	}

	out, _ := textmatch.Apply(text, t.phrases)
	out, _ = textmatch.Apply(out, t.words)
	return out, out != text
}

// TranslateAttr returns the localized form of an attribute value. Only a
// value that is itself an exact key is translated; no trimming is done.
func (t *Translator) TranslateAttr(value string) (string, bool) {
	if value == "" || t.script.AlreadyLocalized(value) {
		return value, false
	}
	dst, ok := t.dict.Lookup(value)
	if !ok || dst == value {
		return value, false
	}
	return dst, true
}

// TranslateNode translates a text node in place through doc. The node is
// only written when its text changes.
func (t *Translator) TranslateNode(doc dom.Document, n *html.Node) (bool, error) {
	if n == nil || n.Type != html.TextNode {
		return false, nil
	}
	out, changed := t.TranslateText(n.Data)
	if !changed {
		return false, nil
	}
	if err := doc.SetText(n, out); err != nil {
		return false, fmt.Errorf("writing text %q: %w", strings.TrimSpace(n.Data), err)
	}
	return true, nil
}
