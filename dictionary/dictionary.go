// Package dictionary holds the exact-match and phrase dictionaries used by
// the translator.
//
// Both dictionaries keep registration order. The exact dictionary's order
// drives the whole-word pass; the phrase dictionary's order decides which of
// two overlapping phrases wins, so phrase files should list longer phrases
// first (or use OrderLongestFirst).
package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrNoDictionary is returned when a configuration yields no entries.
var ErrNoDictionary = errors.New("no dictionary entries")

// Entry is one source/target pair.
type Entry struct {
	Source string
	Target string
}

// Kind selects which dictionary a file feeds.
type Kind string

const (
	KindExact  Kind = "exact"
	KindPhrase Kind = "phrase"
)

// ParseKind validates a kind name. The empty string is allowed and means
// "taken from the file", which only sectioned YAML files support.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindExact, KindPhrase:
		return Kind(s), nil
	case "phrases":
		return KindPhrase, nil
	}
	return "", fmt.Errorf("unknown dictionary kind %q (want %q or %q)", s, KindExact, KindPhrase)
}

// PhraseOrder controls the order phrases are applied in.
type PhraseOrder string

const (
	// OrderFile applies phrases in registration order.
	OrderFile PhraseOrder = "file"
	// OrderLongestFirst applies longer phrases first, ties in registration
	// order.
	OrderLongestFirst PhraseOrder = "longest_first"
)

// ParsePhraseOrder validates a phrase order name; "" means OrderFile.
func ParsePhraseOrder(s string) (PhraseOrder, error) {
	switch PhraseOrder(s) {
	case "", OrderFile:
		return OrderFile, nil
	case OrderLongestFirst:
		return OrderLongestFirst, nil
	}
	return "", fmt.Errorf("unknown phrase order %q (want %q or %q)", s, OrderFile, OrderLongestFirst)
}

// orderedMap is a string map that remembers first insertion position.
type orderedMap struct {
	entries []Entry
	index   map[string]int
}

func (m *orderedMap) set(src, dst string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[src]; ok {
		m.entries[i].Target = dst
		return
	}
	m.index[src] = len(m.entries)
	m.entries = append(m.entries, Entry{Source: src, Target: dst})
}

// Builder accumulates entries. The zero value is ready to use.
type Builder struct {
	exact   orderedMap
	phrases orderedMap
	order   PhraseOrder
	ignored int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetPhraseOrder sets the phrase order applied by Build.
func (b *Builder) SetPhraseOrder(o PhraseOrder) {
	b.order = o
}

// AddExact registers an exact-match entry. A repeated source keeps its
// first position and takes the new target. Entries with an empty source or
// target are ignored.
func (b *Builder) AddExact(src, dst string) {
	if src == "" || dst == "" {
		b.ignored++
		return
	}
	b.exact.set(src, dst)
}

// AddPhrase registers a phrase entry with the same rules as AddExact.
func (b *Builder) AddPhrase(src, dst string) {
	if src == "" || dst == "" {
		b.ignored++
		return
	}
	b.phrases.set(src, dst)
}

// Add registers an entry in the dictionary selected by kind.
func (b *Builder) Add(kind Kind, src, dst string) error {
	switch kind {
	case KindExact:
		b.AddExact(src, dst)
	case KindPhrase:
		b.AddPhrase(src, dst)
	default:
		return fmt.Errorf("unknown dictionary kind %q", kind)
	}
	return nil
}

// Ignored returns how many entries were dropped for an empty source or
// target.
func (b *Builder) Ignored() int {
	return b.ignored
}

// Build returns an immutable dictionary. The builder may keep being used.
func (b *Builder) Build() *Dictionary {
	d := &Dictionary{
		exact:   make(map[string]string, len(b.exact.entries)),
		ordered: append([]Entry(nil), b.exact.entries...),
		phrases: append([]Entry(nil), b.phrases.entries...),
	}
	for _, e := range d.ordered {
		d.exact[e.Source] = e.Target
	}
	if b.order == OrderLongestFirst {
		sort.SliceStable(d.phrases, func(i, j int) bool {
			return utf8.RuneCountInString(d.phrases[i].Source) > utf8.RuneCountInString(d.phrases[j].Source)
		})
	}
	return d
}

// Dictionary is a built, read-only pair of dictionaries.
type Dictionary struct {
	exact   map[string]string
	ordered []Entry
	phrases []Entry
}

// Lookup returns the exact-match translation for src.
func (d *Dictionary) Lookup(src string) (string, bool) {
	dst, ok := d.exact[src]
	return dst, ok
}

// ExactKeys returns exact-match sources in registration order.
func (d *Dictionary) ExactKeys() []string {
	keys := make([]string, len(d.ordered))
	for i, e := range d.ordered {
		keys[i] = e.Source
	}
	return keys
}

// Exact returns exact-match entries in registration order.
func (d *Dictionary) Exact() []Entry {
	return d.ordered
}

// Phrases returns phrase entries in application order.
func (d *Dictionary) Phrases() []Entry {
	return d.phrases
}

// Len returns the total number of entries in both dictionaries.
func (d *Dictionary) Len() int {
	return len(d.ordered) + len(d.phrases)
}

// Shadow describes a phrase that will never match as a whole because an
// earlier phrase rewrites part of it first.
type Shadow struct {
	Phrase string
	// By is the earlier, shorter phrase contained in Phrase.
	By string
}

func (s Shadow) String() string {
	return fmt.Sprintf("%q is applied before %q and rewrites part of it", s.By, s.Phrase)
}

// Shadowed lists phrases that contain an earlier phrase in application
// order.
func (d *Dictionary) Shadowed() []Shadow {
	var out []Shadow
	for j := 1; j < len(d.phrases); j++ {
		for i := 0; i < j; i++ {
			if strings.Contains(d.phrases[j].Source, d.phrases[i].Source) {
				out = append(out, Shadow{Phrase: d.phrases[j].Source, By: d.phrases[i].Source})
				break
			}
		}
	}
	return out
}
