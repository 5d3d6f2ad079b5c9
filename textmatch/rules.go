package textmatch

import (
	"regexp"
	"strings"
)

// EscapeForPattern escapes every character that is special in RE2 syntax
// so arbitrary dictionary keys can be embedded in a pattern.
func EscapeForPattern(text string) string {
	return regexp.QuoteMeta(text)
}

// Rule is one substitution: every match of Pattern becomes Replacement.
type Rule struct {
	Source      string
	Pattern     *regexp.Regexp
	Replacement string
	// literal rules skip the regexp when the source is not a substring.
	literal bool
}

// PhraseRule matches src anywhere in the text.
func PhraseRule(src, dst string) Rule {
	return Rule{
		Source:      src,
		Pattern:     regexp.MustCompile(EscapeForPattern(src)),
		Replacement: dst,
		literal:     true,
	}
}

// WordRule matches src only between word boundaries. Boundaries are the
// ASCII \b of RE2, so keys starting or ending in punctuation only match
// where a word character sits on the other side.
func WordRule(src, dst string) Rule {
	return Rule{
		Source:      src,
		Pattern:     regexp.MustCompile(`\b` + EscapeForPattern(src) + `\b`),
		Replacement: dst,
	}
}

// Apply runs rules in order over text, each replacing all of its matches.
// Replacements are inserted literally. The returned flag is true when at
// least one rule matched.
func Apply(text string, rules []Rule) (string, bool) {
	changed := false
	for _, r := range rules {
		if r.literal && !strings.Contains(text, r.Source) {
			continue
		}
		if !r.literal && !r.Pattern.MatchString(text) {
			continue
		}
		text = r.Pattern.ReplaceAllLiteralString(text, r.Replacement)
		changed = true
	}
	return text, changed
}
