// Package langmeta resolves display metadata (native name, emoji flag) for
// a target language tag from CLDR data.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes how a language is shown in CLI output and file headers.
type Meta struct {
	Tag  string
	Name string
	Flag string
}

// Label is "🇯🇵 日本語 (ja)", without the flag when none is known.
func (m Meta) Label() string {
	label := m.Name + " (" + m.Tag + ")"
	if m.Name == m.Tag {
		label = m.Tag
	}
	if m.Flag != "" {
		label = m.Flag + " " + label
	}
	return label
}

// Resolve returns metadata for lang ("ja", "pt_BR", "zh-Hant"). Tags that
// do not parse are returned with Name set to the input.
func Resolve(lang string) Meta {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	tag, err := language.Parse(normalized)
	if err != nil {
		return Meta{Tag: lang, Name: lang}
	}

	m := Meta{Tag: tag.String(), Name: display.Self.Name(tag)}
	if m.Name == "" {
		m.Name = m.Tag
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = FlagFromRegion(region.String())
	}
	return m
}

// FlagFromRegion converts an ISO 3166 alpha-2 code to its regional
// indicator pair. Anything else yields "".
func FlagFromRegion(region string) string {
	region = strings.ToUpper(region)
	if len(region) != 2 || region == "ZZ" {
		return ""
	}
	var b strings.Builder
	for _, c := range region {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
