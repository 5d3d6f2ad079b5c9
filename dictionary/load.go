package dictionary

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minios-linux/domlokit/i18next"
	"github.com/minios-linux/domlokit/pofile"
	"github.com/minios-linux/domlokit/propfile"
	"github.com/minios-linux/domlokit/yamlfile"
)

// Format names a dictionary file format.
type Format string

const (
	FormatI18next    Format = "i18next"
	FormatJSON       Format = "json"
	FormatPO         Format = "po"
	FormatYAML       Format = "yaml"
	FormatProperties Format = "properties"
)

// Formats lists the supported formats.
var Formats = []Format{FormatI18next, FormatJSON, FormatPO, FormatYAML, FormatProperties}

// Extensions maps file extensions to formats, used by DetectFormat and by
// dictionary discovery.
var Extensions = map[string]Format{
	".json":       FormatI18next,
	".po":         FormatPO,
	".yaml":       FormatYAML,
	".yml":        FormatYAML,
	".properties": FormatProperties,
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown dictionary format %q", s)
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := Extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("cannot detect dictionary format of %s (extension %q)", path, ext)
}

// Section names recognized in YAML dictionaries.
const (
	sectionExact   = "exact"
	sectionPhrases = "phrases"
)

// Load reads path into the builder and returns the number of entries read.
// An empty format is detected from the extension. An empty kind is only
// valid for YAML files with exact:/phrases: sections.
func (b *Builder) Load(path string, kind Kind, format Format) (int, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return 0, err
		}
	}

	switch format {
	case FormatI18next, FormatJSON:
		f, err := i18next.ParseFile(path)
		if err != nil {
			return 0, err
		}
		pairs := make([]Entry, 0, len(f.Keys()))
		for _, k := range f.Keys() {
			pairs = append(pairs, Entry{Source: k, Target: f.Translations[k]})
		}
		return b.addAll(path, kind, pairs)

	case FormatPO:
		f, err := pofile.ParseFile(path)
		if err != nil {
			return 0, err
		}
		var pairs []Entry
		for _, p := range f.Translated() {
			pairs = append(pairs, Entry{Source: p.Source, Target: p.Target})
		}
		return b.addAll(path, kind, pairs)

	case FormatYAML:
		f, err := yamlfile.ParseFile(path)
		if err != nil {
			return 0, err
		}
		return b.addYAML(path, kind, f)

	case FormatProperties:
		f, err := propfile.ParseFile(path)
		if err != nil {
			return 0, err
		}
		var pairs []Entry
		for _, e := range f.Entries() {
			pairs = append(pairs, Entry{Source: e.Key, Target: e.Value})
		}
		return b.addAll(path, kind, pairs)
	}
	return 0, fmt.Errorf("%s: unknown dictionary format %q", path, format)
}

func (b *Builder) addAll(path string, kind Kind, pairs []Entry) (int, error) {
	if kind == "" {
		return 0, fmt.Errorf("%s: dictionary kind is required for this format", path)
	}
	for _, p := range pairs {
		if err := b.Add(kind, p.Source, p.Target); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(pairs), nil
}

func (b *Builder) addYAML(path string, kind Kind, f *yamlfile.File) (int, error) {
	if !f.HasSection(sectionExact) && !f.HasSection(sectionPhrases) {
		var pairs []Entry
		for _, e := range f.Entries() {
			pairs = append(pairs, Entry{Source: e.Key, Target: e.Value})
		}
		return b.addAll(path, kind, pairs)
	}

	n := 0
	for _, e := range f.Entries() {
		section, _, _ := strings.Cut(e.Group, ".")
		switch {
		case e.Group == "" && kind != "":
			if err := b.Add(kind, e.Key, e.Value); err != nil {
				return n, fmt.Errorf("%s: %w", path, err)
			}
		case section == sectionExact:
			b.AddExact(e.Key, e.Value)
		case section == sectionPhrases:
			b.AddPhrase(e.Key, e.Value)
		default:
			return n, fmt.Errorf("%s:%d: entry %q is outside the %s/%s sections", path, e.Line, e.Key, sectionExact, sectionPhrases)
		}
		n++
	}
	return n, nil
}
