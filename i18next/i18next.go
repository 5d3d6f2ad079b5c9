// Package i18next reads i18next-style JSON dictionaries and writes
// skeleton files for strings that still need a translation.
//
// Two layouts are accepted:
//
//	{
//	    "_meta": { "name": "日本語", "flag": "🇯🇵" },
//	    "translations": {
//	        "Save": "保存",
//	        "Save As": "名前を付けて保存"
//	    }
//	}
//
// and a flat object of string values. Keys keep their file order, which
// matters for phrase dictionaries.
package i18next

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Meta holds the language metadata from the _meta field.
type Meta struct {
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// File is a parsed translation file.
type File struct {
	Meta         Meta
	Translations map[string]string
	keys         []string
}

// New returns an empty file with the given metadata.
func New(meta Meta) *File {
	return &File{Meta: meta, Translations: make(map[string]string)}
}

// ParseFile reads and parses a JSON translation file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses JSON data in either layout.
func Parse(data []byte) (*File, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	f := New(Meta{})
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}

		switch key {
		case "_meta":
			if err := dec.Decode(&f.Meta); err != nil {
				return nil, fmt.Errorf("parsing _meta: %w", err)
			}
		case "translations":
			if err := expectDelim(dec, '{'); err != nil {
				return nil, fmt.Errorf("parsing translations: %w", err)
			}
			for dec.More() {
				if err := f.readPair(dec); err != nil {
					return nil, fmt.Errorf("parsing translations: %w", err)
				}
			}
			if err := expectDelim(dec, '}'); err != nil {
				return nil, fmt.Errorf("parsing translations: %w", err)
			}
		default:
			value, err := stringToken(dec)
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", key, err)
			}
			f.Set(key, value)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return f, nil
}

func (f *File) readPair(dec *json.Decoder) error {
	key, err := stringToken(dec)
	if err != nil {
		return err
	}
	value, err := stringToken(dec)
	if err != nil {
		return fmt.Errorf("value for key %q: %w", key, err)
	}
	f.Set(key, value)
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %v, got %v", want, t)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	t, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := t.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", t)
	}
	return s, nil
}

// Set adds or updates a key. New keys are appended to the key order.
func (f *File) Set(key, value string) {
	if _, ok := f.Translations[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.Translations[key] = value
}

// Keys returns the keys in file order.
func (f *File) Keys() []string {
	return f.keys
}

// Stats returns (total, translated, untranslated) counts.
func (f *File) Stats() (total, translated, untranslated int) {
	total = len(f.keys)
	for _, k := range f.keys {
		if f.Translations[k] != "" {
			translated++
		}
	}
	return total, translated, total - translated
}

// Marshal renders the file in the nested layout with 4-space indentation
// and the original key order.
func (f *File) Marshal() []byte {
	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString("    \"_meta\": {\n")
	fmt.Fprintf(&b, "        \"name\": %s,\n", strconv.Quote(f.Meta.Name))
	fmt.Fprintf(&b, "        \"flag\": %s\n", strconv.Quote(f.Meta.Flag))
	b.WriteString("    },\n")
	b.WriteString("    \"translations\": {\n")
	for i, k := range f.keys {
		fmt.Fprintf(&b, "        %s: %s", jsonString(k), jsonString(f.Translations[k]))
		if i < len(f.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return []byte(b.String())
}

// WriteFile writes Marshal output to path, creating parent directories.
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, f.Marshal(), 0644)
}

// jsonString encodes s as a JSON string without HTML escaping, so CJK and
// markup-like keys stay readable.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
