// Package propfile reads .properties dictionaries.
//
// Each entry is "source = translation". Separators are '=' or ':'; a
// separator inside a source string must be escaped as "\=" or "\:". Lines
// starting with '#' or '!' are comments. A trailing backslash joins the next
// line, and \uXXXX escapes are decoded, so files produced by native2ascii
// read the same as UTF-8 ones:
//
//	# toolbar
//	Save = 保存
//	Save As = 名前を付けて保存
//	Ratio\: 16\:9 = 比率: 16:9
package propfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Entry is one key/value pair.
type Entry struct {
	Key   string
	Value string
	// Line is the 1-based line where the entry starts.
	Line int
}

// File is a parsed .properties file. Duplicate keys keep the position of
// the first occurrence and the value of the last.
type File struct {
	entries []Entry
	index   map[string]int
}

// ParseFile reads and parses a .properties file from disk.
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

// Parse parses .properties content.
func Parse(data []byte) (*File, error) {
	f := &File{index: make(map[string]int)}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		start := i + 1
		logical := strings.TrimLeft(lines[i], " \t\f")
		if logical == "" || logical[0] == '#' || logical[0] == '!' {
			continue
		}
		for continued(logical) && i+1 < len(lines) {
			i++
			logical = logical[:len(logical)-1] + strings.TrimLeft(lines[i], " \t\f")
		}

		rawKey, rawValue := splitKeyValue(logical)
		key, err := unescape(strings.TrimSpace(rawKey))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", start, err)
		}
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", start)
		}
		value, err := unescape(strings.TrimSpace(rawValue))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", start, err)
		}
		f.set(key, value, start)
	}
	return f, nil
}

// continued reports whether s ends in an odd number of backslashes.
func continued(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// splitKeyValue splits at the first unescaped '=' or ':'. A line without a
// separator is a key with an empty value.
func splitKeyValue(s string) (key, value string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '=', ':':
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("truncated \\u escape in %q", s)
			}
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad \\u escape in %q", s)
			}
			b.WriteRune(rune(r))
			i += 4
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func (f *File) set(key, value string, line int) {
	if idx, ok := f.index[key]; ok {
		f.entries[idx].Value = value
		return
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, Entry{Key: key, Value: value, Line: line})
}

// Get returns the value for key.
func (f *File) Get(key string) (string, bool) {
	idx, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.entries[idx].Value, true
}

// Keys returns keys in file order.
func (f *File) Keys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns all entries in file order.
func (f *File) Entries() []Entry {
	return f.entries
}
