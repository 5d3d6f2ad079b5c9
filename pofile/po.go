// Package pofile reads gettext PO files as translation dictionaries and
// writes PO templates for strings still missing from them.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Entry is one message of a PO file.
type Entry struct {
	// ExtractedComments are "#." lines.
	ExtractedComments []string
	// References are "#:" lines; extract writes DOM locations here.
	References []string
	// Flags are "#," values such as fuzzy.
	Flags []string

	MsgCtxt     string
	MsgID       string
	MsgIDPlural string
	MsgStr      string
	// MsgStrPlural holds msgstr[N] forms; only form 0 is used for lookup.
	MsgStrPlural map[int]string

	Obsolete bool
}

// IsFuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) IsFuzzy() bool {
	for _, f := range e.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// Translation returns the usable translation of the entry, or "" when the
// entry is the header, obsolete, fuzzy, or untranslated.
func (e *Entry) Translation() string {
	if e.MsgID == "" || e.Obsolete || e.IsFuzzy() {
		return ""
	}
	if e.MsgIDPlural != "" {
		return e.MsgStrPlural[0]
	}
	return e.MsgStr
}

// File is a parsed PO/POT file.
type File struct {
	Header  *Entry
	Entries []*Entry
}

// Pair is a source/target couple in file order.
type Pair struct {
	Source string
	Target string
}

// Translated returns the entries with a usable translation, in file order.
// Entries with a msgctxt are included; the context is not part of the key.
func (f *File) Translated() []Pair {
	out := make([]Pair, 0, len(f.Entries))
	for _, e := range f.Entries {
		if tr := e.Translation(); tr != "" {
			out = append(out, Pair{Source: e.MsgID, Target: tr})
		}
	}
	return out
}

// HeaderField returns a "Name: value" field of the header entry.
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// SetHeaderField replaces or appends a header field.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{}
	}
	lines := strings.Split(strings.TrimSuffix(f.Header.MsgStr, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}
	field := name + ": " + value
	replaced := false
	for i, line := range lines {
		k, _, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			lines[i] = field
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, field)
	}
	f.Header.MsgStr = strings.Join(lines, "\n") + "\n"
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// parser accumulates entries line by line.
type parser struct {
	file *File
	cur  *Entry
	// field is the keyword the next continuation line extends.
	field     string
	pluralIdx int
	lineNum   int
}

func (p *parser) entry() *Entry {
	if p.cur == nil {
		p.cur = &Entry{MsgStrPlural: make(map[int]string)}
	}
	return p.cur
}

func (p *parser) finish() {
	if p.cur == nil {
		return
	}
	if p.cur.MsgID == "" && !p.cur.Obsolete && p.file.Header == nil {
		p.file.Header = p.cur
	} else {
		p.file.Entries = append(p.file.Entries, p.cur)
	}
	p.cur = nil
	p.field = ""
}

func (p *parser) comment(line string) {
	e := p.entry()
	body := strings.TrimSpace(line[2:])
	switch line[1] {
	case ':':
		e.References = append(e.References, body)
	case '.':
		e.ExtractedComments = append(e.ExtractedComments, body)
	case ',':
		for _, flag := range strings.Split(body, ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				e.Flags = append(e.Flags, flag)
			}
		}
	}
	// Translator comments and "#|" previous-msgid lines carry nothing a
	// dictionary needs.
}

// set stores value into the current field, appending when more is true.
func (p *parser) set(value string, more bool) {
	e := p.cur
	var dst *string
	switch p.field {
	case "msgctxt":
		dst = &e.MsgCtxt
	case "msgid":
		dst = &e.MsgID
	case "msgid_plural":
		dst = &e.MsgIDPlural
	case "msgstr":
		dst = &e.MsgStr
	case "msgstr[]":
		if more {
			value = e.MsgStrPlural[p.pluralIdx] + value
		}
		e.MsgStrPlural[p.pluralIdx] = value
		return
	}
	if more {
		*dst += value
	} else {
		*dst = value
	}
}

func (p *parser) keyword(line string) error {
	p.entry()
	keyword, rest, _ := strings.Cut(line, " ")

	switch keyword {
	case "msgctxt", "msgid", "msgid_plural", "msgstr":
		p.field = keyword
	default:
		if !strings.HasPrefix(keyword, "msgstr[") || !strings.HasSuffix(keyword, "]") {
			return fmt.Errorf("line %d: unknown keyword %q", p.lineNum, keyword)
		}
		idx, err := strconv.Atoi(keyword[len("msgstr[") : len(keyword)-1])
		if err != nil {
			return fmt.Errorf("line %d: invalid plural index in %q", p.lineNum, keyword)
		}
		p.field = "msgstr[]"
		p.pluralIdx = idx
	}
	p.set(unquote(rest), false)
	return nil
}

// Parse reads a PO/POT file.
func Parse(r io.Reader) (*File, error) {
	p := &parser{file: &File{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		p.lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			p.finish()
			continue
		}
		if strings.HasPrefix(line, "#~") {
			p.entry().Obsolete = true
			line = strings.TrimSpace(line[2:])
			if line == "" {
				continue
			}
		}

		switch {
		case strings.HasPrefix(line, "#"):
			if len(line) >= 2 {
				p.comment(line)
			}
		case strings.HasPrefix(line, `"`):
			if p.field == "" {
				return nil, fmt.Errorf("line %d: string continuation without keyword", p.lineNum)
			}
			p.set(unquote(line), true)
		default:
			if err := p.keyword(line); err != nil {
				return nil, err
			}
		}
	}
	p.finish()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	return p.file, nil
}

// ParseFile reads a PO file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	po, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return po, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// NewTemplate returns an empty POT file whose header names the project and
// target language.
func NewTemplate(project, lang string) *File {
	now := time.Now().UTC().Format("2006-01-02 15:04+0000")
	header := strings.Join([]string{
		"Project-Id-Version: " + project,
		"POT-Creation-Date: " + now,
		"Language: " + lang,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
		"",
	}, "\n")
	return &File{Header: &Entry{MsgStr: header}}
}

// Write serialises the file.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	first := true
	emit := func(e *Entry) {
		if !first {
			bw.WriteByte('\n')
		}
		first = false
		writeEntry(bw, e)
	}
	if f.Header != nil {
		emit(f.Header)
	}
	for _, e := range f.Entries {
		emit(e)
	}
	return bw.Flush()
}

// WriteFile writes the file to path.
func (f *File) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

func writeEntry(w *bufio.Writer, e *Entry) {
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}
	if e.MsgCtxt != "" {
		writeField(w, prefix+"msgctxt", e.MsgCtxt)
	}
	writeField(w, prefix+"msgid", e.MsgID)
	if e.MsgIDPlural != "" {
		writeField(w, prefix+"msgid_plural", e.MsgIDPlural)
		n := len(e.MsgStrPlural)
		if n == 0 {
			n = 2
		}
		for i := 0; i < n; i++ {
			writeField(w, fmt.Sprintf("%smsgstr[%d]", prefix, i), e.MsgStrPlural[i])
		}
		return
	}
	writeField(w, prefix+"msgstr", e.MsgStr)
}

// writeField writes a keyword and its value, splitting at newlines.
func writeField(w *bufio.Writer, keyword, value string) {
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(w, "%s %s\n", keyword, quote(value))
		return
	}
	fmt.Fprintf(w, "%s \"\"\n", keyword)
	for _, part := range strings.SplitAfter(value, "\n") {
		if part != "" {
			fmt.Fprintf(w, "%s\n", quote(part))
		}
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

// unquote strips PO quoting and resolves the escapes gettext emits.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
