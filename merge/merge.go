// Package merge folds a freshly extracted PO template into an existing
// missing-strings file, in the manner of msgmerge.
package merge

import (
	"github.com/minios-linux/domlokit/pofile"
)

// Stats counts what Merge did.
type Stats struct {
	Kept     int
	Added    int
	Obsolete int
}

// Merge updates existing with the entries of template:
//   - template entries come first, in template order, keeping any
//     translation existing already has for them;
//   - translated entries missing from the template are kept, since a page
//     only shows some of an application's strings at a time;
//   - untranslated entries missing from the template become obsolete.
//
// References and extracted comments always come from the template.
func Merge(existing, template *pofile.File) (*pofile.File, Stats) {
	var stats Stats
	result := &pofile.File{Header: template.Header}
	if existing.Header != nil {
		header := *existing.Header
		result.Header = &header
		if date := template.HeaderField("POT-Creation-Date"); date != "" {
			result.SetHeaderField("POT-Creation-Date", date)
		}
	}

	byID := make(map[string]*pofile.Entry)
	for _, e := range existing.Entries {
		if e.MsgID != "" && !e.Obsolete {
			byID[e.MsgID] = e
		}
	}

	matched := make(map[string]bool)
	for _, t := range template.Entries {
		if t.MsgID == "" || matched[t.MsgID] {
			continue
		}
		matched[t.MsgID] = true

		merged := &pofile.Entry{
			ExtractedComments: t.ExtractedComments,
			References:        t.References,
			Flags:             t.Flags,
			MsgCtxt:           t.MsgCtxt,
			MsgID:             t.MsgID,
			MsgIDPlural:       t.MsgIDPlural,
			MsgStrPlural:      make(map[int]string),
		}
		if e, ok := byID[t.MsgID]; ok {
			merged.Flags = mergeFlags(e.Flags, t.Flags)
			merged.MsgStr = e.MsgStr
			if e.MsgStrPlural != nil {
				merged.MsgStrPlural = e.MsgStrPlural
			}
			stats.Kept++
		} else {
			stats.Added++
		}
		result.Entries = append(result.Entries, merged)
	}

	for _, e := range existing.Entries {
		if e.MsgID == "" || matched[e.MsgID] {
			continue
		}
		if e.Obsolete {
			result.Entries = append(result.Entries, e)
			continue
		}
		if e.MsgStr != "" || e.MsgStrPlural[0] != "" {
			result.Entries = append(result.Entries, e)
			stats.Kept++
			continue
		}
		obsolete := *e
		obsolete.Obsolete = true
		obsolete.References = nil
		result.Entries = append(result.Entries, &obsolete)
		stats.Obsolete++
	}
	return result, stats
}

// mergeFlags returns the existing flags followed by new template flags,
// with fuzzy first.
func mergeFlags(existing, template []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range existing {
		if f == "fuzzy" {
			add(f)
		}
	}
	for _, f := range existing {
		add(f)
	}
	for _, f := range template {
		add(f)
	}
	return out
}
