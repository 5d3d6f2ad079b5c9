package config

import (
	"os"
	"path/filepath"

	"github.com/minios-linux/domlokit/dictionary"
)

// DictDir is the directory Detect searches.
const DictDir = "dict"

// detectExts are tried in order for each dictionary kind.
var detectExts = []string{".json", ".po", ".yaml", ".yml", ".properties"}

// Detect finds dictionaries by naming convention under rootDir/dict:
//
//	dict/<lang>.yaml            exact: and phrases: sections
//	dict/exact.<lang>.<ext>     exact entries
//	dict/phrases.<lang>.<ext>   phrase entries
//
// The first matching extension wins per kind. Paths are relative to rootDir.
func Detect(rootDir, lang string) []DictionarySource {
	var out []DictionarySource
	exists := func(rel string) bool {
		info, err := os.Stat(filepath.Join(rootDir, rel))
		return err == nil && !info.IsDir()
	}

	for _, ext := range []string{".yaml", ".yml"} {
		rel := filepath.Join(DictDir, lang+ext)
		if exists(rel) {
			out = append(out, DictionarySource{Path: rel})
			break
		}
	}

	for _, kind := range []dictionary.Kind{dictionary.KindExact, dictionary.KindPhrase} {
		prefix := string(kind)
		if kind == dictionary.KindPhrase {
			prefix = "phrases"
		}
		for _, ext := range detectExts {
			rel := filepath.Join(DictDir, prefix+"."+lang+ext)
			if exists(rel) {
				out = append(out, DictionarySource{Path: rel, Kind: string(kind)})
				break
			}
		}
	}
	return out
}
