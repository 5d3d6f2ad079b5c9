package config

import (
	"fmt"

	"github.com/minios-linux/domlokit/dictionary"
	"github.com/minios-linux/domlokit/skip"
	"github.com/minios-linux/domlokit/textmatch"
	"github.com/minios-linux/domlokit/translator"
	"github.com/minios-linux/domlokit/walker"
	"github.com/rs/zerolog"
)

// Script returns the target language's script heuristic.
func (f *File) Script() (*textmatch.Script, error) {
	return textmatch.ScriptFor(f.TargetLang)
}

// Dictionary loads every configured dictionary in order. Later files
// override earlier ones for the same source string.
func (f *File) Dictionary(logger zerolog.Logger) (*dictionary.Dictionary, error) {
	if len(f.Dictionaries) == 0 {
		return nil, fmt.Errorf("%s: %w (add dictionaries to %s or create %s/)", f.Source(), dictionary.ErrNoDictionary, FileName, DictDir)
	}
	order, err := dictionary.ParsePhraseOrder(f.PhraseOrder)
	if err != nil {
		return nil, err
	}

	b := dictionary.NewBuilder()
	b.SetPhraseOrder(order)
	for _, src := range f.Dictionaries {
		kind, err := dictionary.ParseKind(src.Kind)
		if err != nil {
			return nil, err
		}
		path := f.AbsPath(src.Path)
		n, err := b.Load(path, kind, dictionary.Format(src.Format))
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("path", path).Str("kind", src.Kind).Int("entries", n).Msg("dictionary loaded")
	}
	if ignored := b.Ignored(); ignored > 0 {
		logger.Debug().Int("ignored", ignored).Msg("entries with an empty source or target were ignored")
	}

	d := b.Build()
	if d.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", f.Source(), dictionary.ErrNoDictionary)
	}
	return d, nil
}

// Selectors returns the skip selectors: the defaults unless replaced, then
// presets, then custom selectors.
func (f *File) Selectors() ([]string, error) {
	presets := skip.PresetSelectors
	if !f.Skip.ReplaceDefaults {
		presets = skip.WithPresets
	}
	out, err := presets(f.Skip.Presets...)
	if err != nil {
		return nil, err
	}
	return append(out, f.Skip.Selectors...), nil
}

// Policy compiles Selectors.
func (f *File) Policy() (*skip.Policy, error) {
	sel, err := f.Selectors()
	if err != nil {
		return nil, err
	}
	return skip.Compile(sel)
}

// Walker assembles dictionary, script and skip policy into a walker.
func (f *File) Walker(logger zerolog.Logger) (*walker.Walker, error) {
	script, err := f.Script()
	if err != nil {
		return nil, err
	}
	dict, err := f.Dictionary(logger)
	if err != nil {
		return nil, err
	}
	policy, err := f.Policy()
	if err != nil {
		return nil, err
	}
	w := walker.New(translator.New(dict, script), policy, logger)
	w.Attributes = f.Attributes
	w.StrictAttributes = f.Skip.StrictAttributes
	return w, nil
}
