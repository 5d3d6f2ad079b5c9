// Package config loads .domlokit.yaml.
//
// When no .domlokit.yaml exists, defaults are used and dictionaries are
// discovered under dict/ (see Detect). Environment variables override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minios-linux/domlokit/dictionary"
	"github.com/minios-linux/domlokit/reconcile"
	"github.com/minios-linux/domlokit/skip"
	"github.com/minios-linux/domlokit/textmatch"
	"github.com/minios-linux/domlokit/walker"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".domlokit.yaml"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .domlokit.yaml structure.
type File struct {
	// TargetLang is the BCP 47 tag of the localization (default "ja").
	TargetLang string `yaml:"target_lang"`
	// PhraseOrder is "file" (default) or "longest_first".
	PhraseOrder  string             `yaml:"phrase_order,omitempty"`
	Dictionaries []DictionarySource `yaml:"dictionaries"`
	Skip         Skip               `yaml:"skip"`
	// Attributes are translated by exact match (default placeholder, title,
	// aria-label).
	Attributes []string `yaml:"attributes,omitempty"`
	Timing     Timing   `yaml:"timing"`
	Browser    Browser  `yaml:"browser"`
	// Pages are opened by "watch" when no URL is given.
	Pages []string `yaml:"pages,omitempty"`
	Proxy Proxy    `yaml:"proxy"`
	Log   Log      `yaml:"log"`

	// Path is the file this config was read from, "" for defaults.
	Path string `yaml:"-"`
	// Root is the directory relative dictionary paths resolve against.
	Root string `yaml:"-"`
}

// DictionarySource is one dictionary file.
type DictionarySource struct {
	Path string `yaml:"path"`
	// Kind is "exact" or "phrase"; empty only for sectioned YAML files.
	Kind string `yaml:"kind,omitempty"`
	// Format overrides detection by extension.
	Format string `yaml:"format,omitempty"`
}

// Skip configures the skip policy.
type Skip struct {
	// Presets are product-specific selector lists, e.g. "framer".
	Presets   []string `yaml:"presets,omitempty"`
	Selectors []string `yaml:"selectors,omitempty"`
	// ReplaceDefaults drops the built-in selector groups.
	ReplaceDefaults bool `yaml:"replace_defaults,omitempty"`
	// StrictAttributes applies the policy to attributes too.
	StrictAttributes bool `yaml:"strict_attributes,omitempty"`
}

// Timing configures the reconciliation loop.
type Timing struct {
	StartupDelay time.Duration `yaml:"startup_delay,omitempty"`
	Debounce     time.Duration `yaml:"debounce,omitempty"`
}

// Browser configures Chrome for "watch".
type Browser struct {
	Remote   string `yaml:"remote,omitempty"`
	Headless *bool  `yaml:"headless,omitempty"`
	Stealth  bool   `yaml:"stealth,omitempty"`
}

// HeadlessEnabled reports whether Chrome runs headless (default true).
func (b Browser) HeadlessEnabled() bool {
	return b.Headless == nil || *b.Headless
}

// Proxy configures "proxy".
type Proxy struct {
	Listen   string `yaml:"listen,omitempty"`
	Upstream string `yaml:"upstream,omitempty"`
}

// Log configures logging.
type Log struct {
	// Level is a zerolog level name (default "info").
	Level string `yaml:"level,omitempty"`
	// Format is "console" (default) or "json".
	Format string `yaml:"format,omitempty"`
}

// Defaults.
const (
	DefaultTargetLang  = "ja"
	DefaultProxyListen = ":8080"
	DefaultLogLevel    = "info"
	LogFormatConsole   = "console"
	LogFormatJSON      = "json"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads .domlokit.yaml from rootDir. A missing file yields defaults
// with dictionaries discovered by Detect.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	f, err := LoadPath(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(rootDir)
	}
	return f, err
}

// LoadPath reads and validates a config file. Relative dictionary paths
// resolve against the file's directory.
func LoadPath(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return parse(data, path, filepath.Dir(path), nil)
}

// Default returns the configuration used without a config file.
func Default(rootDir string) (*File, error) {
	f := &File{Root: rootDir}
	if err := f.finish(nil); err != nil {
		return nil, err
	}
	if len(f.Dictionaries) == 0 {
		f.Dictionaries = Detect(rootDir, f.TargetLang)
	}
	return f, nil
}

func parse(data []byte, path, root string, environ map[string]string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path
	f.Root = root
	if err := f.finish(environ); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// finish applies environment overrides, fills defaults and validates.
func (f *File) finish(environ map[string]string) error {
	if err := f.applyEnv(environ); err != nil {
		return err
	}

	if f.TargetLang == "" {
		f.TargetLang = DefaultTargetLang
	}
	if f.Attributes == nil {
		f.Attributes = append([]string(nil), walker.DefaultAttributes...)
	}
	if f.Timing.StartupDelay == 0 {
		f.Timing.StartupDelay = reconcile.DefaultStartupDelay
	}
	if f.Timing.Debounce == 0 {
		f.Timing.Debounce = reconcile.DefaultDebounce
	}
	if f.Proxy.Listen == "" {
		f.Proxy.Listen = DefaultProxyListen
	}
	if f.Log.Level == "" {
		f.Log.Level = DefaultLogLevel
	}
	if f.Log.Format == "" {
		f.Log.Format = LogFormatConsole
	}

	return f.validate()
}

func (f *File) validate() error {
	if _, err := textmatch.ScriptFor(f.TargetLang); err != nil {
		return fmt.Errorf("target_lang: %w", err)
	}
	if _, err := dictionary.ParsePhraseOrder(f.PhraseOrder); err != nil {
		return fmt.Errorf("phrase_order: %w", err)
	}

	for i, d := range f.Dictionaries {
		if d.Path == "" {
			return fmt.Errorf("dictionary #%d has no path", i+1)
		}
		kind, err := dictionary.ParseKind(d.Kind)
		if err != nil {
			return fmt.Errorf("dictionary %q: %w", d.Path, err)
		}
		format := dictionary.Format(d.Format)
		if d.Format != "" {
			if format, err = dictionary.ParseFormat(d.Format); err != nil {
				return fmt.Errorf("dictionary %q: %w", d.Path, err)
			}
		} else if format, err = dictionary.DetectFormat(d.Path); err != nil {
			return fmt.Errorf("dictionary %q: %w", d.Path, err)
		}
		if kind == "" && format != dictionary.FormatYAML {
			return fmt.Errorf("dictionary %q has no kind (valid: exact, phrase)", d.Path)
		}
	}

	for _, name := range f.Skip.Presets {
		if _, ok := skip.Presets[name]; !ok {
			return fmt.Errorf("skip: unknown preset %q", name)
		}
	}

	if f.Timing.StartupDelay < 0 {
		return fmt.Errorf("timing: startup_delay must not be negative, got %s", f.Timing.StartupDelay)
	}
	if f.Timing.Debounce < 0 {
		return fmt.Errorf("timing: debounce must not be negative, got %s", f.Timing.Debounce)
	}

	if _, err := zerolog.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch f.Log.Format {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("log: unknown format %q (valid: console, json)", f.Log.Format)
	}
	return nil
}

// Source returns a description of where the config came from.
func (f *File) Source() string {
	if f.Path == "" {
		return "defaults"
	}
	return f.Path
}

// AbsPath resolves a dictionary path against Root.
func (f *File) AbsPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.Root, p)
}
