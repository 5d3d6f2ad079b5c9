// Command domlokit localizes the UI strings of English single-page
// applications in place from a static dictionary, and keeps them localized
// as the page re-renders.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/minios-linux/domlokit/browser"
	"github.com/minios-linux/domlokit/config"
	"github.com/minios-linux/domlokit/dom"
	"github.com/minios-linux/domlokit/extract"
	"github.com/minios-linux/domlokit/i18n"
	"github.com/minios-linux/domlokit/i18next"
	"github.com/minios-linux/domlokit/langmeta"
	"github.com/minios-linux/domlokit/merge"
	"github.com/minios-linux/domlokit/pofile"
	"github.com/minios-linux/domlokit/proxy"
	"github.com/minios-linux/domlokit/reconcile"
	"github.com/minios-linux/domlokit/walker"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

var useColor = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

func paint(color, s string) string {
	if !useColor {
		return s
	}
	return color + s + colorReset
}

func logInfo(format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(colorBlue, "[INFO]")+" "+i18n.Tf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(colorGreen, "[OK]")+" "+i18n.Tf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(colorYellow, "[WARN]")+" "+i18n.Tf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, paint(colorRed, "[ERROR]")+" "+i18n.Tf(format, args...))
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	logLevel   string
)

// loadConfig reads --config, or .domlokit.yaml under --root.
func loadConfig() (*config.File, error) {
	if configPath != "" {
		return config.LoadPath(configPath)
	}
	return config.Load(rootDir)
}

// newLogger builds the structured logger library packages receive.
func newLogger(cfg *config.File) (zerolog.Logger, error) {
	name := cfg.Log.Level
	if logLevel != "" {
		name = logLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}

	var out io.Writer = os.Stderr
	if cfg.Log.Format != config.LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !useColor, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// setup loads the config and assembles logger and walker.
func setup() (*config.File, zerolog.Logger, *walker.Walker, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	w, err := cfg.Walker(logger)
	if err != nil {
		return nil, logger, nil, err
	}
	return cfg, logger, w, nil
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "domlokit",
		Short: "Localize the UI of English single-page applications",
		Long: `domlokit localizes the visible UI strings of an English web
application from a static dictionary and keeps them localized while the
page re-renders.

Dictionaries are read from .domlokit.yaml, or found by name under dict/
(exact.<lang>.json, phrases.<lang>.po, <lang>.yaml, ...).

Commands:
  apply     Localize a saved HTML page
  watch     Localize live Chrome tabs and follow their mutations
  proxy     Serve an upstream site with localized HTML
  check     Validate configuration and dictionaries
  extract   List strings that are still untranslated`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <root>/"+config.FileName+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	root.AddCommand(
		newApplyCmd(),
		newWatchCmd(),
		newProxyCmd(),
		newCheckCmd(),
		newExtractCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("domlokit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// apply (one pass over a file)
// ---------------------------------------------------------------------------

func newApplyCmd() *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Localize a saved HTML page",
		Long: `Run one full localization pass over an HTML file and write the
result as UTF-8. Without --out the page is written to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(in, out)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "Input HTML file (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runApply(in, out string) error {
	_, _, w, err := setup()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	localized, stats, err := proxy.Localize(w, data, "")
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if err := writeOutput(out, localized); err != nil {
		return err
	}
	logSuccess("%d of %d text nodes and %d attributes localized", stats.Changed, stats.Visited, stats.AttrsChanged)
	return nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// watch (live Chrome tabs)
// ---------------------------------------------------------------------------

type watchArgs struct {
	remote   string
	headless bool
	stealth  bool
	// headlessSet is true when --headless was given explicitly.
	headlessSet bool
}

func newWatchCmd() *cobra.Command {
	var a watchArgs
	cmd := &cobra.Command{
		Use:   "watch [url...]",
		Short: "Localize live Chrome tabs and follow their mutations",
		Long: `Open every URL (or the configured pages) in Chrome, localize each
tab once it has loaded, and re-localize after every burst of DOM changes
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.headlessSet = cmd.Flags().Changed("headless")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, args, a)
		},
	}
	cmd.Flags().StringVar(&a.remote, "remote", "", "DevTools WebSocket URL of a running Chrome")
	cmd.Flags().BoolVar(&a.headless, "headless", true, "Run the launched Chrome headless")
	cmd.Flags().BoolVar(&a.stealth, "stealth", false, "Open tabs with stealth evasions")
	return cmd
}

func (a watchArgs) browserConfig(cfg *config.File, logger zerolog.Logger) browser.Config {
	bc := browser.Config{
		RemoteURL: cfg.Browser.Remote,
		Headless:  cfg.Browser.HeadlessEnabled(),
		Stealth:   cfg.Browser.Stealth || a.stealth,
		Logger:    logger,
	}
	if a.remote != "" {
		bc.RemoteURL = a.remote
	}
	if a.headlessSet {
		bc.Headless = a.headless
	}
	return bc
}

func runWatch(ctx context.Context, urls []string, a watchArgs) error {
	cfg, logger, w, err := setup()
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		urls = cfg.Pages
	}
	if len(urls) == 0 {
		return errors.New(i18n.T("no pages to watch: pass URLs or set pages in the config"))
	}

	b, err := browser.Launch(ctx, a.browserConfig(cfg, logger))
	if err != nil {
		return err
	}
	defer b.Close()

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		g.Go(func() error {
			return watchPage(gctx, b, u, cfg, w, logger)
		})
	}
	logInfo("watching %d page(s), press Ctrl+C to stop", len(urls))

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}
	return err
}

func watchPage(ctx context.Context, b *browser.Browser, url string, cfg *config.File, w *walker.Walker, logger zerolog.Logger) error {
	page, err := b.Open(ctx, url)
	if err != nil {
		return err
	}
	defer page.Close()

	log := logger.With().Str("url", url).Logger()
	loop := reconcile.New(page, w, reconcile.Options{
		StartupDelay: cfg.Timing.StartupDelay,
		Debounce:     cfg.Timing.Debounce,
		Logger:       log,
		Banner:       i18n.T(reconcile.DefaultBanner),
		OnPass: func(res reconcile.Result) {
			if res.Err != nil {
				return
			}
			log.Info().
				Int("changed", res.Stats.Changed).
				Int("attrs_changed", res.Stats.AttrsChanged).
				Dur("elapsed", res.Elapsed).
				Int("rebuilds", page.Rebuilds()).
				Msg("pass")
		},
	})
	return loop.Run(ctx)
}

// ---------------------------------------------------------------------------
// proxy
// ---------------------------------------------------------------------------

func newProxyCmd() *cobra.Command {
	var listen, upstream string
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Serve an upstream site with localized HTML",
		Long: `Reverse-proxy the upstream site and run one localization pass over
every HTML response. Other responses pass through unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runProxy(ctx, listen, upstream)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&upstream, "upstream", "", "Upstream base URL")
	return cmd
}

func runProxy(ctx context.Context, listen, upstream string) error {
	cfg, logger, w, err := setup()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Proxy.Listen
	}
	if upstream == "" {
		upstream = cfg.Proxy.Upstream
	}
	if upstream == "" {
		return errors.New(i18n.T("no upstream: pass --upstream or set proxy.upstream in the config"))
	}

	srv, err := proxy.New(upstream, w, logger)
	if err != nil {
		return err
	}
	logInfo("proxying %s on %s", upstream, listen)
	return srv.ListenAndServe(ctx, listen)
}

// ---------------------------------------------------------------------------
// check (validate config and dictionaries)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and dictionaries",
		Long: `Load the configuration and every dictionary, compile the skip
selectors, and report dictionary statistics and phrases shadowed by an
earlier phrase. With --in, also report how much of a saved page the
dictionary covers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(in)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "HTML file to measure coverage on")
	return cmd
}

func runCheck(in string) error {
	cfg, _, w, err := setup()
	if err != nil {
		return err
	}
	dict := w.Translator.Dictionary()
	meta := langmeta.Resolve(cfg.TargetLang)

	fmt.Fprintf(os.Stderr, "\n%s\n", paint(colorBlue, i18n.T("Configuration")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Source:"), cfg.Source())
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Target:"), meta.Label())
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Script:"), w.Translator.Script().Code)
	for _, d := range cfg.Dictionaries {
		fmt.Fprintf(os.Stderr, "  %-14s %s %s\n", i18n.T("Dictionary:"), d.Path, dictionaryKind(d))
	}
	fmt.Fprintf(os.Stderr, "  %-14s %d\n", i18n.T("Exact:"), len(dict.Exact()))
	fmt.Fprintf(os.Stderr, "  %-14s %d\n", i18n.T("Phrases:"), len(dict.Phrases()))
	fmt.Fprintf(os.Stderr, "  %-14s %d\n", i18n.T("Selectors:"), len(w.Policy.Selectors()))
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", i18n.T("Attributes:"), strings.Join(cfg.Attributes, ", "))
	fmt.Fprintln(os.Stderr)

	shadowed := dict.Shadowed()
	for _, s := range shadowed {
		logWarning("phrase %s", s)
	}

	if in != "" {
		if err := reportCoverage(in, w); err != nil {
			return err
		}
	}

	if len(shadowed) == 0 {
		logSuccess("configuration is valid")
	} else {
		logSuccess("configuration is valid, %d shadowed phrase(s)", len(shadowed))
	}
	return nil
}

func dictionaryKind(d config.DictionarySource) string {
	if d.Kind == "" {
		return "(exact + phrases)"
	}
	return "(" + d.Kind + ")"
}

// reportCoverage localizes a page in memory and shows how many of its
// strings are left untranslated.
func reportCoverage(path string, w *walker.Walker) error {
	tree, body, err := readTree(path)
	if err != nil {
		return err
	}
	before := newExtractor(w).Collect(body).Len()
	if _, err := w.Pass(tree, body); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	missing := newExtractor(w).Collect(body).Len()

	percent := 100
	if before > 0 {
		percent = (before - missing) * 100 / before
	}
	fmt.Fprintf(os.Stderr, "  %-14s %s  (%d/%d)\n\n", i18n.T("Coverage:"), progressBar(percent, 30), before-missing, before)
	return nil
}

// progressBar renders a colored bar followed by the percentage.
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 90:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return paint(color, bar) + fmt.Sprintf(" %3d%%", percent)
}

// ---------------------------------------------------------------------------
// extract (missing strings)
// ---------------------------------------------------------------------------

type extractArgs struct {
	in     string
	format string
	out    string
}

func newExtractCmd() *cobra.Command {
	var a extractArgs
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "List strings that are still untranslated",
		Long: `Localize a page, then collect every text and attribute value that
is still untranslated. The result is a PO template or an i18next JSON
skeleton. When --out already exists, its translations are kept and new
strings are added.

--in is an HTML file, or an http(s) URL that is opened in Chrome.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runExtract(ctx, a)
		},
	}
	cmd.Flags().StringVar(&a.in, "in", "", "HTML file or URL (required)")
	cmd.Flags().StringVar(&a.format, "format", "po", "Output format: po, i18next")
	cmd.Flags().StringVarP(&a.out, "out", "o", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newExtractor(w *walker.Walker) *extract.Extractor {
	return &extract.Extractor{
		Policy:           w.Policy,
		Script:           w.Translator.Script(),
		Attributes:       w.Attributes,
		StrictAttributes: w.StrictAttributes,
	}
}

func runExtract(ctx context.Context, a extractArgs) error {
	if a.format != "po" && a.format != "i18next" {
		return fmt.Errorf("unknown format %q (valid: po, i18next)", a.format)
	}
	cfg, logger, w, err := setup()
	if err != nil {
		return err
	}

	var res *extract.Result
	if strings.HasPrefix(a.in, "http://") || strings.HasPrefix(a.in, "https://") {
		res, err = extractURL(ctx, a.in, cfg, w, logger)
	} else {
		res, err = extractFile(a.in, w)
	}
	if err != nil {
		return err
	}
	if res.Len() == 0 {
		logSuccess("no untranslated strings found")
	}

	data, err := renderExtract(res, a, cfg)
	if err != nil {
		return err
	}
	if err := writeOutput(a.out, data); err != nil {
		return err
	}
	if res.Len() > 0 {
		logInfo("%d untranslated string(s)", res.Len())
	}
	return nil
}

func extractFile(path string, w *walker.Walker) (*extract.Result, error) {
	tree, body, err := readTree(path)
	if err != nil {
		return nil, err
	}
	if _, err := w.Pass(tree, body); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return newExtractor(w).Collect(body), nil
}

func extractURL(ctx context.Context, url string, cfg *config.File, w *walker.Walker, logger zerolog.Logger) (*extract.Result, error) {
	b, err := browser.Launch(ctx, watchArgs{}.browserConfig(cfg, logger))
	if err != nil {
		return nil, err
	}
	defer b.Close()
	page, err := b.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	// Let the application render before the pass, as watch does.
	select {
	case <-time.After(cfg.Timing.StartupDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	body, err := page.Body()
	if err != nil {
		return nil, err
	}
	if _, err := w.Pass(page, body); err != nil {
		logWarning("pass over %s: %v", url, err)
	}
	return newExtractor(w).Collect(body), nil
}

func renderExtract(res *extract.Result, a extractArgs, cfg *config.File) ([]byte, error) {
	var buf bytes.Buffer
	switch a.format {
	case "i18next":
		meta := langmeta.Resolve(cfg.TargetLang)
		f := res.Skeleton(i18next.Meta{Name: meta.Name, Flag: meta.Flag})
		if existing, err := readExisting(a.out, i18next.ParseFile); err != nil {
			return nil, err
		} else if existing != nil {
			for _, k := range f.Keys() {
				if _, ok := existing.Translations[k]; !ok {
					existing.Set(k, "")
				}
			}
			f = existing
		}
		buf.Write(f.Marshal())

	default:
		project := filepath.Base(absPath(cfg.Root))
		tmpl := res.Template(project, cfg.TargetLang)
		if existing, err := readExisting(a.out, pofile.ParseFile); err != nil {
			return nil, err
		} else if existing != nil {
			merged, stats := merge.Merge(existing, tmpl)
			logInfo("merged into %s: %d kept, %d added, %d obsolete", a.out, stats.Kept, stats.Added, stats.Obsolete)
			tmpl = merged
		}
		if err := tmpl.Write(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// readExisting parses path when it names an existing file.
func readExisting[T any](path string, parse func(string) (*T, error)) (*T, error) {
	if path == "" || path == "-" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return parse(path)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readTree parses an HTML file, honoring its declared charset.
func readTree(path string) (*dom.Tree, *html.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r, err := charset.NewReader(bytes.NewReader(data), "")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	tree, err := dom.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	body, err := tree.Body()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, body, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
