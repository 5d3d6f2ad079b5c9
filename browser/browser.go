// Package browser exposes a live Chrome tab as a dom.Document.
//
// The page is mirrored into an html.Node tree with DOM.getDocument. The
// mirror is rebuilt on the next Body call after a child-list event in the
// body or a document replacement. Text and attribute writes go back to the
// page through the CDP DOM domain, which does not emit child-list events
// for them.
package browser

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/minios-linux/domlokit/dom"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Config configures Chrome.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local one.
	RemoteURL string
	Headless  bool
	// Stealth opens tabs with go-rod/stealth evasions applied.
	Stealth bool
	// NavigateTimeout bounds navigation and load. Default 30s.
	NavigateTimeout time.Duration
	Logger          zerolog.Logger
}

// Browser is a connected Chrome instance.
type Browser struct {
	cfg  Config
	rod  *rod.Browser
	lnch *launcher.Launcher
}

// Launch starts or connects to Chrome.
func Launch(ctx context.Context, cfg Config) (*Browser, error) {
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = 30 * time.Second
	}
	b := &Browser{cfg: cfg}

	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Context(ctx).Headless(cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		cfg.Logger.Info().Str("url", wsURL).Bool("headless", cfg.Headless).Msg("launched local chrome")
	} else {
		cfg.Logger.Info().Str("url", wsURL).Msg("connecting to remote chrome")
	}

	r := rod.New().Context(ctx).ControlURL(wsURL)
	if err := r.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.rod = r
	return b, nil
}

// Close disconnects and, for a launched Chrome, kills it.
func (b *Browser) Close() error {
	var err error
	if b.rod != nil {
		err = b.rod.Close()
	}
	b.cleanup()
	return err
}

func (b *Browser) cleanup() {
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch.Cleanup()
	}
}

// Open creates a tab, navigates to pageURL and builds the first mirror.
// Child-list events are tracked until ctx is done or the page is closed.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if b.cfg.Stealth {
		page, err = stealth.Page(b.rod)
	} else {
		page, err = b.rod.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigateTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn().Err(err).Str("url", pageURL).Msg("wait load failed")
	}

	pctx, pcancel := context.WithCancel(ctx)
	p := &Page{
		page:   page,
		url:    pageURL,
		log:    b.cfg.Logger.With().Str("url", pageURL).Logger(),
		ctx:    pctx,
		cancel: pcancel,
		ready:  make(chan struct{}),
		dirty:  true,
	}
	if err := (proto.DOMEnable{}).Call(page); err != nil {
		p.Close()
		return nil, fmt.Errorf("browser: DOM.enable: %w", err)
	}
	if _, err := p.Body(); err != nil {
		p.Close()
		return nil, err
	}
	go p.listen()
	close(p.ready)
	return p, nil
}

// Page is one tab. It implements dom.Document.
type Page struct {
	page   *rod.Page
	url    string
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}

	mu        sync.Mutex
	mirror    *mirror
	dirty     bool
	rebuilds  int
	observers []func([]dom.Mutation)
}

// URL returns the address the page was opened with.
func (p *Page) URL() string {
	return p.url
}

// Rebuilds returns how many times the mirror has been rebuilt.
func (p *Page) Rebuilds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rebuilds
}

// Close stops event tracking and closes the tab.
func (p *Page) Close() error {
	p.cancel()
	return p.page.Close()
}

// Body implements dom.Document. The returned nodes stay valid for writes
// until the next child-list event.
func (p *Page) Body() (*html.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dirty || p.mirror == nil {
		depth := -1
		doc, err := proto.DOMGetDocument{Depth: &depth}.Call(p.page)
		if err != nil {
			return nil, fmt.Errorf("browser: DOM.getDocument: %w", err)
		}
		p.mirror = buildMirror(doc.Root)
		p.dirty = false
		p.rebuilds++
		p.log.Debug().Int("nodes", len(p.mirror.ids)).Msg("mirror rebuilt")
	}

	body := dom.FindElement(p.mirror.root, "body")
	if body == nil {
		return nil, dom.ErrNoBody
	}
	return body, nil
}

func (p *Page) nodeID(n *html.Node) (proto.DOMNodeID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mirror == nil {
		return 0, fmt.Errorf("browser: no mirror")
	}
	id, ok := p.mirror.ids[n]
	if !ok {
		return 0, fmt.Errorf("browser: node is not part of the current mirror")
	}
	return id, nil
}

// SetText implements dom.Document.
func (p *Page) SetText(n *html.Node, text string) error {
	id, err := p.nodeID(n)
	if err != nil {
		return err
	}
	if err := (proto.DOMSetNodeValue{NodeID: id, Value: text}).Call(p.page); err != nil {
		return fmt.Errorf("browser: DOM.setNodeValue: %w", err)
	}
	n.Data = text
	return nil
}

// SetAttr implements dom.Document.
func (p *Page) SetAttr(el *html.Node, name, value string) error {
	id, err := p.nodeID(el)
	if err != nil {
		return err
	}
	if err := (proto.DOMSetAttributeValue{NodeID: id, Name: name, Value: value}).Call(p.page); err != nil {
		return fmt.Errorf("browser: DOM.setAttributeValue: %w", err)
	}
	dom.SetAttribute(el, name, value)
	return nil
}

// Observe implements dom.Document.
func (p *Page) Observe(fn func([]dom.Mutation)) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// Ready implements dom.Document. It is closed by the time Open returns.
func (p *Page) Ready() <-chan struct{} {
	return p.ready
}

// listen marks the mirror dirty on child-list events and forwards them.
// Character data and attribute events are not subscribed. documentUpdated
// invalidates every node id, so it is forwarded as DocumentReplaced; the
// next Body call fetches the new document, which re-arms child events.
func (p *Page) listen() {
	wait := p.page.Context(p.ctx).EachEvent(
		func(e *proto.DOMChildNodeInserted) {
			p.changed(e.ParentNodeID, dom.ChildList)
		},
		func(e *proto.DOMChildNodeRemoved) {
			p.changed(e.ParentNodeID, dom.ChildList)
		},
		func(e *proto.DOMDocumentUpdated) {
			p.changed(0, dom.DocumentReplaced)
		},
	)
	wait()
}

// changed records a structural change under parent. Child-list changes
// under a mirrored node outside the body leave the mirror as it is and are
// not forwarded; an unknown parent is forwarded since it may be a body node
// added after the last rebuild.
func (p *Page) changed(parent proto.DOMNodeID, kind dom.MutationKind) {
	p.mu.Lock()
	var target *html.Node
	if p.mirror != nil {
		target = p.mirror.nodes[parent]
	}
	if kind == dom.ChildList && target != nil && !dom.InBody(target) {
		p.mu.Unlock()
		p.log.Trace().Int("parent", int(parent)).Msg("ignoring change outside body")
		return
	}
	p.dirty = true
	observers := slices.Clone(p.observers)
	p.mu.Unlock()

	p.log.Trace().Stringer("kind", kind).Msg("document changed")
	m := []dom.Mutation{{Kind: kind, Target: target}}
	for _, fn := range observers {
		fn(m)
	}
}
