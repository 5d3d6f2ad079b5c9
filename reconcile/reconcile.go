// Package reconcile keeps a document localized while it mutates.
//
// A Loop runs one full pass after the document is ready and a startup
// delay, then watches child-list mutations. Bursts of mutations are
// debounced into a single pass. Mutations observed while a pass is running
// are dropped: they are assumed to be the pass's own writes.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minios-linux/domlokit/dom"
	"github.com/minios-linux/domlokit/walker"
	"github.com/rs/zerolog"
)

const (
	DefaultStartupDelay = time.Second
	DefaultDebounce     = 500 * time.Millisecond
	DefaultBanner       = "[domlokit] localization active"
)

// State is the loop's position in its state machine.
type State int

const (
	Idle State = iota
	Translating
	PendingDebounce
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Translating:
		return "translating"
	case PendingDebounce:
		return "pending-debounce"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules on the runtime timer.
type SystemScheduler struct{}

// AfterFunc implements Scheduler.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Result describes one finished pass.
type Result struct {
	Stats   walker.Stats
	Err     error
	Elapsed time.Duration
}

// Options configures a Loop. Zero durations take the defaults; a negative
// duration means no delay.
type Options struct {
	StartupDelay time.Duration
	Debounce     time.Duration
	Scheduler    Scheduler
	Logger       zerolog.Logger
	// Banner is logged once when the document is ready, whatever the
	// logger's level.
	Banner string
	// OnPass, if set, is called after every pass with the loop idle again.
	OnPass func(Result)
}

// Loop owns the reconciliation state for one document.
type Loop struct {
	doc    dom.Document
	walker *walker.Walker
	opts   Options
	log    zerolog.Logger

	watchOnce sync.Once

	mu      sync.Mutex
	state   State
	pending Timer
	gen     uint64
	passes  int
	dropped int
	stopped bool
	// rearm is set when the document was replaced during a pass.
	rearm bool
}

// New returns an idle loop over doc.
func New(doc dom.Document, w *walker.Walker, opts Options) *Loop {
	opts.StartupDelay = durationOr(opts.StartupDelay, DefaultStartupDelay)
	opts.Debounce = durationOr(opts.Debounce, DefaultDebounce)
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler{}
	}
	if opts.Banner == "" {
		opts.Banner = DefaultBanner
	}
	return &Loop{doc: doc, walker: w, opts: opts, log: opts.Logger}
}

func durationOr(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	}
	return d
}

// Run waits for the document to be ready, logs the banner, waits the
// startup delay and calls Bootstrap. It then blocks until ctx is done and
// cancels any pending pass. Cancellation before bootstrap returns
// ctx.Err(); after it Run returns nil.
func (l *Loop) Run(ctx context.Context) error {
	select {
	case <-l.doc.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	l.log.Log().Msg(l.opts.Banner)

	started := make(chan struct{})
	t := l.opts.Scheduler.AfterFunc(l.opts.StartupDelay, func() { close(started) })
	select {
	case <-started:
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}

	l.Bootstrap()
	<-ctx.Done()
	l.Stop()
	return nil
}

// Bootstrap runs the first pass and installs the mutation watcher. The
// watcher is installed at most once however often Bootstrap is called.
func (l *Loop) Bootstrap() Result {
	res, _ := l.RunPass()
	l.watchOnce.Do(func() {
		l.doc.Observe(l.onMutations)
		l.log.Debug().Msg("mutation watcher installed")
	})
	return res
}

// Stop cancels a pending pass and ignores further mutations. A pass in
// progress finishes normally.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	l.rearm = false
	l.cancelPending()
	if l.state == PendingDebounce {
		l.state = Idle
	}
}

// RunPass runs one full pass over the document body unless a pass is
// already running, in which case the call is dropped and ran is false.
// A pending debounced pass is absorbed by this one.
func (l *Loop) RunPass() (res Result, ran bool) {
	l.mu.Lock()
	ok := l.begin()
	l.mu.Unlock()
	if !ok {
		return Result{}, false
	}
	return l.pass(), true
}

// begin moves to Translating. Must be called with mu held.
func (l *Loop) begin() bool {
	if l.state == Translating {
		l.dropped++
		return false
	}
	l.cancelPending()
	l.state = Translating
	return true
}

// cancelPending stops the debounce timer and invalidates a callback that
// may already be running. Must be called with mu held.
func (l *Loop) cancelPending() {
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
	l.gen++
}

func (l *Loop) pass() (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("pass panicked: %v", r)
		}
		res.Elapsed = time.Since(start)

		l.mu.Lock()
		l.state = Idle
		l.passes++
		if l.rearm && !l.stopped {
			l.rearm = false
			l.schedule()
			l.log.Debug().Msg("document replaced during pass, pass scheduled")
		}
		l.mu.Unlock()

		if res.Err != nil {
			l.log.Warn().Err(res.Err).Msg("translation pass failed")
		}
		if l.opts.OnPass != nil {
			l.opts.OnPass(res)
		}
	}()

	body, err := l.doc.Body()
	if err != nil {
		res.Err = fmt.Errorf("reading document body: %w", err)
		return res
	}
	res.Stats, res.Err = l.walker.Pass(l.doc, body)
	return res
}

// onMutations schedules a debounced pass. Child-list batches that arrive
// during a pass are dropped since they are mostly the pass's own writes. A
// replaced document is not: the pass may have read the old body, so another
// pass is scheduled once it finishes.
func (l *Loop) onMutations(batch []dom.Mutation) {
	relevant, replaced := false, false
	for _, m := range batch {
		switch m.Kind {
		case dom.ChildList:
			relevant = true
		case dom.DocumentReplaced:
			relevant, replaced = true, true
		}
	}
	if !relevant {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	if l.state == Translating {
		if replaced {
			l.rearm = true
			return
		}
		l.dropped++
		return
	}
	l.schedule()
	l.log.Debug().Int("mutations", len(batch)).Dur("debounce", l.opts.Debounce).Msg("pass scheduled")
}

// schedule (re)starts the debounce timer. Must be called with mu held.
func (l *Loop) schedule() {
	l.cancelPending()
	gen := l.gen
	l.state = PendingDebounce
	l.pending = l.opts.Scheduler.AfterFunc(l.opts.Debounce, func() { l.fire(gen) })
}

// fire runs the debounced pass unless it was superseded.
func (l *Loop) fire(gen uint64) {
	l.mu.Lock()
	if gen != l.gen || l.state != PendingDebounce {
		l.mu.Unlock()
		return
	}
	l.pending = nil
	ok := l.begin()
	l.mu.Unlock()
	if ok {
		l.pass()
	}
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Passes returns the number of passes that have finished.
func (l *Loop) Passes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.passes
}

// Dropped returns how many mutation batches and pass requests were
// ignored because a pass was running.
func (l *Loop) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
