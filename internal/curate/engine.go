package curate

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/dom"
	"github.com/glabrego/deploytidy/internal/logging"
	"github.com/glabrego/deploytidy/internal/settings"
)

// Event is one input to the engine's run-to-completion loop.
type Event interface {
	eventName() string
}

// InitEvent starts curation of a freshly attached page.
type InitEvent struct{}

// SettingsChangedEvent carries a partial settings record pushed by the UI.
type SettingsChangedEvent struct {
	Settings map[string]any
}

// MutationEvent carries one batch of observed document changes.
type MutationEvent struct {
	Batch []dom.Mutation
}

// NavigationEvent marks a client-side route transition.
type NavigationEvent struct{}

// FlushEvent closes Done once every event queued before it has been handled.
type FlushEvent struct {
	Done chan struct{}
}

func (InitEvent) eventName() string            { return "init" }
func (SettingsChangedEvent) eventName() string { return "settings" }
func (MutationEvent) eventName() string        { return "mutations" }
func (NavigationEvent) eventName() string      { return "navigation" }
func (FlushEvent) eventName() string           { return "flush" }

const defaultQueueSize = 64

// maxDrainRounds caps Drain for hosts that keep producing mutations.
const maxDrainRounds = 1000

// Engine owns the settings snapshot and the per-page expansion state. All
// handlers run on one goroutine, one event at a time.
type Engine struct {
	doc        dom.Document
	snapshot   settings.Snapshot
	state      ExpansionState
	classifier Classifier
	reconciler *Reconciler
	expander   *Expander
	watcher    *Watcher

	events chan Event
	done   chan struct{}
	pageID string
	stats  Stats
	log    zerolog.Logger
}

type Option func(*Engine)

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.events = make(chan Event, n)
		}
	}
}

func NewEngine(doc dom.Document, snapshot settings.Snapshot, opts ...Option) *Engine {
	e := &Engine{
		doc:      doc,
		snapshot: snapshot.Merge(nil),
		events:   make(chan Event, defaultQueueSize),
		done:     make(chan struct{}),
		pageID:   uuid.NewString(),
		log:      logging.Component("curate"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reconciler = NewReconciler(e.log)
	e.expander = NewExpander(&e.state, e.log)
	e.watcher = NewWatcher(e.reconciler, e.expander, e.log)
	return e
}

// Post queues ev for the run loop. It reports false once the loop has stopped.
func (e *Engine) Post(ev Event) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}

// Run drains the event queue until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-e.events:
			e.Dispatch(ev)
		}
	}
}

// Dispatch handles a single event to completion on the caller's goroutine.
// Use it directly only when no Run loop is active.
func (e *Engine) Dispatch(ev Event) {
	defer e.release(ev)
	switch ev := ev.(type) {
	case InitEvent:
		e.fullPass(ev.eventName())
	case SettingsChangedEvent:
		e.snapshot = e.snapshot.Merge(ev.Settings)
		e.fullPass(ev.eventName())
	case MutationEvent:
		e.watcher.Handle(e.doc, e.snapshot, ev.Batch)
	case NavigationEvent:
		e.state.Reset()
		e.pageID = uuid.NewString()
		e.fullPass(ev.eventName())
	case FlushEvent:
		if ev.Done != nil {
			close(ev.Done)
		}
	default:
		e.log.Warn().Type("event", ev).Msg("ignoring unknown event")
	}
}

// release frees host resources pinned while handling ev: the batch's own
// elements and whatever the document handed out during the event.
func (e *Engine) release(ev Event) {
	if batch, ok := ev.(MutationEvent); ok {
		for _, m := range batch.Batch {
			releaseElement(m.Target)
			for _, el := range m.Added {
				releaseElement(el)
			}
		}
	}
	if r, ok := e.doc.(dom.Releaser); ok {
		r.Release()
	}
}

func releaseElement(el dom.Element) {
	if r, ok := el.(dom.Releaser); ok {
		r.Release()
	}
}

// Drain dispatches mutation batches from take until it returns none, for
// documents that record mutations instead of pushing them.
func (e *Engine) Drain(take func() []dom.Mutation) int {
	rounds := 0
	for ; rounds < maxDrainRounds; rounds++ {
		batch := take()
		if len(batch) == 0 {
			break
		}
		e.Dispatch(MutationEvent{Batch: batch})
	}
	return rounds
}

func (e *Engine) fullPass(reason string) {
	classification := e.classifier.Classify(e.doc)
	e.stats = e.reconciler.Apply(e.snapshot, classification.Entries())
	e.reconciler.Clear(e.classifier.Stale(e.doc))
	e.expander.ExpandEnvironments(e.doc, e.snapshot)
	e.expander.AdjustEnvironmentsHeight(e.doc, e.snapshot)
	e.expander.LoadMore(e.doc, e.snapshot)
	e.log.Info().
		Str("reason", reason).
		Str("page_id", e.pageID).
		Bool("enabled", e.snapshot.Enabled).
		Int("hidden", e.stats.Hidden()).
		Int("expansions", e.state.ExpansionCount).
		Msg("full curation pass")
}

func (e *Engine) Snapshot() settings.Snapshot { return e.snapshot }

func (e *Engine) State() ExpansionState { return e.state }

// Stats reports the outcome of the last full pass.
func (e *Engine) Stats() Stats { return e.stats }

func (e *Engine) PageID() string { return e.pageID }
