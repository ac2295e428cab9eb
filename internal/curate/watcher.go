package curate

import (
	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/dom"
	"github.com/glabrego/deploytidy/internal/settings"
)

// triggers is a mutation batch folded into the work it calls for. Overlapping
// records collapse into one run of each handler.
type triggers struct {
	deployments         bool
	statusRoots         []dom.Element
	pagination          bool
	environmentsSection bool
	environmentsList    bool
	toggle              dom.Element
}

func (t triggers) empty() bool {
	return !t.deployments && len(t.statusRoots) == 0 && !t.pagination &&
		!t.environmentsSection && !t.environmentsList && t.toggle == nil
}

func collectTriggers(batch []dom.Mutation) triggers {
	var t triggers
	for _, m := range batch {
		switch m.Type {
		case dom.ChildList:
			for _, added := range m.Added {
				if dom.MatchesOrContains(added, DeploymentShape) {
					t.deployments = true
				}
				if dom.MatchesOrContains(added, StatusLabelShape) {
					t.statusRoots = append(t.statusRoots, added)
				}
				if dom.MatchesOrContains(added, TimelineItemShape) || containsLoadMoreControl(added) {
					t.pagination = true
				}
				if dom.MatchesOrContains(added, EnvironmentsToggle) {
					t.environmentsSection = true
				}
				if dom.MatchesOrContains(added, EnvironmentsListShape) {
					t.environmentsList = true
				}
			}
		case dom.Attributes:
			if m.AttributeName == expandedAttr && m.Target != nil && m.Target.Matches(EnvironmentsToggle) {
				// Later records win; the attribute is read when handled.
				t.toggle = m.Target
			}
		}
	}
	return t
}

// Watcher turns observed mutations into incremental curation work.
type Watcher struct {
	classifier Classifier
	reconciler *Reconciler
	expander   *Expander
	log        zerolog.Logger
}

func NewWatcher(reconciler *Reconciler, expander *Expander, log zerolog.Logger) *Watcher {
	return &Watcher{reconciler: reconciler, expander: expander, log: log}
}

// Handle processes one batch. Every step is idempotent, so redundant batches
// are harmless.
func (w *Watcher) Handle(doc dom.Document, s settings.Snapshot, batch []dom.Mutation) {
	t := collectTriggers(batch)
	if t.empty() {
		return
	}
	w.log.Debug().
		Int("records", len(batch)).
		Bool("deployments", t.deployments).
		Int("status_roots", len(t.statusRoots)).
		Bool("pagination", t.pagination).
		Msg("handling mutations")

	// Grouping spans the whole document, so any new deployment or status
	// reruns the successful family in full.
	if t.deployments || len(t.statusRoots) > 0 {
		w.reconciler.Apply(s, w.classifier.Deployments(doc))
		w.reconciler.Clear(w.classifier.Stale(doc))
	}
	if len(t.statusRoots) > 0 {
		w.reconciler.Apply(s, w.classifier.ClassifyStatuses(t.statusRoots))
	}

	if t.environmentsSection {
		w.expander.ExpandEnvironments(doc, s)
		w.expander.AdjustEnvironmentsHeight(doc, s)
	}
	if t.environmentsList && s.Enabled && s.EnvironmentsFullHeight {
		if toggle, ok := environmentsToggle(doc); ok && isExpanded(toggle) {
			w.expander.setFullHeight(doc, true)
		}
	}
	if t.toggle != nil {
		switch {
		case !isExpanded(t.toggle):
			// Never fight a manual collapse.
			w.expander.setFullHeight(doc, false)
		case s.Enabled && s.EnvironmentsFullHeight:
			w.expander.setFullHeight(doc, true)
		}
	}

	if t.pagination {
		w.expander.LoadMore(doc, s)
	}
}
