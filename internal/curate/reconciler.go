package curate

import (
	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/dom"
	"github.com/glabrego/deploytidy/internal/settings"
)

const (
	markerSuccessful = "deploytidy-hidden-successful"
	markerOld        = "deploytidy-hidden-old"
	markerDestroyed  = "deploytidy-hidden-destroyed"
	markerFailed     = "deploytidy-hidden-failed"

	// DataKey is the data attribute (data-deploytidy) recording the category.
	DataKey = "deploytidy"
)

// TaggedShape matches every element a pass has classified.
var TaggedShape = dom.Shape{Attr: "data-" + DataKey}

var allMarkers = []string{markerSuccessful, markerOld, markerDestroyed, markerFailed}

// visibilityRule hides the listed categories under marker when enabled for
// the snapshot. Rules are evaluated in order and the first match wins.
type visibilityRule struct {
	categories []Category
	marker     string
	hides      func(s settings.Snapshot) bool
}

var visibilityRules = []visibilityRule{
	{
		categories: []Category{Successful, OldSuccessful},
		marker:     markerSuccessful,
		hides:      func(s settings.Snapshot) bool { return s.HideSuccessfulDeployments },
	},
	{
		categories: []Category{OldSuccessful},
		marker:     markerOld,
		hides:      func(s settings.Snapshot) bool { return s.HideOldSuccessfulDeployments },
	},
	{
		categories: []Category{Destroyed},
		marker:     markerDestroyed,
		hides:      func(s settings.Snapshot) bool { return s.HideDestroyedDeployments },
	},
	{
		categories: []Category{Failed},
		marker:     markerFailed,
		hides:      func(s settings.Snapshot) bool { return s.HideFailedDeployments },
	},
}

func (r visibilityRule) covers(c Category) bool {
	for _, candidate := range r.categories {
		if candidate == c {
			return true
		}
	}
	return false
}

// Decide returns the hide marker for entry, or "" when it stays visible.
func Decide(s settings.Snapshot, entry Entry) string {
	if !s.Enabled {
		return ""
	}
	for _, rule := range visibilityRules {
		if rule.covers(entry.Category) && rule.hides(s) {
			return rule.marker
		}
	}
	return ""
}

// Tally counts the entries of one category by visibility.
type Tally struct {
	Visible int `yaml:"visible" json:"visible"`
	Hidden  int `yaml:"hidden" json:"hidden"`
}

// Stats summarizes one reconciliation per category.
type Stats struct {
	Successful    Tally `yaml:"successful" json:"successful"`
	OldSuccessful Tally `yaml:"oldSuccessful" json:"oldSuccessful"`
	Destroyed     Tally `yaml:"destroyed" json:"destroyed"`
	Failed        Tally `yaml:"failed" json:"failed"`
}

func (s *Stats) add(c Category, hidden bool) {
	var t *Tally
	switch c {
	case Successful:
		t = &s.Successful
	case OldSuccessful:
		t = &s.OldSuccessful
	case Destroyed:
		t = &s.Destroyed
	case Failed:
		t = &s.Failed
	default:
		return
	}
	if hidden {
		t.Hidden++
		return
	}
	t.Visible++
}

func (s Stats) Hidden() int {
	return s.Successful.Hidden + s.OldSuccessful.Hidden + s.Destroyed.Hidden + s.Failed.Hidden
}

// Reconciler applies visibility decisions as marker toggles. It never removes
// or reorders content.
type Reconciler struct {
	log zerolog.Logger
}

func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Apply sets every marker of every entry to its desired state. Running it
// again with the same inputs changes nothing.
func (r *Reconciler) Apply(s settings.Snapshot, entries []Entry) Stats {
	var stats Stats
	for _, entry := range entries {
		want := Decide(s, entry)
		for _, marker := range allMarkers {
			entry.Element.SetClass(marker, marker == want)
		}
		entry.Element.SetData(DataKey, entry.Category.String())
		stats.add(entry.Category, want != "")
	}
	r.log.Debug().
		Int("entries", len(entries)).
		Int("hidden", stats.Hidden()).
		Msg("reconciled timeline entries")
	return stats
}

// Clear removes every marker from elements that dropped out of
// classification and records them as unclassified.
func (r *Reconciler) Clear(elements []dom.Element) {
	for _, el := range elements {
		for _, marker := range allMarkers {
			el.SetClass(marker, false)
		}
		el.SetData(DataKey, Unclassified.String())
	}
	if len(elements) > 0 {
		r.log.Debug().Int("elements", len(elements)).Msg("cleared markers from stale entries")
	}
}
