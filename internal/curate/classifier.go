// Package curate decides which timeline entries of a host page are visible
// and drives the page's expand and pagination controls.
package curate

import (
	"strings"

	"github.com/glabrego/deploytidy/internal/dom"
)

// Category is the visibility class of a timeline entry.
type Category int

const (
	Unclassified Category = iota
	Successful
	OldSuccessful
	Destroyed
	Failed
)

func (c Category) String() string {
	switch c {
	case Successful:
		return "successful"
	case OldSuccessful:
		return "old-successful"
	case Destroyed:
		return "destroyed"
	case Failed:
		return "failed"
	default:
		return "unclassified"
	}
}

// Entry is one classified timeline unit. Entries are rebuilt on every scan.
type Entry struct {
	Element        dom.Element
	Category       Category
	EnvironmentKey string
	MostRecent     bool
}

// Classification is the result of one full scan of the document.
type Classification struct {
	// Deployments holds successful-like entries in document order.
	Deployments []Entry
	// Statuses holds destroyed and failed entries in document order.
	Statuses []Entry
}

func (c Classification) Entries() []Entry {
	out := make([]Entry, 0, len(c.Deployments)+len(c.Statuses))
	out = append(out, c.Deployments...)
	return append(out, c.Statuses...)
}

// Classifier tags timeline entries. It only reads the document.
type Classifier struct{}

func (c Classifier) Classify(doc dom.Document) Classification {
	return Classification{
		Deployments: c.Deployments(doc),
		Statuses:    classifyItems(doc.Query(TimelineItemShape)),
	}
}

// Deployments returns every deployment partial not carrying a destroyed or
// failed status, grouped by environment so that only the last entry of each
// environment is Successful and the rest are OldSuccessful.
func (c Classifier) Deployments(doc dom.Document) []Entry {
	partials := doc.Query(DeploymentShape)
	entries := make([]Entry, 0, len(partials))
	for _, partial := range partials {
		if _, labeled := statusOf(statusScope(partial)); labeled {
			continue
		}
		entries = append(entries, Entry{
			Element:        partial,
			Category:       Successful,
			EnvironmentKey: environmentKey(partial),
		})
	}
	markMostRecent(entries)
	return entries
}

// Stale returns elements tagged by an earlier pass that no longer classify as
// any entry: a nested deployment whose item gained a status label, or an item
// whose label went away.
func (c Classifier) Stale(doc dom.Document) []dom.Element {
	var out []dom.Element
	for _, el := range doc.Query(TaggedShape) {
		if v, _ := el.Attr("data-" + DataKey); v == Unclassified.String() {
			continue
		}
		if el.Matches(DeploymentShape) {
			if _, labeled := statusOf(statusScope(el)); !labeled {
				continue
			}
		}
		if el.Matches(TimelineItemShape) {
			if _, ok := statusOf(el); ok {
				continue
			}
		}
		out = append(out, el)
	}
	return out
}

// ClassifyStatuses classifies the timeline items touched by roots: the item
// enclosing each root, or the items inside it.
func (c Classifier) ClassifyStatuses(roots []dom.Element) []Entry {
	var items []dom.Element
	for _, root := range roots {
		if item, ok := root.Closest(TimelineItemShape); ok {
			items = append(items, item)
			continue
		}
		items = append(items, root.Query(TimelineItemShape)...)
	}
	return classifyItems(items)
}

func classifyItems(items []dom.Element) []Entry {
	var out []Entry
	for _, item := range items {
		category, ok := statusOf(item)
		if !ok {
			continue
		}
		out = append(out, Entry{Element: item, Category: category})
	}
	return out
}

func statusScope(partial dom.Element) dom.Element {
	if item, ok := partial.Closest(TimelineItemShape); ok {
		return item
	}
	return partial
}

// statusOf inspects the status labels inside scope. Destroyed wins over failed.
func statusOf(scope dom.Element) (Category, bool) {
	failed := false
	for _, label := range scope.Query(StatusLabelShape) {
		title, _ := label.Attr("title")
		title = strings.ToLower(title)
		text := strings.ToLower(label.Text())
		if strings.Contains(text, "destroyed") || strings.Contains(title, "destroyed") {
			return Destroyed, true
		}
		if strings.Contains(title, "fail") {
			failed = true
		}
	}
	if failed {
		return Failed, true
	}
	return Unclassified, false
}

func environmentKey(entry dom.Element) string {
	scope := entry
	if bodies := entry.Query(TimelineBodyShape); len(bodies) > 0 {
		scope = bodies[0]
	}
	links := scope.Query(EnvironmentLinkShape)
	if len(links) == 0 {
		return UnknownEnvironment
	}
	key := strings.TrimSpace(links[0].Text())
	if key == "" {
		return UnknownEnvironment
	}
	return key
}

// markMostRecent flags the last entry per environment key. The host renders
// chronologically, so document order is recency order.
func markMostRecent(entries []Entry) {
	last := make(map[string]int, len(entries))
	for i, entry := range entries {
		last[entry.EnvironmentKey] = i
	}
	for i := range entries {
		if last[entries[i].EnvironmentKey] == i {
			entries[i].MostRecent = true
			entries[i].Category = Successful
			continue
		}
		entries[i].MostRecent = false
		entries[i].Category = OldSuccessful
	}
}
