package curate

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/deploytidy/internal/dom"
	"github.com/glabrego/deploytidy/internal/dom/htmldoc"
	"github.com/glabrego/deploytidy/internal/settings"
)

var (
	timelineShape = dom.Shape{Attr: "id", AttrValue: "timeline"}
	sectionShape  = dom.Shape{Attr: "id", AttrValue: "environments"}
)

func quietLog() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func deployment(id, env string) string {
	return fmt.Sprintf(`<div class="TimelineItem" id=%q data-partial-name="deployment">`+
		`<div class="TimelineItem-body">deployed to <a class="Link--primary text-bold" href="#">%s</a></div></div>`, id, env)
}

func destroyed(id string) string {
	return fmt.Sprintf(`<div class="TimelineItem" id=%q><span class="Label" title="Status: destroyed">Destroyed</span></div>`, id)
}

func failed(id string) string {
	return fmt.Sprintf(`<div class="TimelineItem" id=%q><span class="Label" title="Deployment failure">Failed</span></div>`, id)
}

// nestedDeployment is a deployment partial inside its own timeline item.
func nestedDeployment(itemID, id, env string) string {
	return fmt.Sprintf(`<div class="TimelineItem" id=%q><div id=%q data-partial-name="deployment">`+
		`<div class="TimelineItem-body">deployed to <a class="Link--primary text-bold" href="#">%s</a></div></div></div>`, itemID, id, env)
}

const loadMoreButton = `<div class="ajax-pagination-form"><button type="submit">Load more</button></div>`

func environmentsSection(expanded bool) string {
	return fmt.Sprintf(`<div id="environments"><button class="js-environments-toggle" aria-expanded="%t">Show environments</button>`+
		`<ul class="js-environments-list"><li>staging</li><li>production</li></ul></div>`, expanded)
}

func page(parts ...string) string {
	return `<html><head><title>PR</title></head><body><div id="timeline">` +
		strings.Join(parts, "\n") + `</div></body></html>`
}

func mustDoc(t testing.TB, raw string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(raw)
	require.NoError(t, err)
	return doc
}

func byID(t testing.TB, doc *htmldoc.Document, id string) *htmldoc.Element {
	t.Helper()
	el, ok := doc.First(dom.Shape{Attr: "id", AttrValue: id})
	require.True(t, ok, "element %q not found", id)
	return el
}

func hiddenIDs(doc *htmldoc.Document) []string {
	var ids []string
	for _, el := range doc.Find(dom.Shape{Attr: "id"}) {
		for _, marker := range allMarkers {
			if el.HasClass(marker) {
				id, _ := el.Attr("id")
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

func allOff() settings.Snapshot {
	return settings.Snapshot{Enabled: true, ExpansionLimit: settings.MinExpansionLimit}
}

// fakeElement is an in-memory entry element for reconciler tests.
type fakeElement struct {
	classes  map[string]bool
	data     map[string]string
	released bool
}

func newFakeElement() *fakeElement {
	return &fakeElement{classes: map[string]bool{}, data: map[string]string{}}
}

func (f *fakeElement) Tag() string                           { return "div" }
func (f *fakeElement) Attr(string) (string, bool)            { return "", false }
func (f *fakeElement) Text() string                          { return "" }
func (f *fakeElement) Matches(dom.Shape) bool                { return false }
func (f *fakeElement) Query(dom.Shape) []dom.Element         { return nil }
func (f *fakeElement) Closest(dom.Shape) (dom.Element, bool) { return nil, false }
func (f *fakeElement) SetData(key, value string)             { f.data[key] = value }
func (f *fakeElement) ClearData(key string)                  { delete(f.data, key) }
func (f *fakeElement) Style(string) string                   { return "" }
func (f *fakeElement) SetStyle(string, string)               {}
func (f *fakeElement) ClearStyle(string)                     {}
func (f *fakeElement) Activate() error                       { return nil }
func (f *fakeElement) SetClass(name string, on bool) {
	if on {
		f.classes[name] = true
		return
	}
	delete(f.classes, name)
}

func (f *fakeElement) Release() { f.released = true }

func (f *fakeElement) hidden() bool {
	return len(f.classes) > 0
}
