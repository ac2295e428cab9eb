package curate

import (
	"strings"

	"github.com/glabrego/deploytidy/internal/dom"
)

// Structural markers of the host timeline.
var (
	DeploymentShape       = dom.Shape{Attr: "data-partial-name", AttrValue: "deployment"}
	TimelineItemShape     = dom.Shape{Classes: []string{"TimelineItem"}}
	TimelineBodyShape     = dom.Shape{Classes: []string{"TimelineItem-body"}}
	StatusLabelShape      = dom.Shape{Tag: "span", Classes: []string{"Label"}}
	EnvironmentLinkShape  = dom.Shape{Tag: "a", Classes: []string{"Link--primary", "text-bold"}}
	EnvironmentsToggle    = dom.Shape{Tag: "button", Classes: []string{"js-environments-toggle"}}
	EnvironmentsListShape = dom.Shape{Classes: []string{"js-environments-list"}}
	ButtonShape           = dom.Shape{Tag: "button"}
)

const (
	UnknownEnvironment = "unknown"
	loadMoreLabel      = "load more"
	expandedAttr       = "aria-expanded"
	heightProperty     = "max-height"
	heightStashKey     = "deploytidy-max-height"
)

// Stylesheet hides every element carrying a hide marker. Backends inject it
// once per page.
var Stylesheet = strings.Join([]string{
	"." + markerSuccessful,
	"." + markerOld,
	"." + markerDestroyed,
	"." + markerFailed,
}, ",\n") + " {\n  display: none !important;\n}\n"

func isLoadMoreControl(el dom.Element) bool {
	if !el.Matches(ButtonShape) {
		return false
	}
	if _, disabled := el.Attr("disabled"); disabled {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(el.Text()), loadMoreLabel)
}

func containsLoadMoreControl(el dom.Element) bool {
	if isLoadMoreControl(el) {
		return true
	}
	for _, button := range el.Query(ButtonShape) {
		if isLoadMoreControl(button) {
			return true
		}
	}
	return false
}

func isExpanded(toggle dom.Element) bool {
	v, _ := toggle.Attr(expandedAttr)
	return v == "true"
}
