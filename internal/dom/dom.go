// Package dom describes the narrow view of a host page that curation needs:
// find elements by shape, tag them, and activate controls.
package dom

import (
	"strconv"
	"strings"
)

// Shape is a declarative element matcher. Zero fields match anything.
type Shape struct {
	Tag     string
	Classes []string
	// Attr names an attribute that must be present. AttrValue, when set,
	// requires an exact value; AttrPrefix requires a value prefix.
	Attr       string
	AttrValue  string
	AttrPrefix string
}

// Selector renders the shape as a CSS selector for live pages.
func (s Shape) Selector() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(s.Tag))
	for _, class := range s.Classes {
		b.WriteString(".")
		b.WriteString(class)
	}
	if s.Attr != "" {
		b.WriteString("[")
		b.WriteString(s.Attr)
		switch {
		case s.AttrValue != "":
			b.WriteString("=")
			b.WriteString(strconv.Quote(s.AttrValue))
		case s.AttrPrefix != "":
			b.WriteString("^=")
			b.WriteString(strconv.Quote(s.AttrPrefix))
		}
		b.WriteString("]")
	}
	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

// Match reports whether an element with the given tag and attributes fits
// the shape.
func (s Shape) Match(tag string, attr func(name string) (string, bool)) bool {
	if s.Tag != "" && !strings.EqualFold(s.Tag, tag) {
		return false
	}
	if len(s.Classes) > 0 {
		classAttr, _ := attr("class")
		have := strings.Fields(classAttr)
		for _, want := range s.Classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	if s.Attr != "" {
		val, ok := attr(s.Attr)
		if !ok {
			return false
		}
		if s.AttrValue != "" && val != s.AttrValue {
			return false
		}
		if s.AttrPrefix != "" && !strings.HasPrefix(val, s.AttrPrefix) {
			return false
		}
	}
	return true
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

// Element is an opaque handle to one node of the host document.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	// Text is the element's text content with whitespace collapsed.
	Text() string
	Matches(s Shape) bool
	// Query returns descendants matching s in document order.
	Query(s Shape) []Element
	// Closest returns the element itself or its nearest ancestor matching s.
	Closest(s Shape) (Element, bool)

	SetClass(name string, on bool)
	SetData(key, value string)
	ClearData(key string)
	// Style returns the element's inline value for prop, or "".
	Style(prop string) string
	SetStyle(prop, value string)
	ClearStyle(prop string)
	// Activate performs the control's user interaction (a click).
	Activate() error
}

// Document is the queryable host page.
type Document interface {
	Query(s Shape) []Element
}

// Releaser is implemented by documents and elements that pin host resources.
// Release frees them once the current event has been handled.
type Releaser interface {
	Release()
}

type MutationType int

const (
	ChildList MutationType = iota
	Attributes
)

func (t MutationType) String() string {
	if t == Attributes {
		return "attributes"
	}
	return "childList"
}

// Mutation is one observed change to the host document.
type Mutation struct {
	Type          MutationType
	Target        Element
	Added         []Element
	AttributeName string
}

// MatchesOrContains reports whether el fits s or has a descendant that does.
func MatchesOrContains(el Element, s Shape) bool {
	if el == nil {
		return false
	}
	if el.Matches(s) {
		return true
	}
	return len(el.Query(s)) > 0
}

// Normalize collapses runs of whitespace and trims the result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
