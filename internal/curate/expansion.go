package curate

import (
	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/dom"
	"github.com/glabrego/deploytidy/internal/settings"
)

type PaginationState int

const (
	PaginationIdle PaginationState = iota
	PaginationTriggering
	PaginationAwaitingMutation
	// PaginationExhausted is terminal until the next navigation.
	PaginationExhausted
)

func (p PaginationState) String() string {
	switch p {
	case PaginationTriggering:
		return "triggering"
	case PaginationAwaitingMutation:
		return "awaiting-mutation"
	case PaginationExhausted:
		return "exhausted"
	default:
		return "idle"
	}
}

// ExpansionState lives for one page lifetime and is reset on navigation.
type ExpansionState struct {
	ExpansionCount              int
	HasAutoExpandedEnvironments bool
	Pagination                  PaginationState
}

func (s *ExpansionState) Reset() {
	*s = ExpansionState{}
}

// Expander drives the environments toggle and the "Load more" control.
type Expander struct {
	state *ExpansionState
	log   zerolog.Logger
}

func NewExpander(state *ExpansionState, log zerolog.Logger) *Expander {
	return &Expander{state: state, log: log}
}

// ExpandEnvironments opens the collapsed environments section once per page
// lifetime.
func (x *Expander) ExpandEnvironments(doc dom.Document, s settings.Snapshot) bool {
	if !s.Enabled || !s.AutoExpandEnvironments || x.state.HasAutoExpandedEnvironments {
		return false
	}
	toggle, ok := environmentsToggle(doc)
	if !ok || isExpanded(toggle) {
		return false
	}
	if err := toggle.Activate(); err != nil {
		x.log.Warn().Err(err).Msg("could not expand environments")
		return false
	}
	x.state.HasAutoExpandedEnvironments = true
	x.log.Debug().Msg("expanded environments section")
	return true
}

// AdjustEnvironmentsHeight lifts the list height constraint while the section
// is expanded and full height is on, and restores it otherwise.
func (x *Expander) AdjustEnvironmentsHeight(doc dom.Document, s settings.Snapshot) {
	toggle, ok := environmentsToggle(doc)
	expanded := ok && isExpanded(toggle)
	x.setFullHeight(doc, s.Enabled && s.EnvironmentsFullHeight && expanded)
}

// setFullHeight lifts or restores the list height constraint. The host's own
// inline value is kept under heightStashKey while lifted.
func (x *Expander) setFullHeight(doc dom.Document, on bool) {
	for _, list := range doc.Query(EnvironmentsListShape) {
		_, stashed := list.Attr("data-" + heightStashKey)
		if on {
			if !stashed {
				list.SetData(heightStashKey, list.Style(heightProperty))
			}
			list.SetStyle(heightProperty, "none")
			continue
		}
		if !stashed {
			continue
		}
		original, _ := list.Attr("data-" + heightStashKey)
		if original == "" {
			list.ClearStyle(heightProperty)
		} else {
			list.SetStyle(heightProperty, original)
		}
		list.ClearData(heightStashKey)
	}
}

// LoadMore activates at most one "Load more" control per call while budget
// remains. Each activation spends one unit of the snapshot's expansion limit.
func (x *Expander) LoadMore(doc dom.Document, s settings.Snapshot) bool {
	if !s.Enabled || !s.AutoExpandLoadMore {
		return false
	}
	st := x.state
	switch st.Pagination {
	case PaginationExhausted:
		return false
	case PaginationAwaitingMutation, PaginationTriggering:
		st.Pagination = PaginationIdle
	}
	if st.ExpansionCount >= s.ExpansionLimit {
		st.Pagination = PaginationExhausted
		x.log.Debug().Int("count", st.ExpansionCount).Msg("load more budget exhausted")
		return false
	}
	control, ok := findLoadMore(doc)
	if !ok {
		return false
	}

	st.Pagination = PaginationTriggering
	if err := control.Activate(); err != nil {
		st.Pagination = PaginationIdle
		x.log.Warn().Err(err).Msg("could not activate load more")
		return false
	}
	st.ExpansionCount++
	st.Pagination = PaginationAwaitingMutation
	x.log.Debug().
		Int("count", st.ExpansionCount).
		Int("limit", s.ExpansionLimit).
		Msg("activated load more")
	return true
}

func environmentsToggle(doc dom.Document) (dom.Element, bool) {
	toggles := doc.Query(EnvironmentsToggle)
	if len(toggles) == 0 {
		return nil, false
	}
	return toggles[0], true
}

func findLoadMore(doc dom.Document) (dom.Element, bool) {
	for _, button := range doc.Query(ButtonShape) {
		if isLoadMoreControl(button) {
			return button, true
		}
	}
	return nil, false
}
