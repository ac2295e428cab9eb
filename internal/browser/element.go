package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/dom"
)

// element adapts a live ElementHandle. Page errors are logged and read as
// empty results, so a detached node behaves like a missing one.
type element struct {
	h   playwright.ElementHandle
	doc *Document
	log zerolog.Logger
}

// Release disposes the handle of an element the document does not hold,
// such as one resolved for a mutation batch.
func (e *element) Release() {
	if err := e.h.Dispose(); err != nil {
		e.log.Debug().Err(err).Msg("dispose element handle failed")
	}
}

func (e *element) eval(expr string, arg any) any {
	v, err := e.h.Evaluate(expr, arg)
	if err != nil {
		e.log.Debug().Err(err).Str("expr", expr).Msg("evaluate on element failed")
		return nil
	}
	return v
}

func (e *element) Tag() string {
	tag, _ := e.eval(`el => el.tagName.toLowerCase()`, nil).(string)
	return tag
}

func (e *element) Attr(name string) (string, bool) {
	v, ok := e.eval(`(el, name) => el.getAttribute(name)`, name).(string)
	return v, ok
}

func (e *element) Text() string {
	text, err := e.h.TextContent()
	if err != nil {
		e.log.Debug().Err(err).Msg("read text content failed")
		return ""
	}
	return dom.Normalize(text)
}

func (e *element) Matches(s dom.Shape) bool {
	ok, _ := e.eval(`(el, sel) => el.matches(sel)`, s.Selector()).(bool)
	return ok
}

func (e *element) Query(s dom.Shape) []dom.Element {
	handles, err := e.h.QuerySelectorAll(s.Selector())
	if err != nil {
		e.log.Debug().Err(err).Str("selector", s.Selector()).Msg("query failed")
		return nil
	}
	return e.doc.hold(handles...)
}

func (e *element) Closest(s dom.Shape) (dom.Element, bool) {
	handle, err := e.h.EvaluateHandle(`(el, sel) => el.closest(sel)`, s.Selector())
	if err != nil {
		e.log.Debug().Err(err).Msg("closest failed")
		return nil, false
	}
	found := handle.AsElement()
	if found == nil {
		_ = handle.Dispose()
		return nil, false
	}
	return e.doc.hold(found)[0], true
}

func (e *element) SetClass(name string, on bool) {
	e.eval(`(el, [name, on]) => { el.classList.toggle(name, on) }`, []any{name, on})
}

func (e *element) SetData(key, value string) {
	e.eval(`(el, [name, value]) => { el.setAttribute(name, value) }`, []any{"data-" + key, value})
}

func (e *element) SetStyle(prop, value string) {
	e.eval(`(el, [prop, value]) => { el.style.setProperty(prop, value) }`, []any{prop, value})
}

func (e *element) ClearData(key string) {
	e.eval(`(el, name) => { el.removeAttribute(name) }`, "data-"+key)
}

func (e *element) Style(prop string) string {
	v, _ := e.eval(`(el, prop) => el.style.getPropertyValue(prop)`, prop).(string)
	return v
}

func (e *element) ClearStyle(prop string) {
	e.eval(`(el, prop) => { el.style.removeProperty(prop) }`, prop)
}

func (e *element) Activate() error {
	if _, err := e.h.Evaluate(`el => el.click()`, nil); err != nil {
		return fmt.Errorf("click element: %w", err)
	}
	return nil
}

// Document is the live page as a dom.Document. Handles it hands out stay
// pinned in the page until Release.
type Document struct {
	page playwright.Page
	log  zerolog.Logger

	mu   sync.Mutex
	held []playwright.ElementHandle
}

func (d *Document) hold(handles ...playwright.ElementHandle) []dom.Element {
	if len(handles) == 0 {
		return nil
	}
	d.mu.Lock()
	d.held = append(d.held, handles...)
	d.mu.Unlock()

	out := make([]dom.Element, len(handles))
	for i, h := range handles {
		out[i] = &element{h: h, doc: d, log: d.log}
	}
	return out
}

// Release disposes every handle handed out since the previous call.
func (d *Document) Release() {
	d.mu.Lock()
	held := d.held
	d.held = nil
	d.mu.Unlock()

	for _, h := range held {
		if err := h.Dispose(); err != nil {
			d.log.Debug().Err(err).Msg("dispose element handle failed")
		}
	}
	if len(held) > 0 {
		d.log.Trace().Int("handles", len(held)).Msg("released element handles")
	}
}

func (d *Document) Query(s dom.Shape) []dom.Element {
	handles, err := d.page.QuerySelectorAll(s.Selector())
	if err != nil {
		d.log.Debug().Err(err).Str("selector", s.Selector()).Msg("query failed")
		return nil
	}
	return d.hold(handles...)
}

func (d *Document) resolve(id string) (dom.Element, bool) {
	if id == "" {
		return nil, false
	}
	handle, err := d.page.QuerySelector(idSelector(id))
	if err != nil || handle == nil {
		return nil, false
	}
	return &element{h: handle, doc: d, log: d.log}, true
}
