package htmldoc

import (
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/glabrego/deploytidy/internal/dom"
)

// Element wraps one element node of a Document.
type Element struct {
	n   *nethtml.Node
	doc *Document
}

func (e *Element) Tag() string {
	return strings.ToLower(e.n.Data)
}

func (e *Element) Attr(name string) (string, bool) {
	for _, attr := range e.n.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

func (e *Element) Text() string {
	return dom.Normalize(collectRawText(e.n))
}

func (e *Element) Matches(s dom.Shape) bool {
	return s.Match(e.n.Data, e.Attr)
}

func (e *Element) Query(s dom.Shape) []dom.Element {
	return toInterfaces(e.doc.collect(e.n, s))
}

func (e *Element) Closest(s dom.Shape) (dom.Element, bool) {
	for n := e.n; n != nil; n = n.Parent {
		if n.Type != nethtml.ElementNode {
			continue
		}
		el := e.doc.wrap(n)
		if el.Matches(s) {
			return el, true
		}
	}
	return nil, false
}

func (e *Element) HasClass(name string) bool {
	classAttr, _ := e.Attr("class")
	for _, class := range strings.Fields(classAttr) {
		if class == name {
			return true
		}
	}
	return false
}

func (e *Element) SetClass(name string, on bool) {
	classAttr, _ := e.Attr("class")
	classes := strings.Fields(classAttr)
	out := classes[:0]
	present := false
	for _, class := range classes {
		if class == name {
			if present || !on {
				continue
			}
			present = true
		}
		out = append(out, class)
	}
	if on && !present {
		out = append(out, name)
	}
	if len(out) == 0 {
		removeAttr(e.n, "class")
		return
	}
	setAttr(e.n, "class", strings.Join(out, " "))
}

func (e *Element) SetData(key, value string) {
	setAttr(e.n, "data-"+key, value)
}

func (e *Element) ClearData(key string) {
	removeAttr(e.n, "data-"+key)
}

func (e *Element) Data(key string) string {
	v, _ := e.Attr("data-" + key)
	return v
}

func (e *Element) SetStyle(prop, value string) {
	decls := parseStyle(e.n)
	replaced := false
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].value = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, styleDecl{prop: prop, value: value})
	}
	writeStyle(e.n, decls)
}

func (e *Element) ClearStyle(prop string) {
	decls := parseStyle(e.n)
	out := decls[:0]
	for _, decl := range decls {
		if decl.prop != prop {
			out = append(out, decl)
		}
	}
	writeStyle(e.n, out)
}

// Style returns the inline value of prop, if any.
func (e *Element) Style(prop string) string {
	for _, decl := range parseStyle(e.n) {
		if decl.prop == prop {
			return decl.value
		}
	}
	return ""
}

// Activate clicks the element. Disclosure controls flip aria-expanded before
// the host hook runs.
func (e *Element) Activate() error {
	if expanded, ok := e.Attr("aria-expanded"); ok {
		next := "true"
		if expanded == "true" {
			next = "false"
		}
		e.doc.SetAttr(e, "aria-expanded", next)
	}
	if e.doc.OnActivate != nil {
		return e.doc.OnActivate(e.doc, e)
	}
	return nil
}

type styleDecl struct {
	prop  string
	value string
}

func parseStyle(n *nethtml.Node) []styleDecl {
	var raw string
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, "style") {
			raw = attr.Val
		}
	}
	var decls []styleDecl
	for _, part := range strings.Split(raw, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		decls = append(decls, styleDecl{prop: prop, value: strings.TrimSpace(value)})
	}
	return decls
}

func writeStyle(n *nethtml.Node, decls []styleDecl) {
	if len(decls) == 0 {
		removeAttr(n, "style")
		return
	}
	parts := make([]string, len(decls))
	for i, decl := range decls {
		parts[i] = decl.prop + ": " + decl.value
	}
	setAttr(n, "style", strings.Join(parts, "; "))
}

func setAttr(n *nethtml.Node, name, value string) {
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, nethtml.Attribute{Key: name, Val: value})
}

func removeAttr(n *nethtml.Node, name string) {
	out := n.Attr[:0]
	for _, attr := range n.Attr {
		if !strings.EqualFold(attr.Key, name) {
			out = append(out, attr)
		}
	}
	n.Attr = out
}

func collectRawText(node *nethtml.Node) string {
	if node == nil {
		return ""
	}
	if node.Type == nethtml.TextNode {
		return node.Data
	}
	if node.Type == nethtml.ElementNode {
		switch strings.ToLower(node.Data) {
		case "script", "style", "noscript":
			return ""
		}
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(collectRawText(child))
	}
	return b.String()
}
