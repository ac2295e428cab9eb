// Package htmldoc implements the host document over an in-memory
// golang.org/x/net/html tree. Host-side changes are recorded the way a
// MutationObserver would report them, so the curation engine can be driven
// offline and in tests.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/glabrego/deploytidy/internal/dom"
)

const stylesheetMarker = "data-deploytidy-style"

// ActivateFunc simulates the host page's reaction to a control activation.
type ActivateFunc func(doc *Document, el *Element) error

type Document struct {
	root         *nethtml.Node
	pending      []dom.Mutation
	observers    []func([]dom.Mutation)
	watchedAttrs map[string]bool

	// OnActivate, when set, runs after the built-in activation behavior.
	OnActivate ActivateFunc
}

func Parse(r io.Reader) (*Document, error) {
	root, err := nethtml.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html document: %w", err)
	}
	return &Document{
		root:         root,
		watchedAttrs: map[string]bool{"aria-expanded": true},
	}, nil
}

func ParseString(raw string) (*Document, error) {
	return Parse(strings.NewReader(raw))
}

func (d *Document) wrap(n *nethtml.Node) *Element {
	return &Element{n: n, doc: d}
}

func (d *Document) Query(s dom.Shape) []dom.Element {
	return toInterfaces(d.Find(s))
}

// Find is Query with concrete element types.
func (d *Document) Find(s dom.Shape) []*Element {
	return d.collect(d.root, s)
}

func (d *Document) First(s dom.Shape) (*Element, bool) {
	found := d.Find(s)
	if len(found) == 0 {
		return nil, false
	}
	return found[0], true
}

func (d *Document) collect(root *nethtml.Node, s dom.Shape) []*Element {
	var out []*Element
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == nethtml.ElementNode {
				el := d.wrap(child)
				if el.Matches(s) {
					out = append(out, el)
				}
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

// Body returns the document's body element.
func (d *Document) Body() *Element {
	if body := findElement(d.root, "body"); body != nil {
		return d.wrap(body)
	}
	return d.wrap(d.root)
}

// Append parses fragment in the context of parent and appends the resulting
// nodes, recording a childList mutation.
func (d *Document) Append(parent *Element, fragment string) ([]*Element, error) {
	nodes, err := parseFragment(parent.n, fragment)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		parent.n.AppendChild(n)
	}
	return d.recordInsert(parent, nodes), nil
}

// ReplaceWith swaps old for the parsed fragment, the way host sections
// re-render themselves.
func (d *Document) ReplaceWith(old *Element, fragment string) ([]*Element, error) {
	parent := old.n.Parent
	if parent == nil {
		return nil, fmt.Errorf("replace detached %s element", old.Tag())
	}
	nodes, err := parseFragment(parent, fragment)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		parent.InsertBefore(n, old.n)
	}
	parent.RemoveChild(old.n)
	return d.recordInsert(d.wrap(parent), nodes), nil
}

func (d *Document) recordInsert(parent *Element, nodes []*nethtml.Node) []*Element {
	added := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == nethtml.ElementNode {
			added = append(added, d.wrap(n))
		}
	}
	if len(added) > 0 {
		d.pending = append(d.pending, dom.Mutation{
			Type:   dom.ChildList,
			Target: parent,
			Added:  toInterfaces(added),
		})
	}
	return added
}

// Remove detaches el. Removals are not reported; the engine only reacts to
// insertions.
func (d *Document) Remove(el *Element) {
	if el.n.Parent != nil {
		el.n.Parent.RemoveChild(el.n)
	}
}

// SetAttr is a host-side attribute write. Writes to observed attributes are
// recorded.
func (d *Document) SetAttr(el *Element, name, value string) {
	setAttr(el.n, name, value)
	if d.watchedAttrs[strings.ToLower(name)] {
		d.pending = append(d.pending, dom.Mutation{
			Type:          dom.Attributes,
			Target:        el,
			AttributeName: strings.ToLower(name),
		})
	}
}

// TakeRecords returns and clears the pending mutation records.
func (d *Document) TakeRecords() []dom.Mutation {
	records := d.pending
	d.pending = nil
	return records
}

func (d *Document) Observe(fn func([]dom.Mutation)) {
	d.observers = append(d.observers, fn)
}

// Flush delivers pending records to every observer as one batch.
func (d *Document) Flush() {
	records := d.TakeRecords()
	if len(records) == 0 {
		return
	}
	for _, fn := range d.observers {
		fn(records)
	}
}

// InjectStylesheet adds css to the head, replacing a previous injection.
func (d *Document) InjectStylesheet(css string) {
	for _, existing := range d.collect(d.root, dom.Shape{Tag: "style", Attr: stylesheetMarker}) {
		d.Remove(existing)
	}
	head := findElement(d.root, "head")
	if head == nil {
		head = d.Body().n
	}
	style := &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []nethtml.Attribute{{Key: stylesheetMarker, Val: ""}},
	}
	style.AppendChild(&nethtml.Node{Type: nethtml.TextNode, Data: css})
	head.AppendChild(style)
}

func (d *Document) Render(w io.Writer) error {
	if err := nethtml.Render(w, d.root); err != nil {
		return fmt.Errorf("render html document: %w", err)
	}
	return nil
}

func (d *Document) String() string {
	var b strings.Builder
	_ = d.Render(&b)
	return b.String()
}

func parseFragment(context *nethtml.Node, fragment string) ([]*nethtml.Node, error) {
	if context.Type != nethtml.ElementNode {
		context = &nethtml.Node{Type: nethtml.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := nethtml.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	return nodes, nil
}

func findElement(node *nethtml.Node, tag string) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, tag) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func toInterfaces(els []*Element) []dom.Element {
	if len(els) == 0 {
		return nil
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out
}
