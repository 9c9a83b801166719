package overlay

import "strconv"

// fakeNode is an in-memory render target used across the package tests. Its
// SetMarkup materializes one addressable child per annotated span wrapper,
// mirroring what a real adapter does, with bounds derived from character
// offsets so tooltip positioning is observable.
type fakeNode struct {
	class    string
	attrs    map[string]string
	styles   map[string]string
	markup   string
	segments []Segment
	visible  bool
	removed  bool
	bounds   Rect
	children []*fakeNode
	handlers map[EventKind]map[int]Handler
	nextID   int
}

func newFakeNode(class string) *fakeNode {
	return &fakeNode{
		class:    class,
		attrs:    map[string]string{},
		styles:   map[string]string{},
		visible:  true,
		handlers: map[EventKind]map[int]Handler{},
	}
}

func (n *fakeNode) AppendChild(class string) Node {
	child := newFakeNode(class)
	n.children = append(n.children, child)
	return child
}

func (n *fakeNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *fakeNode) Clear() {
	n.children = nil
	n.markup = ""
	n.segments = nil
}

func (n *fakeNode) Remove() {
	n.removed = true
	n.Clear()
}

func (n *fakeNode) SetAttr(key, value string) { n.attrs[key] = value }
func (n *fakeNode) Attr(key string) string    { return n.attrs[key] }

func (n *fakeNode) SetStyle(key, value string) { n.styles[key] = value }

func (n *fakeNode) SetMarkup(markup string) {
	n.markup = markup
	n.segments = ParseMarkup(markup)
	n.children = nil

	offset := 0
	for _, seg := range n.segments {
		if seg.Annotated && seg.Index >= 0 {
			child := newFakeNode(seg.Class)
			child.attrs["data-index"] = strconv.Itoa(seg.Index)
			child.attrs["data-message"] = seg.Message
			child.bounds = Rect{
				X:      float64(offset),
				Y:      0,
				Width:  float64(len(seg.Text)),
				Height: 1,
			}
			n.children = append(n.children, child)
		}
		offset += len(seg.Text)
	}
}

func (n *fakeNode) SetVisible(visible bool) { n.visible = visible }
func (n *fakeNode) Visible() bool           { return n.visible }
func (n *fakeNode) Bounds() Rect            { return n.bounds }

func (n *fakeNode) On(kind EventKind, h Handler) func() {
	if n.handlers[kind] == nil {
		n.handlers[kind] = map[int]Handler{}
	}
	id := n.nextID
	n.nextID++
	n.handlers[kind][id] = h
	return func() { delete(n.handlers[kind], id) }
}

func (n *fakeNode) fire(kind EventKind) {
	for _, h := range n.handlers[kind] {
		h(Event{Kind: kind, Node: n})
	}
}

func (n *fakeNode) handlerCount(kind EventKind) int {
	return len(n.handlers[kind])
}

// plainText reconstructs the unescaped text of the node's markup.
func (n *fakeNode) plainText() string {
	out := ""
	for _, seg := range n.segments {
		out += seg.Text
	}
	return out
}

// find returns the first descendant with the given class, or nil.
func (n *fakeNode) find(class string) *fakeNode {
	for _, c := range n.children {
		if c.class == class {
			return c
		}
		if found := c.find(class); found != nil {
			return found
		}
	}
	return nil
}

type fakeSurface struct {
	roots  []*fakeNode
	scroll Point
}

func (s *fakeSurface) CreateRoot(class string) Node {
	root := newFakeNode(class)
	s.roots = append(s.roots, root)
	return root
}

func (s *fakeSurface) ScrollOffset() Point { return s.scroll }

// liveRoots counts roots still attached to the document.
func (s *fakeSurface) liveRoots() int {
	count := 0
	for _, r := range s.roots {
		if !r.removed {
			count++
		}
	}
	return count
}

type fakeTarget struct {
	value      string
	metrics    Metrics
	alive      bool
	focused    bool
	dispatches int

	handlers map[EventKind]map[int]Handler
	nextID   int
}

func newFakeTarget(value string) *fakeTarget {
	return &fakeTarget{
		value: value,
		alive: true,
		metrics: Metrics{
			Bounds: Rect{X: 100, Y: 200, Width: 400, Height: 32},
			Font: Typography{
				Family:     "monospace",
				Size:       14,
				LineHeight: 20,
				Padding:    8,
			},
		},
		handlers: map[EventKind]map[int]Handler{},
	}
}

func (t *fakeTarget) Value() string         { return t.value }
func (t *fakeTarget) SetValue(value string) { t.value = value }
func (t *fakeTarget) Focus()                { t.focused = true }
func (t *fakeTarget) Metrics() Metrics      { return t.metrics }
func (t *fakeTarget) Alive() bool           { return t.alive }

func (t *fakeTarget) On(kind EventKind, h Handler) func() {
	if t.handlers[kind] == nil {
		t.handlers[kind] = map[int]Handler{}
	}
	id := t.nextID
	t.nextID++
	t.handlers[kind][id] = h
	return func() { delete(t.handlers[kind], id) }
}

func (t *fakeTarget) DispatchInput() {
	t.dispatches++
	for _, h := range t.handlers[EventInput] {
		h(Event{Kind: EventInput})
	}
}

// typeText simulates the user editing the input.
func (t *fakeTarget) typeText(value string) {
	t.value = value
	for _, h := range t.handlers[EventInput] {
		h(Event{Kind: EventInput})
	}
}

func (t *fakeTarget) listenerCount(kind EventKind) int {
	return len(t.handlers[kind])
}
