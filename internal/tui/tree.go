// Package tui adapts the headless overlay engine to a Bubble Tea terminal
// composer. It supplies the real render tree, the target bridge over the
// text input, and the composer model that puts them on screen.
package tui

import (
	"strconv"

	"github.com/draftpad/draftpad/pkg/overlay"
	"github.com/rivo/uniseg"
)

// Node is the terminal-side render tree node. The overlay engine drives it
// through the overlay.Node interface; the composer walks it by class when
// building each frame.
type Node struct {
	class    string
	attrs    map[string]string
	styles   map[string]string
	markup   string
	segments []overlay.Segment
	visible  bool
	removed  bool
	bounds   overlay.Rect
	children []*Node
	handlers map[overlay.EventKind]map[int]overlay.Handler
	nextID   int
}

func newNode(class string) *Node {
	return &Node{
		class:    class,
		attrs:    map[string]string{},
		styles:   map[string]string{},
		visible:  true,
		handlers: map[overlay.EventKind]map[int]overlay.Handler{},
	}
}

func (n *Node) AppendChild(class string) overlay.Node {
	child := newNode(class)
	n.children = append(n.children, child)
	return child
}

func (n *Node) Children() []overlay.Node {
	out := make([]overlay.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) Clear() {
	n.children = nil
	n.markup = ""
	n.segments = nil
}

func (n *Node) Remove() {
	n.removed = true
	n.Clear()
}

func (n *Node) SetAttr(key, value string) { n.attrs[key] = value }
func (n *Node) Attr(key string) string    { return n.attrs[key] }

func (n *Node) SetStyle(key, value string) { n.styles[key] = value }

// SetMarkup parses the engine's markup and materializes one addressable
// child per indexed span wrapper. Children get cell-accurate bounds so the
// tooltip can be positioned under the hovered span.
func (n *Node) SetMarkup(markup string) {
	n.markup = markup
	n.segments = overlay.ParseMarkup(markup)
	n.children = nil

	column := 0
	for _, seg := range n.segments {
		width := uniseg.StringWidth(seg.Text)
		if seg.Annotated && seg.Index >= 0 {
			child := newNode(seg.Class)
			child.attrs["data-index"] = strconv.Itoa(seg.Index)
			child.attrs["data-message"] = seg.Message
			child.bounds = overlay.Rect{
				X:      float64(column),
				Y:      n.bounds.Y,
				Width:  float64(width),
				Height: 1,
			}
			n.children = append(n.children, child)
		}
		column += width
	}
}

func (n *Node) SetVisible(visible bool) { n.visible = visible }
func (n *Node) Visible() bool           { return n.visible }
func (n *Node) Bounds() overlay.Rect    { return n.bounds }

func (n *Node) On(kind overlay.EventKind, h overlay.Handler) func() {
	if n.handlers[kind] == nil {
		n.handlers[kind] = map[int]overlay.Handler{}
	}
	id := n.nextID
	n.nextID++
	n.handlers[kind][id] = h
	return func() { delete(n.handlers[kind], id) }
}

// Fire dispatches an event to every handler bound on the node. The composer
// translates key presses into pill clicks and hover transitions with it.
func (n *Node) Fire(kind overlay.EventKind) {
	for _, h := range n.handlers[kind] {
		h(overlay.Event{Kind: kind, Node: n})
	}
}

// Find returns the first descendant with the given class, or nil.
func (n *Node) Find(class string) *Node {
	for _, c := range n.children {
		if c.class == class {
			return c
		}
		if found := c.Find(class); found != nil {
			return found
		}
	}
	return nil
}

// ChildNodes returns the concrete children for direct iteration.
func (n *Node) ChildNodes() []*Node { return n.children }

// Segments returns the parsed markup runs for styling.
func (n *Node) Segments() []overlay.Segment { return n.segments }

// StyleValue returns a numeric style written by the engine, or 0.
func (n *Node) StyleValue(key string) float64 {
	v, err := strconv.ParseFloat(n.styles[key], 64)
	if err != nil {
		return 0
	}
	return v
}

// Surface is the terminal document: it holds at most one overlay root.
type Surface struct {
	root *Node
}

func NewSurface() *Surface { return &Surface{} }

func (s *Surface) CreateRoot(class string) overlay.Node {
	s.root = newNode(class)
	return s.root
}

// ScrollOffset is always zero: the composer pins the overlay to the input
// line, so there is no document scroll to account for.
func (s *Surface) ScrollOffset() overlay.Point { return overlay.Point{} }

// Root returns the live overlay root, or nil after teardown.
func (s *Surface) Root() *Node {
	if s.root == nil || s.root.removed {
		return nil
	}
	return s.root
}

// Layer finds a visible layer by class, or nil.
func (s *Surface) Layer(class string) *Node {
	root := s.Root()
	if root == nil {
		return nil
	}
	return root.Find(class)
}
