// Package overlay implements the rendering and coordination engine that keeps
// an assistance overlay pixel-aligned with a live text input. The overlay
// mirrors the input's content into a visual tree and renders three
// independently toggleable annotation layers (ghost completion, error
// underlines with tooltips, suggestion pills) without disturbing the input's
// native behavior.
//
// The engine is headless: it renders into any render target satisfying the
// Node/Surface capabilities below. A real UI supplies an adapter at the
// integration boundary.
package overlay

// Class names assigned to the visual tree. These are the public styling
// contract between the engine and whatever stylesheet/theme the host
// supplies.
const (
	ClassRoot            = "draftpad-overlay"
	ClassTextLayer       = "draftpad-overlay-text"
	ClassGhostLayer      = "draftpad-overlay-ghost"
	ClassErrorLayer      = "draftpad-overlay-errors"
	ClassSuggestionLayer = "draftpad-overlay-suggestions"
	ClassTooltip         = "draftpad-overlay-tooltip"
	ClassSuggestionPill  = "draftpad-suggestion"
	ClassErrorSpan       = "draftpad-error-span"
	ClassGhostText       = "draftpad-ghost-text"
)

// Style keys written by GeometrySync onto the visual tree. Adapters interpret
// them in whatever unit their platform uses (pixels, terminal cells).
const (
	StyleLeft       = "left"
	StyleTop        = "top"
	StyleWidth      = "width"
	StyleHeight     = "height"
	StyleFontFamily = "font-family"
	StyleFontSize   = "font-size"
	StyleLineHeight = "line-height"
	StylePadding    = "padding"
	StyleScrollX    = "scroll-x"
	StyleScrollY    = "scroll-y"
)

// EventKind identifies an event routed through the engine's event tables.
type EventKind int

const (
	// EventInput fires when the target's text value changes.
	EventInput EventKind = iota
	// EventScroll fires when the target's scroll offset changes.
	EventScroll
	// EventResize fires when the target's bounding box changes.
	EventResize
	// EventHoverEnter and EventHoverLeave fire on annotated span wrappers.
	EventHoverEnter
	EventHoverLeave
	// EventPointerDown fires on annotated span wrappers before focus moves.
	EventPointerDown
	// EventClick fires on suggestion pills.
	EventClick
)

// Event carries the originating node (when bound on a node) to its handler.
type Event struct {
	Kind EventKind
	Node Node
}

// Handler reacts to a single event. Handlers run synchronously on the
// platform's event loop; the engine never calls them concurrently.
type Handler func(Event)

// Point is a 2D offset.
type Point struct {
	X float64
	Y float64
}

// Rect is a position and size, in the adapter's units.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Typography is the computed text styling of the target, mirrored onto the
// overlay's text layer so both render text identically.
type Typography struct {
	Family     string
	Size       float64
	LineHeight float64
	Padding    float64
}

// Metrics is everything GeometrySync reads from the target on each trigger.
// Bounds is viewport-relative; GeometrySync adds the document scroll offset
// itself.
type Metrics struct {
	Bounds Rect
	Scroll Point
	Font   Typography
}

// Node is the minimal capability set a render target must provide: append,
// clear, attribute/style assignment, markup content, visibility, bounds, and
// event binding. Calling SetMarkup with markup containing annotated span
// wrappers (see BuildMarkup) must materialize one addressable child per
// wrapper, in index order, whose Attr("data-message") returns the unescaped
// message.
type Node interface {
	// AppendChild creates and returns a new child node carrying the given
	// class.
	AppendChild(class string) Node
	// Children returns the node's addressable children in order.
	Children() []Node
	// Clear removes all children and content.
	Clear()
	// Remove detaches the node (and its subtree) from the render target.
	Remove()
	SetAttr(key, value string)
	Attr(key string) string
	SetStyle(key, value string)
	// SetMarkup replaces the node's content with the given escaped markup.
	SetMarkup(markup string)
	SetVisible(visible bool)
	Visible() bool
	// Bounds reports the node's viewport-relative rectangle.
	Bounds() Rect
	// On registers a handler and returns its unregister function.
	On(kind EventKind, h Handler) (off func())
}

// Surface is the document the overlay lives in.
type Surface interface {
	// CreateRoot creates a detached root node with the given class and
	// attaches it to the document.
	CreateRoot(class string) Node
	// ScrollOffset reports the document's current scroll position.
	ScrollOffset() Point
}

// Target is the tracked input element. The engine never mutates the target
// except through SetValue/Focus when a suggestion is applied.
type Target interface {
	Value() string
	SetValue(value string)
	Focus()
	// Metrics reports the target's current geometry and typography.
	Metrics() Metrics
	// Alive reports whether the target is still part of the document.
	Alive() bool
	// On registers a handler for target events and returns its unregister
	// function.
	On(kind EventKind, h Handler) (off func())
	// DispatchInput fires a synthetic input event so the host and any
	// listening request layer observe a programmatic value change exactly as
	// if the user had typed it.
	DispatchInput()
}
