package overlay

import (
	"strconv"

	"go.uber.org/zap"
)

// tooltipGap is the distance between a hovered span and its tooltip.
const tooltipGap = 4

// LayerManager owns the overlay's visual tree: three independent annotation
// layers (ghost, errors, suggestions) plus a tooltip. Each render operation
// is idempotent and confined to the owned tree; the only outward side effect
// is mutating the target's value and focus when a suggestion is applied.
//
// The manager always remembers the most recently rendered state for each
// layer, so toggling the overlay off and back on restores exactly what was
// showing before.
type LayerManager struct {
	logger  *zap.Logger
	surface Surface

	flags  Flags
	target Target

	root            Node
	textLayer       Node
	ghostLayer      Node
	errorLayer      Node
	suggestionLayer Node
	tooltip         Node

	ghost       string
	suggestions []Suggestion
	annotations []ErrorAnnotation

	spanOffs []func()
	pillOffs []func()
}

// NewLayerManager returns a manager with no visual tree. The tree is built
// lazily when a target exists and the overlay flag is on.
func NewLayerManager(surface Surface, flags Flags, logger *zap.Logger) *LayerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayerManager{
		logger:  logger,
		surface: surface,
		flags:   flags,
	}
}

// Flags returns the currently applied feature flags.
func (lm *LayerManager) Flags() Flags {
	return lm.flags
}

// Root returns the tree root, or nil when no tree exists.
func (lm *LayerManager) Root() Node {
	return lm.root
}

// TextLayer returns the typography-bearing layer GeometrySync maintains, or
// nil when no tree exists.
func (lm *LayerManager) TextLayer() Node {
	return lm.textLayer
}

// SetTarget points the manager at the input whose text the layers annotate.
func (lm *LayerManager) SetTarget(target Target) {
	lm.target = target
}

// SetFlags applies new feature flags. Turning the master switch off tears the
// whole tree down; turning it back on while a target exists rebuilds the tree
// and re-renders every layer's remembered state. Individual layer flags take
// effect on the same call: a disabled layer renders hidden, not removed, so
// toggling stays cheap.
func (lm *LayerManager) SetFlags(flags Flags) {
	wasEnabled := lm.flags.OverlayEnabled
	lm.flags = flags

	switch {
	case wasEnabled && !flags.OverlayEnabled:
		lm.Teardown()
		return
	case flags.OverlayEnabled && lm.root == nil && lm.target != nil:
		lm.Build()
	}

	if lm.root != nil {
		lm.renderAll()
	}
}

// Build constructs the visual tree if it does not exist yet. Idempotent.
func (lm *LayerManager) Build() {
	if lm.root != nil || !lm.flags.OverlayEnabled {
		return
	}

	lm.root = lm.surface.CreateRoot(ClassRoot)
	lm.textLayer = lm.root.AppendChild(ClassTextLayer)
	lm.ghostLayer = lm.textLayer.AppendChild(ClassGhostLayer)
	lm.errorLayer = lm.textLayer.AppendChild(ClassErrorLayer)
	lm.suggestionLayer = lm.root.AppendChild(ClassSuggestionLayer)
	lm.tooltip = lm.root.AppendChild(ClassTooltip)

	lm.ghostLayer.SetVisible(false)
	lm.errorLayer.SetVisible(false)
	lm.suggestionLayer.SetVisible(false)
	lm.tooltip.SetVisible(false)

	lm.logger.Debug("overlay tree built")
}

// Teardown destroys the visual tree and every handler bound into it. The
// remembered layer state survives so a later Build/renderAll restores it.
func (lm *LayerManager) Teardown() {
	lm.unbindSpans()
	lm.unbindPills()

	if lm.root != nil {
		lm.root.Remove()
		lm.logger.Debug("overlay tree destroyed")
	}
	lm.root = nil
	lm.textLayer = nil
	lm.ghostLayer = nil
	lm.errorLayer = nil
	lm.suggestionLayer = nil
	lm.tooltip = nil
}

// Reset clears all remembered layer state and, when a tree exists, renders
// the cleared state. Used when a new target is attached.
func (lm *LayerManager) Reset() {
	lm.ghost = ""
	lm.suggestions = nil
	lm.annotations = nil
	if lm.root != nil {
		lm.renderAll()
	}
}

func (lm *LayerManager) renderAll() {
	lm.RenderGhost(lm.ghost)
	lm.RenderSuggestions(lm.suggestions)
	lm.RenderErrors(lm.annotations)
}

// RenderGhost replaces the pending completion suffix. The committed input
// value renders as an escaped prefix, the ghost as a visually distinct
// escaped suffix. An empty string fully clears and hides the layer. When the
// ghost or overlay flag is off the layer stays hidden, but the text is still
// remembered for a later flag flip.
func (lm *LayerManager) RenderGhost(text string) {
	lm.ghost = text

	if lm.root == nil {
		return
	}
	if !lm.flags.GhostEnabled || text == "" || lm.target == nil {
		lm.ghostLayer.SetMarkup("")
		lm.ghostLayer.SetVisible(false)
		return
	}

	lm.ghostLayer.SetMarkup(GhostMarkup(lm.target.Value(), text))
	lm.ghostLayer.SetVisible(true)
}

// InvalidateGhost drops any pending completion. Called on every text change
// so a stale in-flight completion can never render against newer input.
func (lm *LayerManager) InvalidateGhost() {
	lm.RenderGhost("")
}

// RenderSuggestions fully replaces the suggestion list. Disabled flag or an
// empty list hides the layer. Each suggestion renders as one interactive pill
// showing its detail text; activating a pill appends the detail to the
// target's value (separated by a blank line when the value is non-empty) and
// re-fires the input event so downstream observers see the mutation as a
// normal edit.
func (lm *LayerManager) RenderSuggestions(list []Suggestion) {
	lm.suggestions = list

	if lm.root == nil {
		return
	}

	lm.unbindPills()
	lm.suggestionLayer.Clear()

	if !lm.flags.SuggestionsEnabled || len(list) == 0 {
		lm.suggestionLayer.SetVisible(false)
		return
	}

	for i, s := range list {
		pill := lm.suggestionLayer.AppendChild(ClassSuggestionPill)
		pill.SetAttr("data-index", strconv.Itoa(i))
		pill.SetAttr("data-category", s.Category)
		pill.SetAttr("data-label", s.Label)
		pill.SetMarkup(EscapeText(s.Detail))

		detail := s.Detail
		lm.pillOffs = append(lm.pillOffs, pill.On(EventClick, func(Event) {
			lm.applySuggestion(detail)
		}))
	}
	lm.suggestionLayer.SetVisible(true)
}

func (lm *LayerManager) applySuggestion(detail string) {
	if lm.target == nil || !lm.target.Alive() {
		return
	}

	value := lm.target.Value()
	if value != "" {
		value += "\n\n" + detail
	} else {
		value = detail
	}

	lm.target.SetValue(value)
	lm.target.Focus()
	lm.target.DispatchInput()
	lm.logger.Debug("suggestion applied", zap.String("detail", detail))
}

// RenderErrors fully replaces the error annotation list. Disabled flag, an
// empty list, or empty target text clears the layer. Otherwise each
// annotation's literal span is located in the current text, the located spans
// are rendered as underline wrappers, and each wrapper gets hover handlers
// for its tooltip plus a pointer-down handler that refocuses the target so
// the wrapper never steals focus.
func (lm *LayerManager) RenderErrors(list []ErrorAnnotation) {
	lm.annotations = list

	if lm.root == nil {
		return
	}

	lm.unbindSpans()
	lm.hideTooltip()

	text := ""
	if lm.target != nil {
		text = lm.target.Value()
	}

	if !lm.flags.ErrorsEnabled || len(list) == 0 || text == "" {
		lm.errorLayer.SetMarkup("")
		lm.errorLayer.SetVisible(false)
		return
	}

	spans := LocateSpans(text, list)
	if len(spans) == 0 {
		lm.errorLayer.SetMarkup("")
		lm.errorLayer.SetVisible(false)
		return
	}

	lm.errorLayer.SetMarkup(BuildMarkup(text, spans, ClassErrorSpan))
	lm.errorLayer.SetVisible(true)

	for _, child := range lm.errorLayer.Children() {
		node := child
		lm.spanOffs = append(lm.spanOffs,
			node.On(EventHoverEnter, func(Event) { lm.showTooltip(node) }),
			node.On(EventHoverLeave, func(Event) { lm.hideTooltip() }),
			node.On(EventPointerDown, func(Event) {
				if lm.target != nil && lm.target.Alive() {
					lm.target.Focus()
				}
			}),
		)
	}

	lm.logger.Debug("errors rendered",
		zap.Int("annotations", len(list)),
		zap.Int("located", len(spans)),
	)
}

// RefreshErrors re-renders the remembered annotations against the target's
// current text, re-deriving span offsets. Called after the text changes.
func (lm *LayerManager) RefreshErrors() {
	lm.RenderErrors(lm.annotations)
}

func (lm *LayerManager) showTooltip(span Node) {
	if lm.tooltip == nil {
		return
	}

	b := span.Bounds()
	scroll := lm.surface.ScrollOffset()

	lm.tooltip.SetMarkup(EscapeText(span.Attr("data-message")))
	lm.tooltip.SetStyle(StyleLeft, formatUnit(b.X+scroll.X))
	lm.tooltip.SetStyle(StyleTop, formatUnit(b.Y+b.Height+scroll.Y+tooltipGap))
	lm.tooltip.SetVisible(true)
}

func (lm *LayerManager) hideTooltip() {
	if lm.tooltip != nil {
		lm.tooltip.SetVisible(false)
	}
}

func (lm *LayerManager) unbindSpans() {
	for _, off := range lm.spanOffs {
		off()
	}
	lm.spanOffs = nil
}

func (lm *LayerManager) unbindPills() {
	for _, off := range lm.pillOffs {
		off()
	}
	lm.pillOffs = nil
}
