package overlay

import "strconv"

// GeometrySync keeps the overlay root's position, size, and typography in
// lockstep with the target input. It runs synchronously inside the event that
// triggered it (input, scroll, resize) so there is never visible lag between
// the caret and the overlay. It is the only component in the engine permitted
// to read layout geometry; everything else operates on pre-resolved state.
type GeometrySync struct {
	surface Surface

	target    Target
	root      Node
	textLayer Node
}

// NewGeometrySync returns a sync bound to nothing. Bind attaches it to a
// target and tree; Sync is a no-op until then.
func NewGeometrySync(surface Surface) *GeometrySync {
	return &GeometrySync{surface: surface}
}

// Bind points the sync at a target and the tree nodes it maintains. Passing
// nils unbinds it.
func (g *GeometrySync) Bind(target Target, root Node, textLayer Node) {
	g.target = target
	g.root = root
	g.textLayer = textLayer
}

// Sync reads the target's metrics and the document scroll offset, then
// writes absolute position and size onto the overlay root and matching
// typography and scroll offsets onto the text layer. If the target has left
// the document the update is a no-op.
func (g *GeometrySync) Sync() {
	if g.target == nil || g.root == nil || !g.target.Alive() {
		return
	}

	m := g.target.Metrics()
	scroll := g.surface.ScrollOffset()

	g.root.SetStyle(StyleLeft, formatUnit(m.Bounds.X+scroll.X))
	g.root.SetStyle(StyleTop, formatUnit(m.Bounds.Y+scroll.Y))
	g.root.SetStyle(StyleWidth, formatUnit(m.Bounds.Width))
	g.root.SetStyle(StyleHeight, formatUnit(m.Bounds.Height))

	if g.textLayer == nil {
		return
	}
	g.textLayer.SetStyle(StyleFontFamily, m.Font.Family)
	g.textLayer.SetStyle(StyleFontSize, formatUnit(m.Font.Size))
	g.textLayer.SetStyle(StyleLineHeight, formatUnit(m.Font.LineHeight))
	g.textLayer.SetStyle(StylePadding, formatUnit(m.Font.Padding))
	g.textLayer.SetStyle(StyleScrollX, formatUnit(-m.Scroll.X))
	g.textLayer.SetStyle(StyleScrollY, formatUnit(-m.Scroll.Y))
}

func formatUnit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
