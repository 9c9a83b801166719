package tui

import (
	"testing"

	"github.com/draftpad/draftpad/pkg/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMarkupBuildsSpanChildren(t *testing.T) {
	text := "Fix this now"
	spans := []overlay.RenderedSpan{{Start: 4, End: 8, Message: "Ambiguous subject"}}
	markup := overlay.BuildMarkup(text, spans, overlay.ClassErrorSpan)

	node := newNode(overlay.ClassTextLayer)
	node.SetMarkup(markup)

	children := node.ChildNodes()
	require.Len(t, children, 1)
	assert.Equal(t, "0", children[0].Attr("data-index"))
	assert.Equal(t, "Ambiguous subject", children[0].Attr("data-message"))
	assert.Equal(t, overlay.Rect{X: 4, Y: 0, Width: 4, Height: 1}, children[0].Bounds())
}

func TestSetMarkupCountsDisplayCells(t *testing.T) {
	// "日本" occupies four terminal cells, so a span after it starts at
	// column five rather than at its byte offset.
	text := "日本 abc"
	spans := []overlay.RenderedSpan{{Start: 7, End: 10, Message: "m"}}
	markup := overlay.BuildMarkup(text, spans, overlay.ClassErrorSpan)

	node := newNode(overlay.ClassTextLayer)
	node.SetMarkup(markup)

	children := node.ChildNodes()
	require.Len(t, children, 1)
	assert.Equal(t, float64(5), children[0].Bounds().X)
	assert.Equal(t, float64(3), children[0].Bounds().Width)
}

func TestSetMarkupReplacesPreviousChildren(t *testing.T) {
	node := newNode(overlay.ClassTextLayer)
	node.SetMarkup(overlay.BuildMarkup("abcdef", []overlay.RenderedSpan{
		{Start: 0, End: 2, Message: "a"},
		{Start: 3, End: 5, Message: "b"},
	}, overlay.ClassErrorSpan))
	require.Len(t, node.ChildNodes(), 2)

	node.SetMarkup(overlay.EscapeText("plain"))
	assert.Empty(t, node.ChildNodes())
	require.Len(t, node.Segments(), 1)
	assert.Equal(t, "plain", node.Segments()[0].Text)
}

func TestFireDispatchesAndOffUnbinds(t *testing.T) {
	node := newNode(overlay.ClassSuggestionPill)

	clicks := 0
	off := node.On(overlay.EventClick, func(overlay.Event) { clicks++ })

	node.Fire(overlay.EventClick)
	assert.Equal(t, 1, clicks)

	off()
	node.Fire(overlay.EventClick)
	assert.Equal(t, 1, clicks)
}

func TestFindWalksNestedChildren(t *testing.T) {
	root := newNode(overlay.ClassRoot)
	textLayer := root.AppendChild(overlay.ClassTextLayer)
	textLayer.AppendChild(overlay.ClassGhostLayer)

	assert.NotNil(t, root.Find(overlay.ClassGhostLayer))
	assert.Nil(t, root.Find(overlay.ClassTooltip))
}

func TestSurfaceRootLifecycle(t *testing.T) {
	surface := NewSurface()
	assert.Nil(t, surface.Root())

	root := surface.CreateRoot(overlay.ClassRoot)
	require.NotNil(t, surface.Root())

	root.AppendChild(overlay.ClassTooltip)
	assert.NotNil(t, surface.Layer(overlay.ClassTooltip))

	root.Remove()
	assert.Nil(t, surface.Root())
	assert.Nil(t, surface.Layer(overlay.ClassTooltip))
}

func TestStyleValueParsesEngineUnits(t *testing.T) {
	node := newNode(overlay.ClassTooltip)
	node.SetStyle(overlay.StyleLeft, "12")
	node.SetStyle(overlay.StyleTop, "not-a-number")

	assert.Equal(t, float64(12), node.StyleValue(overlay.StyleLeft))
	assert.Equal(t, float64(0), node.StyleValue(overlay.StyleTop))
	assert.Equal(t, float64(0), node.StyleValue(overlay.StyleWidth))
}
