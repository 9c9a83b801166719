package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/draftpad/draftpad/pkg/overlay"
	"github.com/muesli/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestComposer(t *testing.T) (Composer, *Surface, *overlay.Controller) {
	t.Helper()

	surface := NewSurface()
	controller := overlay.NewController(surface, overlay.DefaultFlags(), zap.NewNop())
	composer := NewComposer(controller, surface, nil, zap.NewNop(), Options{Prompt: "> "})
	controller.Attach(composer.Target())

	model, _ := composer.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return model.(Composer), surface, controller
}

func press(t *testing.T, m Composer, msg tea.Msg) Composer {
	t.Helper()
	model, _ := m.Update(msg)
	return model.(Composer)
}

func typeText(t *testing.T, m Composer, text string) Composer {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestTypingSyncsBridge(t *testing.T) {
	m, _, _ := newTestComposer(t)

	m = typeText(t, m, "Fix this now")

	assert.Equal(t, "Fix this now", m.Target().Value())
}

func TestErrorMarkersAndHoverTooltip(t *testing.T) {
	m, surface, _ := newTestComposer(t)
	m = typeText(t, m, "Fix this now")

	m = press(t, m, ErrorsMsg{List: []overlay.ErrorAnnotation{
		{Span: "this", Message: "Ambiguous subject"},
	}})

	view := m.View()
	assert.Contains(t, view, "~")
	assert.NotContains(t, view, "Ambiguous subject")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Contains(t, m.View(), "Ambiguous subject")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, m.View(), "Ambiguous subject")

	tooltip := surface.Layer(overlay.ClassTooltip)
	require.NotNil(t, tooltip)
	assert.False(t, tooltip.Visible())
}

func TestErrorMarkersFollowHorizontalScroll(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = press(t, m, tea.WindowSizeMsg{Width: 20, Height: 24})

	// 30 cells of text in a 17 cell input: the first 13 cells scroll off
	// and the trailing word stays visible, so its marker must shift left
	// to stay underneath it instead of overshooting the window.
	m = typeText(t, m, strings.Repeat("a", 27)+"now")
	m = press(t, m, ErrorsMsg{List: []overlay.ErrorAnnotation{
		{Span: "now", Message: "vague deadline"},
	}})

	row := m.renderErrorMarkers()
	assert.Contains(t, row, "~~~")
	assert.LessOrEqual(t, ansi.PrintableRuneWidth(row), 20)
}

func TestErrorMarkersSkipScrolledOffSpans(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = press(t, m, tea.WindowSizeMsg{Width: 20, Height: 24})

	// The flagged word has scrolled out of view entirely, so nothing
	// should be underlined.
	m = typeText(t, m, "bad "+strings.Repeat("a", 26))
	m = press(t, m, ErrorsMsg{List: []overlay.ErrorAnnotation{
		{Span: "bad", Message: "weak opener"},
	}})

	assert.NotContains(t, m.renderErrorMarkers(), "~")
}

func TestTabAcceptsGhostCompletion(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = typeText(t, m, "Fix")

	m = press(t, m, GhostMsg{Text: " the login flow"})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "Fix the login flow", m.Target().Value())
}

func TestTypingDropsStaleGhost(t *testing.T) {
	m, surface, _ := newTestComposer(t)
	m = typeText(t, m, "Fix")
	m = press(t, m, GhostMsg{Text: " the login flow"})

	m = typeText(t, m, "!")

	ghost := surface.Layer(overlay.ClassGhostLayer)
	require.NotNil(t, ghost)
	assert.False(t, ghost.Visible())

	// Tab with no pending ghost leaves the draft alone.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "Fix!", m.Target().Value())
}

func TestAltDigitAppliesSuggestion(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = typeText(t, m, "Analyze code")

	m = press(t, m, SuggestionsMsg{List: []overlay.Suggestion{
		{Category: "clarify", Label: "Add context", Detail: "Clarify dataset source"},
	}})
	assert.Contains(t, m.View(), "Clarify dataset source")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})

	assert.Equal(t, "Analyze code\n\nClarify dataset source", m.Target().Value())
}

func TestAltDigitOutOfRangeIsNoop(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = typeText(t, m, "Analyze code")

	m = press(t, m, SuggestionsMsg{List: []overlay.Suggestion{
		{Category: "clarify", Label: "Add context", Detail: "Clarify dataset source"},
	}})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}, Alt: true})

	assert.Equal(t, "Analyze code", m.Target().Value())
}

func TestFlagToggleNotifiesHost(t *testing.T) {
	surface := NewSurface()
	controller := overlay.NewController(surface, overlay.DefaultFlags(), zap.NewNop())

	var saved *overlay.Flags
	composer := NewComposer(controller, surface, nil, zap.NewNop(), Options{
		Prompt:         "> ",
		OnFlagsChanged: func(f overlay.Flags) { saved = &f },
	})
	controller.Attach(composer.Target())

	m := press(t, composer, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}, Alt: true})

	assert.False(t, m.controller.Flags().GhostEnabled)
	require.NotNil(t, saved)
	assert.False(t, saved.GhostEnabled)
	assert.True(t, saved.OverlayEnabled)
}

func TestEnterSubmitsDraft(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = typeText(t, m, "Ship it")

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(Composer)

	require.NotNil(t, cmd)
	result, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, "Ship it", result)
	assert.Empty(t, m.View())
}

func TestCtrlCInterrupts(t *testing.T) {
	m, _, _ := newTestComposer(t)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = model.(Composer)

	_, err := m.Result()
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestRewriteResultReplacesDraft(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = typeText(t, m, "fix bug plz")

	m = press(t, m, rewriteMsg{text: "Please fix the login bug."})

	assert.Equal(t, "Please fix the login bug.", m.Target().Value())
}

func TestRewriteErrorShowsStatus(t *testing.T) {
	m, _, _ := newTestComposer(t)
	m = typeText(t, m, "draft")

	m = press(t, m, rewriteMsg{err: assert.AnError})

	assert.Equal(t, "draft", m.Target().Value())
	assert.Contains(t, m.View(), "rewrite failed")
}
