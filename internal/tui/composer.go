package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/draftpad/draftpad/pkg/overlay"
	"github.com/dustin/go-humanize"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
)

// ErrInterrupted is returned when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted by user")

// Rewriter is the on-demand prompt rewriter the composer invokes on Ctrl+R.
type Rewriter interface {
	Rewrite(ctx context.Context, draft string) (string, error)
}

// Messages delivered into the composer's event loop. The watcher's sink
// sends the first three so annotation results re-enter the loop instead of
// touching the model from another goroutine.
type (
	GhostMsg       struct{ Text string }
	SuggestionsMsg struct{ List []overlay.Suggestion }
	ErrorsMsg      struct{ List []overlay.ErrorAnnotation }

	rewriteMsg struct {
		text string
		err  error
	}
)

// ProgramSink adapts a running Bubble Tea program to the watch.Sink
// contract.
type ProgramSink struct {
	program *tea.Program
}

func NewProgramSink(program *tea.Program) *ProgramSink {
	return &ProgramSink{program: program}
}

func (s *ProgramSink) RenderGhost(text string) {
	s.program.Send(GhostMsg{Text: text})
}

func (s *ProgramSink) RenderSuggestions(list []overlay.Suggestion) {
	s.program.Send(SuggestionsMsg{List: list})
}

func (s *ProgramSink) RenderErrors(list []overlay.ErrorAnnotation) {
	s.program.Send(ErrorsMsg{List: list})
}

// Options configures a composer.
type Options struct {
	Prompt      string
	Placeholder string
	Theme       *Theme

	// OnFlagsChanged fires after the user toggles a feature flag, with the
	// full new flag set, so the host can persist it.
	OnFlagsChanged func(overlay.Flags)
}

// Composer is the Bubble Tea model hosting the chat input line and the
// overlay's terminal rendering.
type Composer struct {
	controller *overlay.Controller
	surface    *Surface
	bridge     *inputBridge
	rewriter   Rewriter
	logger     *zap.Logger
	options    Options
	theme      *Theme

	textInput textinput.Model
	width     int

	hovered    int
	lastReview time.Time
	rewriting  bool
	manualCopy string
	statusErr  string

	result      string
	interrupted bool
	done        bool
}

// NewComposer builds the composer and its target bridge. Callers attach the
// controller to Target() and point the watcher at it before running the
// program.
func NewComposer(controller *overlay.Controller, surface *Surface, rewriter Rewriter, logger *zap.Logger, options Options) Composer {
	if options.Prompt == "" {
		options.Prompt = "> "
	}
	theme := options.Theme
	if theme == nil {
		theme = DefaultTheme()
	}

	textInput := textinput.New()
	textInput.Prompt = options.Prompt
	textInput.Placeholder = options.Placeholder
	textInput.ShowSuggestions = true
	textInput.Focus()

	return Composer{
		controller: controller,
		surface:    surface,
		bridge:     newInputBridge(ansi.PrintableRuneWidth(options.Prompt)),
		rewriter:   rewriter,
		logger:     logger,
		options:    options,
		theme:      theme,
		textInput:  textInput,
		hovered:    -1,
	}
}

// Target returns the overlay target backed by this composer's input line.
func (m *Composer) Target() overlay.Target { return m.bridge }

// Result returns the submitted draft, or ErrInterrupted after Ctrl+C.
func (m Composer) Result() (string, error) {
	if m.interrupted {
		return "", ErrInterrupted
	}
	return m.result, nil
}

func (m Composer) Init() tea.Cmd {
	return textinput.Blink
}

func (m Composer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textInput.Width = max(1, msg.Width-ansi.PrintableRuneWidth(m.options.Prompt)-1)
		m.bridge.setWidth(msg.Width)
		m.bridge.fire(overlay.EventResize)
		return m, nil

	case GhostMsg:
		m.controller.RenderGhost(msg.Text)
		m.syncGhostHint()
		return m, nil

	case SuggestionsMsg:
		m.controller.RenderSuggestions(msg.List)
		return m, nil

	case ErrorsMsg:
		m.controller.RenderErrors(msg.List)
		m.lastReview = time.Now()
		m.clearHover()
		return m, nil

	case rewriteMsg:
		m.rewriting = false
		if msg.err != nil {
			m.statusErr = fmt.Sprintf("rewrite failed: %s", msg.err)
			return m, nil
		}
		m.statusErr = ""
		m.setValue(msg.text)
		m.bridge.DispatchInput()
		if err := copyToClipboard(msg.text); err != nil {
			// Degrade to a manual-selection fallback instead of failing.
			m.manualCopy = msg.text
			m.logger.Debug("clipboard unavailable", zap.Error(err))
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {

		case "enter":
			m.result = m.textInput.Value()
			m.done = true
			return m, tea.Quit

		case "ctrl+c":
			m.interrupted = true
			m.done = true
			return m, tea.Quit

		case "tab":
			if suffix := m.ghostSuffix(); suffix != "" {
				m.setValue(m.textInput.Value() + suffix)
				m.bridge.DispatchInput()
			}
			return m, nil

		case "ctrl+r":
			if m.rewriter != nil && !m.rewriting {
				m.rewriting = true
				draft := m.textInput.Value()
				return m, func() tea.Msg {
					text, err := m.rewriter.Rewrite(context.Background(), draft)
					return rewriteMsg{text: text, err: err}
				}
			}
			return m, nil

		case "alt+1", "alt+2", "alt+3":
			m.applySuggestion(int(msg.String()[4] - '1'))
			return m, nil

		case "ctrl+n":
			m.cycleHover(1)
			return m, nil

		case "ctrl+p":
			m.cycleHover(-1)
			return m, nil

		case "esc":
			m.clearHover()
			return m, nil

		case "alt+o":
			m.toggleFlag(func(f *overlay.Flags) { f.OverlayEnabled = !f.OverlayEnabled })
			return m, nil

		case "alt+g":
			m.toggleFlag(func(f *overlay.Flags) { f.GhostEnabled = !f.GhostEnabled })
			return m, nil

		case "alt+s":
			m.toggleFlag(func(f *overlay.Flags) { f.SuggestionsEnabled = !f.SuggestionsEnabled })
			return m, nil

		case "alt+e":
			m.toggleFlag(func(f *overlay.Flags) { f.ErrorsEnabled = !f.ErrorsEnabled })
			return m, nil
		}
	}

	return m.updateTextInput(msg)
}

func (m Composer) updateTextInput(msg tea.Msg) (Composer, tea.Cmd) {
	oldValue := m.textInput.Value()
	updated, cmd := m.textInput.Update(msg)
	m.textInput = updated

	if newValue := m.textInput.Value(); newValue != oldValue {
		m.bridge.SetValue(newValue)
		m.statusErr = ""
		m.manualCopy = ""
		m.clearHover()
		// Fires the overlay's input handler (ghost invalidation, span
		// relocation, geometry) and the watcher's debounce in one dispatch.
		m.bridge.fire(overlay.EventInput)
		m.syncGhostHint()
	}

	m.syncBridgeMutations()
	return m, cmd
}

// setValue programmatically replaces the input line.
func (m *Composer) setValue(value string) {
	m.textInput.SetValue(value)
	m.textInput.CursorEnd()
	m.bridge.SetValue(value)
}

// syncBridgeMutations pulls value changes made through the overlay (such as
// a suggestion apply) back into the input model.
func (m *Composer) syncBridgeMutations() {
	if v := m.bridge.Value(); v != m.textInput.Value() {
		m.textInput.SetValue(v)
		m.textInput.CursorEnd()
	}
	if m.bridge.takeFocusRequest() {
		m.textInput.Focus()
	}
}

// ghostSuffix reads the pending completion out of the ghost layer.
func (m *Composer) ghostSuffix() string {
	layer := m.surface.Layer(overlay.ClassGhostLayer)
	if layer == nil || !layer.Visible() {
		return ""
	}
	for _, seg := range layer.Segments() {
		if seg.Annotated && seg.Class == overlay.ClassGhostText {
			return seg.Text
		}
	}
	return ""
}

// syncGhostHint mirrors the ghost layer into the text input's inline
// suggestion so the suffix renders greyed out after the caret.
func (m *Composer) syncGhostHint() {
	if suffix := m.ghostSuffix(); suffix != "" {
		m.textInput.SetSuggestions([]string{m.textInput.Value() + suffix})
	} else {
		m.textInput.SetSuggestions(nil)
	}
}

func (m *Composer) applySuggestion(index int) {
	layer := m.surface.Layer(overlay.ClassSuggestionLayer)
	if layer == nil || !layer.Visible() {
		return
	}
	pills := layer.ChildNodes()
	if index < 0 || index >= len(pills) {
		return
	}
	pills[index].Fire(overlay.EventClick)
	m.syncBridgeMutations()
	m.syncGhostHint()
}

func (m *Composer) errorSpans() []*Node {
	layer := m.surface.Layer(overlay.ClassErrorLayer)
	if layer == nil || !layer.Visible() {
		return nil
	}
	return layer.ChildNodes()
}

func (m *Composer) cycleHover(direction int) {
	spans := m.errorSpans()
	if len(spans) == 0 {
		return
	}

	if m.hovered >= 0 && m.hovered < len(spans) {
		spans[m.hovered].Fire(overlay.EventHoverLeave)
	}
	m.hovered = ((m.hovered+direction)%len(spans) + len(spans)) % len(spans)
	spans[m.hovered].Fire(overlay.EventHoverEnter)
	m.syncBridgeMutations()
}

func (m *Composer) clearHover() {
	spans := m.errorSpans()
	if m.hovered >= 0 && m.hovered < len(spans) {
		spans[m.hovered].Fire(overlay.EventHoverLeave)
	}
	m.hovered = -1
}

func (m *Composer) toggleFlag(mutate func(*overlay.Flags)) {
	flags := m.controller.Flags()
	mutate(&flags)
	m.controller.SetFlags(flags)
	m.syncGhostHint()
	if m.options.OnFlagsChanged != nil {
		m.options.OnFlagsChanged(flags)
	}
}

func (m Composer) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.textInput.View())
	b.WriteString("\n")

	if marker := m.renderErrorMarkers(); marker != "" {
		b.WriteString(marker)
		b.WriteString("\n")
	}
	if tooltip := m.renderTooltip(); tooltip != "" {
		b.WriteString(tooltip)
		b.WriteString("\n")
	}
	if pills := m.renderSuggestions(); pills != "" {
		b.WriteString(pills)
		b.WriteString("\n")
	}
	if m.manualCopy != "" {
		b.WriteString(m.renderManualCopy())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())

	return b.String()
}

// renderErrorMarkers draws an underline row beneath the input: a run of
// tildes under each located error span, at the span's on-screen column.
// Span columns are measured from the start of the value, so when the value
// is wider than the input the row must shift by the scrolled-off width;
// the cursor sits at the end of the line while typing, so the visible
// window is the value's trailing textInput.Width cells.
func (m Composer) renderErrorMarkers() string {
	spans := m.errorSpans()
	if len(spans) == 0 {
		return ""
	}

	style := m.theme.Style(overlay.ClassErrorSpan)
	promptWidth := ansi.PrintableRuneWidth(m.options.Prompt)

	scrolled := 0
	if m.textInput.Width > 0 {
		scrolled = max(0, uniseg.StringWidth(m.textInput.Value())-m.textInput.Width)
	}

	var row strings.Builder
	column := 0
	for _, span := range spans {
		start := int(span.Bounds().X) - scrolled
		width := max(1, int(span.Bounds().Width))
		if start+width <= 0 {
			continue
		}
		if start < 0 {
			width += start
			start = 0
		}
		start += promptWidth
		if start > column {
			row.WriteString(strings.Repeat(" ", start-column))
			column = start
		}
		row.WriteString(style.Render(strings.Repeat("~", width)))
		column += width
	}
	return row.String()
}

func (m Composer) renderTooltip() string {
	tooltip := m.surface.Layer(overlay.ClassTooltip)
	if tooltip == nil || !tooltip.Visible() {
		return ""
	}

	message := ""
	for _, seg := range tooltip.Segments() {
		message += seg.Text
	}
	if message == "" {
		return ""
	}

	boxWidth := max(20, min(60, m.width-4))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Render(wordwrap.String(m.theme.Style(overlay.ClassTooltip).Render(message), boxWidth))

	indent := int(tooltip.StyleValue(overlay.StyleLeft))
	if m.width > 0 && indent > max(0, m.width-boxWidth) {
		indent = max(0, m.width-boxWidth)
	}
	return lipgloss.NewStyle().MarginLeft(indent).Render(box)
}

func (m Composer) renderSuggestions() string {
	layer := m.surface.Layer(overlay.ClassSuggestionLayer)
	if layer == nil || !layer.Visible() {
		return ""
	}

	style := m.theme.Style(overlay.ClassSuggestionPill)
	pills := make([]string, 0, len(layer.ChildNodes()))
	for i, pill := range layer.ChildNodes() {
		detail := ""
		for _, seg := range pill.Segments() {
			detail += seg.Text
		}
		pills = append(pills, style.Render(fmt.Sprintf("[alt+%d] %s", i+1, detail)))
	}
	return truncateToWidth(strings.Join(pills, "  "), m.width)
}

func (m Composer) renderManualCopy() string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("11")).
		Render("clipboard unavailable, copy manually:\n" + m.manualCopy)
}

func (m Composer) renderStatus() string {
	flags := m.controller.Flags()
	parts := []string{
		flagIndicator("overlay", flags.OverlayEnabled),
		flagIndicator("ghost", flags.GhostEnabled),
		flagIndicator("suggest", flags.SuggestionsEnabled),
		flagIndicator("review", flags.ErrorsEnabled),
	}
	if m.rewriting {
		parts = append(parts, "rewriting...")
	}
	if !m.lastReview.IsZero() {
		parts = append(parts, fmt.Sprintf("reviewed %s", humanize.Time(m.lastReview)))
	}
	if m.statusErr != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.statusErr))
	}

	status := lipgloss.NewStyle().Faint(true).Render(strings.Join(parts, "  "))
	return truncateToWidth(status, m.width)
}

func flagIndicator(name string, enabled bool) string {
	if enabled {
		return name + ":on"
	}
	return name + ":off"
}
