package tui

import (
	"sync"

	"github.com/draftpad/draftpad/pkg/overlay"
)

// inputBridge implements overlay.Target over the composer's text input. The
// composer keeps the bridge's value in sync with the Bubble Tea input model
// and fires events through it; the watcher subscribes to those events from
// its own goroutines, so the bridge guards its state with a mutex.
type inputBridge struct {
	mu          sync.Mutex
	value       string
	promptWidth int
	width       int
	alive       bool

	focusRequested bool

	handlers map[overlay.EventKind]map[int]overlay.Handler
	nextID   int
}

func newInputBridge(promptWidth int) *inputBridge {
	return &inputBridge{
		promptWidth: promptWidth,
		alive:       true,
		handlers:    map[overlay.EventKind]map[int]overlay.Handler{},
	}
}

func (b *inputBridge) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

func (b *inputBridge) SetValue(value string) {
	b.mu.Lock()
	b.value = value
	b.mu.Unlock()
}

func (b *inputBridge) Focus() {
	b.mu.Lock()
	b.focusRequested = true
	b.mu.Unlock()
}

// takeFocusRequest reports and clears a pending focus request. The composer
// polls it each update cycle and refocuses the input model accordingly.
func (b *inputBridge) takeFocusRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	requested := b.focusRequested
	b.focusRequested = false
	return requested
}

// Metrics reports cell-based geometry: the input line starts after the
// prompt, spans the terminal width, and is one row tall. Terminal typography
// is fixed, so the font block is nominal.
func (b *inputBridge) Metrics() overlay.Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return overlay.Metrics{
		Bounds: overlay.Rect{
			X:      float64(b.promptWidth),
			Y:      0,
			Width:  float64(b.width),
			Height: 1,
		},
		Font: overlay.Typography{
			Family:     "terminal",
			Size:       1,
			LineHeight: 1,
			Padding:    0,
		},
	}
}

func (b *inputBridge) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive
}

func (b *inputBridge) kill() {
	b.mu.Lock()
	b.alive = false
	b.mu.Unlock()
}

func (b *inputBridge) setWidth(width int) {
	b.mu.Lock()
	b.width = width
	b.mu.Unlock()
}

func (b *inputBridge) On(kind overlay.EventKind, h overlay.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[kind] == nil {
		b.handlers[kind] = map[int]overlay.Handler{}
	}
	id := b.nextID
	b.nextID++
	b.handlers[kind][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[kind], id)
	}
}

func (b *inputBridge) DispatchInput() {
	b.fire(overlay.EventInput)
}

func (b *inputBridge) fire(kind overlay.EventKind) {
	b.mu.Lock()
	handlers := make([]overlay.Handler, 0, len(b.handlers[kind]))
	for _, h := range b.handlers[kind] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(overlay.Event{Kind: kind})
	}
}
