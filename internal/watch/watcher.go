// Package watch is the request layer between the overlay and the remote
// completion service. It detects typing pauses, issues one round of
// completion/suggestion/review requests per pause, and discards any response
// that arrives after a newer edit, so the overlay only ever renders results
// derived from the current text.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/draftpad/draftpad/pkg/debounce"
	"github.com/draftpad/draftpad/pkg/overlay"
	"go.uber.org/zap"
)

// Completer produces the ghost-text continuation for a draft.
type Completer interface {
	Complete(ctx context.Context, draft string) (string, error)
}

// Advisor produces structured suggestions for a draft.
type Advisor interface {
	Suggest(ctx context.Context, draft string) ([]overlay.Suggestion, error)
}

// Critic reviews a draft for critical issues.
type Critic interface {
	Review(ctx context.Context, draft string) ([]overlay.ErrorAnnotation, error)
}

// Providers bundles the three request kinds. Any of them may be nil; a nil
// provider's layer simply never receives data.
type Providers struct {
	Completer Completer
	Advisor   Advisor
	Critic    Critic
}

// Sink receives annotation results. The overlay controller satisfies it
// directly; UI adapters usually wrap it to re-enter their event loop first.
type Sink interface {
	RenderGhost(text string)
	RenderSuggestions(list []overlay.Suggestion)
	RenderErrors(list []overlay.ErrorAnnotation)
}

// Watcher observes a target's input events and drives the providers.
type Watcher struct {
	providers Providers
	sink      Sink
	flags     func() overlay.Flags
	logger    *zap.Logger

	mu         sync.Mutex
	generation int
	draft      string

	debounced      func()
	cancelDebounce func()
	off            func()
}

// New creates a watcher that fires one request round after the user pauses
// for wait. flags gates which providers get called; nil means all layers are
// treated as enabled.
func New(providers Providers, sink Sink, wait time.Duration, flags func() overlay.Flags, logger *zap.Logger) *Watcher {
	if flags == nil {
		flags = func() overlay.Flags { return overlay.DefaultFlags() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{
		providers: providers,
		sink:      sink,
		flags:     flags,
		logger:    logger,
	}
	w.debounced, w.cancelDebounce = debounce.WithCancel(wait, w.fire)
	return w
}

// Watch subscribes to the target's input events. Watching a new target
// replaces the previous subscription.
func (w *Watcher) Watch(target overlay.Target) {
	w.Close()
	if target == nil {
		return
	}

	w.off = target.On(overlay.EventInput, func(overlay.Event) {
		w.mu.Lock()
		w.generation++
		w.draft = target.Value()
		w.mu.Unlock()

		w.debounced()
	})
}

// Close unsubscribes from the current target and drops any pending request
// round. Responses already in flight are still generation-checked, so nothing
// stale can render afterwards.
func (w *Watcher) Close() {
	if w.off != nil {
		w.off()
		w.off = nil
	}
	w.cancelDebounce()
}

// fire runs on the debounce timer goroutine once typing has paused.
func (w *Watcher) fire() {
	w.mu.Lock()
	generation := w.generation
	draft := w.draft
	w.mu.Unlock()

	if draft == "" {
		return
	}

	flags := w.flags()
	if !flags.OverlayEnabled {
		return
	}

	if w.providers.Completer != nil && flags.GhostEnabled {
		go w.requestGhost(generation, draft)
	}
	if w.providers.Advisor != nil && flags.SuggestionsEnabled {
		go w.requestSuggestions(generation, draft)
	}
	if w.providers.Critic != nil && flags.ErrorsEnabled {
		go w.requestReview(generation, draft)
	}
}

func (w *Watcher) requestGhost(generation int, draft string) {
	text, err := withRetry(func() (string, error) {
		return w.providers.Completer.Complete(context.Background(), draft)
	})
	if err != nil {
		w.logger.Error("completion request failed", zap.Error(err))
		return
	}
	if w.stale(generation, "completion") {
		return
	}
	w.sink.RenderGhost(text)
}

func (w *Watcher) requestSuggestions(generation int, draft string) {
	list, err := withRetry(func() ([]overlay.Suggestion, error) {
		return w.providers.Advisor.Suggest(context.Background(), draft)
	})
	if err != nil {
		w.logger.Error("suggestion request failed", zap.Error(err))
		return
	}
	if w.stale(generation, "suggestions") {
		return
	}
	w.sink.RenderSuggestions(list)
}

func (w *Watcher) requestReview(generation int, draft string) {
	list, err := withRetry(func() ([]overlay.ErrorAnnotation, error) {
		return w.providers.Critic.Review(context.Background(), draft)
	})
	if err != nil {
		w.logger.Error("review request failed", zap.Error(err))
		return
	}
	if w.stale(generation, "review") {
		return
	}
	w.sink.RenderErrors(list)
}

// stale reports whether the draft has changed since the request was issued.
func (w *Watcher) stale(generation int, kind string) bool {
	w.mu.Lock()
	current := w.generation
	w.mu.Unlock()

	if generation != current {
		w.logger.Debug("discarding stale response",
			zap.String("kind", kind),
			zap.Int("requestGeneration", generation),
			zap.Int("currentGeneration", current),
		)
		return true
	}
	return false
}

// withRetry tries fn twice. The single retry covers transient transport
// failures; anything persistent waits for the next typing pause.
func withRetry[T any](fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}
	return fn()
}
