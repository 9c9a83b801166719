package overlay

import "go.uber.org/zap"

// Controller is the lifecycle manager binding one overlay to one target
// input at a time. It owns attach/detach/destroy semantics and the event
// wiring between the target and the layer manager.
//
// The controller is an explicitly constructed, owned instance: whoever
// bootstraps the host integration creates it, holds it, and destroys it.
// It is not safe for concurrent use; all calls must come from the platform's
// event loop.
type Controller struct {
	logger  *zap.Logger
	surface Surface
	layers  *LayerManager
	geo     *GeometrySync

	target Target
	offs   []func()
}

// NewController creates a controller in the Unattached state.
func NewController(surface Surface, flags Flags, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		logger:  logger,
		surface: surface,
		layers:  NewLayerManager(surface, flags, logger),
		geo:     NewGeometrySync(surface),
	}
}

// Attached reports whether a target is currently tracked.
func (c *Controller) Attached() bool {
	return c.target != nil
}

// Flags returns the currently applied feature flags.
func (c *Controller) Flags() Flags {
	return c.layers.Flags()
}

// Layers exposes the layer manager for render calls from the response layer.
func (c *Controller) Layers() *LayerManager {
	return c.layers
}

// Attach binds the controller to a target input. A nil target or the target
// already attached is a no-op. Attaching a different target while attached
// performs an implicit detach of the old target's listeners first, reusing
// the existing visual tree. On success all prior ghost/suggestion/error state
// is cleared and the overlay is synced to the new target's geometry.
func (c *Controller) Attach(target Target) {
	if target == nil || target == c.target {
		return
	}

	if c.target != nil {
		c.unbindTarget()
		c.logger.Debug("overlay switching target")
	}

	c.target = target
	c.layers.SetTarget(target)
	c.layers.Reset()

	if c.layers.Flags().OverlayEnabled {
		c.layers.Build()
		c.bindTarget()
		c.syncGeometry()
	}

	c.logger.Debug("overlay attached")
}

// Detach unbinds all listeners, destroys the visual tree, and clears all
// state. A no-op when already unattached.
func (c *Controller) Detach() {
	if c.target == nil {
		return
	}

	c.unbindTarget()
	c.layers.Teardown()
	c.layers.SetTarget(nil)
	c.layers.Reset()
	c.geo.Bind(nil, nil, nil)
	c.target = nil

	c.logger.Debug("overlay detached")
}

// SetFlags applies new feature flags. Disabling the overlay tears down the
// visual tree and the target's listeners while keeping the attachment, so
// re-enabling restores the most recently rendered state of every layer.
func (c *Controller) SetFlags(flags Flags) {
	wasEnabled := c.layers.Flags().OverlayEnabled

	if wasEnabled && !flags.OverlayEnabled {
		c.unbindTarget()
		c.geo.Bind(nil, nil, nil)
	}

	c.layers.SetFlags(flags)

	if !wasEnabled && flags.OverlayEnabled && c.target != nil {
		c.bindTarget()
		c.syncGeometry()
	}
}

// RenderGhost forwards a completion result to the ghost layer. A no-op when
// the target has left the document.
func (c *Controller) RenderGhost(text string) {
	if c.detachedRace() {
		return
	}
	c.layers.RenderGhost(text)
}

// RenderSuggestions forwards an advisor result to the suggestion layer.
func (c *Controller) RenderSuggestions(list []Suggestion) {
	if c.detachedRace() {
		return
	}
	c.layers.RenderSuggestions(list)
}

// RenderErrors forwards a review result to the error layer.
func (c *Controller) RenderErrors(list []ErrorAnnotation) {
	if c.detachedRace() {
		return
	}
	c.layers.RenderErrors(list)
}

// detachedRace handles the window between an update being scheduled and the
// target leaving the document: the update becomes a no-op and the controller
// detaches cleanly.
func (c *Controller) detachedRace() bool {
	if c.target == nil {
		return true
	}
	if !c.target.Alive() {
		c.logger.Debug("overlay target left the document, detaching")
		c.Detach()
		return true
	}
	return false
}

// eventTable is the full set of target events the controller reacts to. It
// is registered and unregistered atomically on attach/detach so no listener
// can dangle after a target swap.
func (c *Controller) eventTable() []struct {
	kind EventKind
	fn   Handler
} {
	return []struct {
		kind EventKind
		fn   Handler
	}{
		{EventInput, c.onInput},
		{EventScroll, c.onScroll},
		{EventResize, c.onResize},
	}
}

func (c *Controller) bindTarget() {
	if c.target == nil || len(c.offs) > 0 {
		return
	}
	for _, entry := range c.eventTable() {
		c.offs = append(c.offs, c.target.On(entry.kind, entry.fn))
	}
}

func (c *Controller) unbindTarget() {
	for _, off := range c.offs {
		off()
	}
	c.offs = nil
}

// onInput runs synchronously on every text change, before any asynchronous
// completion response can arrive. Clearing the ghost here is what guarantees
// a stale completion never renders against newer input.
func (c *Controller) onInput(Event) {
	if c.detachedRace() {
		return
	}
	c.layers.InvalidateGhost()
	c.layers.RefreshErrors()
	c.syncGeometry()
}

func (c *Controller) onScroll(Event) {
	c.syncGeometry()
}

func (c *Controller) onResize(Event) {
	c.syncGeometry()
}

func (c *Controller) syncGeometry() {
	c.geo.Bind(c.target, c.layers.Root(), c.layers.TextLayer())
	c.geo.Sync()
}
