package overlay

// Flags are the feature switches gating each annotation layer.
// OverlayEnabled is the master switch: when false the entire visual tree is
// torn down regardless of the individual layer flags.
type Flags struct {
	OverlayEnabled     bool
	GhostEnabled       bool
	SuggestionsEnabled bool
	ErrorsEnabled      bool
}

// DefaultFlags enables everything.
func DefaultFlags() Flags {
	return Flags{
		OverlayEnabled:     true,
		GhostEnabled:       true,
		SuggestionsEnabled: true,
		ErrorsEnabled:      true,
	}
}
