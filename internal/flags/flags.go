// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"

	"github.com/zjrosen/diffdeck/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagMouseSelection controls whether drag-selecting diff lines to
	// extract snippets is enabled.
	FlagMouseSelection = "mouse-selection"

	// FlagSplitView controls whether the side-by-side layout toggle is
	// available.
	FlagSplitView = "split-view"
)

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// Defaults returns the flag values shipped with a release. Features
// listed here are on unless the config turns them off.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagMouseSelection: true,
		FlagSplitView:      true,
	}
}

// New creates a Registry from a config map, overlaid on Defaults.
// If flags is nil, the defaults apply unchanged.
func New(flags map[string]bool) *Registry {
	merged := Defaults()
	maps.Copy(merged, flags)
	r := &Registry{flags: merged}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(merged), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags (safe default).
// Returns false when called on nil registry (nil-safe).
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
