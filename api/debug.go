// Package api
// Author: momentics
//
// Runtime introspection for pool state.

package api

// Debug exposes named probes that snapshot live state.
type Debug interface {
	// DumpState evaluates every registered probe.
	DumpState() map[string]any

	// RegisterProbe registers or replaces a named probe.
	RegisterProbe(name string, fn func() any)
}
