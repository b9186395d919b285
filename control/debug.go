// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug handler and probe reflector for internal inspection.

package control

import (
	"sync"

	"github.com/momentics/hcibuf/api"
)

// Ensure compile-time interface compliance.
var _ api.Debug = (*DebugProbes)(nil)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.probes))
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// StatsSource is anything that can report pool accounting.
type StatsSource interface {
	Stats() api.BufferPoolStats
}

// RegisterPoolProbes exposes pool stats and per-list occupancy under prefix.
func RegisterPoolProbes(dp *DebugProbes, prefix string, src StatsSource) {
	dp.RegisterProbe(prefix+".stats", func() any {
		return src.Stats()
	})
	dp.RegisterProbe(prefix+".free", func() any {
		lists := src.Stats().Lists
		out := make(map[string]int, len(lists))
		for name, ls := range lists {
			out[name] = ls.Free
		}
		return out
	})
}
