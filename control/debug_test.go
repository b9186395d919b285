package control

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hcibuf/api"
	"github.com/momentics/hcibuf/pool"
)

func TestDebugProbes(t *testing.T) {
	p := pool.New()
	require.NoError(t, p.Initialize(5, 5))
	b, err := p.Acquire(api.ClassOutboundData, 0)
	require.NoError(t, err)

	dp := NewDebugProbes()
	RegisterPoolProbes(dp, "pool", p)
	RegisterPlatformProbes(dp)

	state := dp.DumpState()
	assert.Equal(t, runtime.NumCPU(), state["platform.cpus"])
	assert.Equal(t, runtime.GOARCH, state["platform.arch"])
	assert.Positive(t, state["platform.cacheline_pad"])

	stats, ok := state["pool.stats"].(api.BufferPoolStats)
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.InUse)
	assert.Equal(t, map[string]int{pool.ListControl: 10, pool.ListInbound: 5, pool.ListOutbound: 4}, state["pool.free"])

	require.NoError(t, p.Release(b))
	assert.Equal(t, 5, dp.DumpState()["pool.free"].(map[string]int)[pool.ListOutbound], "probes read live state")
}
