// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Platform debug probes: CPU count and the cache-line padding the pool
// counters and rings are built with.

package control

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// RegisterPlatformProbes sets platform debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.arch", func() any {
		return runtime.GOARCH
	})
	dp.RegisterProbe("platform.cacheline_pad", func() any {
		return int(unsafe.Sizeof(cpu.CacheLinePad{}))
	})
}
