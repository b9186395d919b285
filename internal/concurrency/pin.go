// File: internal/concurrency/pin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime pinning of driver and host contexts to a CPU core.

package concurrency

import (
	"runtime"

	"github.com/momentics/hcibuf/api"
)

// PinCurrentThread locks the calling goroutine to its OS thread and binds
// that thread to cpu. The goroutine stays locked until it exits, at which
// point the runtime discards the thread together with its affinity mask.
// A cpu outside the process affinity mask fails on Linux. On platforms
// without affinity support only the thread lock is applied.
func PinCurrentThread(cpu int) error {
	if cpu < 0 {
		return api.ErrInvalidArgument.WithContext("cpu", cpu)
	}
	runtime.LockOSThread()
	if err := platformPinCurrentThread(cpu); err != nil {
		runtime.UnlockOSThread()
		return api.NewError(api.ErrCodeInternal, "failed to set thread affinity").
			WithContext("cpu", cpu).
			Wrap(err)
	}
	return nil
}
