//go:build linux

// File: internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux thread affinity via sched_setaffinity, without cgo.

package concurrency

import "golang.org/x/sys/unix"

func platformPinCurrentThread(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	// pid 0 addresses the calling thread.
	return unix.SchedSetaffinity(0, &set)
}
