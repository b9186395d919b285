// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Pool and free-list contracts: fixed, class-partitioned buffer recycling.

package api

import (
	"context"
	"time"
)

// FreeList is a FIFO of available handles for one traffic class.
// Implementations must be safe for concurrent producers and consumers.
type FreeList[T any] interface {
	// Give returns a handle to the list and wakes one waiting taker.
	Give(h T)

	// Take removes the oldest handle if one is present.
	Take() (T, bool)

	// TakeOrWait blocks until a handle is available, ctx is done, or
	// timeout elapses. A zero timeout waits on ctx only.
	TakeOrWait(ctx context.Context, timeout time.Duration) (T, error)

	// Len returns the number of handles currently available.
	Len() int

	// Reset drops every handle, leaving the list empty.
	Reset()
}

// BufferPool is the allocation surface exposed to drivers and upper layers.
type BufferPool[B any] interface {
	// Initialize partitions the slots between inbound data, outbound data
	// and control traffic. Only the first successful layout takes effect.
	Initialize(inbound, outbound int) error

	// Acquire checks out a buffer of class with headReservation bytes of
	// headroom, following the pool's acquire policy.
	Acquire(class TrafficClass, headReservation int) (B, error)

	// Release returns a checked-out buffer to its class free-list.
	Release(b B) error

	// Stats exposes accounting for observability.
	Stats() BufferPoolStats
}

// ListStats is a per-free-list snapshot. Command and event traffic share
// the "control" list.
type ListStats struct {
	Provisioned int
	Free        int
	InUse       int
	Exhausted   uint64
}

// BufferPoolStats aggregates allocation/reuse stats.
type BufferPoolStats struct {
	NumBuffers  int
	Capacity    int
	TotalAlloc  uint64
	TotalFree   uint64
	InUse       int64
	Exhausted   uint64
	Timeouts    uint64
	Lists       map[string]ListStats
	Initialized bool
}
