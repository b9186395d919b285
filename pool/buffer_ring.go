// File: pool/buffer_ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BufferRing hands checked-out buffers from a driver context to a host
// context without locks. Exactly one goroutine may enqueue and exactly one
// may dequeue. The produced and consumed cursors sit on separate cache lines.

package pool

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hcibuf/api"
)

// Ensure compile-time compliance.
var _ api.Ring[*Buffer] = (*BufferRing)(nil)

// BufferRing is a bounded SPSC queue of *Buffer with power-of-two capacity.
type BufferRing struct {
	slots    []*Buffer
	mask     uint64
	consumed atomic.Uint64
	_        cpu.CacheLinePad
	produced atomic.Uint64
	_        cpu.CacheLinePad
}

// NewBufferRing creates a ring holding size buffers. size must be a
// non-zero power of two.
func NewBufferRing(size uint64) (*BufferRing, error) {
	if size == 0 || size&(size-1) != 0 {
		return nil, api.ErrInvalidArgument.WithContext("ring_size", size)
	}
	return &BufferRing{
		slots: make([]*Buffer, size),
		mask:  size - 1,
	}, nil
}

// Enqueue hands b to the consumer; false if the ring is full. The producer
// must not touch b after a successful Enqueue.
func (r *BufferRing) Enqueue(b *Buffer) bool {
	tail := r.produced.Load()
	if tail-r.consumed.Load() >= uint64(len(r.slots)) {
		return false
	}
	r.slots[tail&r.mask] = b
	r.produced.Store(tail + 1)
	return true
}

// Dequeue takes the oldest buffer; false if the ring is empty.
func (r *BufferRing) Dequeue() (*Buffer, bool) {
	head := r.consumed.Load()
	if head >= r.produced.Load() {
		return nil, false
	}
	idx := head & r.mask
	b := r.slots[idx]
	r.slots[idx] = nil
	r.consumed.Store(head + 1)
	return b, true
}

// DequeueInto moves queued buffers into bt until the ring is empty or bt
// is full, and returns how many were moved.
func (r *BufferRing) DequeueInto(bt *Batch) int {
	n := 0
	for bt.Len() < bt.Cap() {
		b, ok := r.Dequeue()
		if !ok {
			break
		}
		bt.Append(b)
		n++
	}
	return n
}

// Len returns the number of queued buffers.
func (r *BufferRing) Len() int {
	return int(r.produced.Load() - r.consumed.Load())
}

// Cap returns the ring capacity.
func (r *BufferRing) Cap() int {
	return len(r.slots)
}

// Drain releases every buffer still queued back to p and returns how many
// were returned.
func (r *BufferRing) Drain(p *Pool) (int, error) {
	n := 0
	for {
		b, ok := r.Dequeue()
		if !ok {
			return n, nil
		}
		if err := p.Release(b); err != nil {
			return n, err
		}
		n++
	}
}
