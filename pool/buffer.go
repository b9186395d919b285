// File: pool/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer is one fixed slot of the pool: a contiguous byte array with a
// movable data window. The window is an offset/length pair over the array;
// window edits never copy payload bytes.

package pool

import (
	"sync/atomic"

	"github.com/momentics/hcibuf/api"
)

// Capacity is the storage size of every buffer: maximum payload plus the
// headroom and tailroom any class may need.
const Capacity = 64

const (
	slotFree uint32 = iota
	slotOwned
)

// Buffer is a pooled packet buffer. A checked-out buffer has exactly one
// owner; its window methods take no locks.
type Buffer struct {
	storage [Capacity]byte
	class   api.TrafficClass
	offset  int
	length  int

	index int
	state atomic.Uint32
	pool  *Pool
}

// Class returns the traffic class the buffer was acquired for.
func (b *Buffer) Class() api.TrafficClass { return b.class }

// Index returns the slot number inside the owning pool.
func (b *Buffer) Index() int { return b.index }

// Len returns the number of bytes in the data window.
func (b *Buffer) Len() int { return b.length }

// Bytes returns the data window. The slice aliases the buffer storage and
// is valid until the window is edited or the buffer is released.
func (b *Buffer) Bytes() []byte {
	end := b.offset + b.length
	return b.storage[b.offset:end:end]
}

// CheckedOut reports whether the buffer is currently owned by a caller.
func (b *Buffer) CheckedOut() bool {
	return b.state.Load() == slotOwned
}

// reset zeroes the storage and seats an empty window after headReservation bytes.
func (b *Buffer) reset(class api.TrafficClass, headReservation int) {
	b.storage = [Capacity]byte{}
	b.class = class
	b.offset = headReservation
	b.length = 0
}
