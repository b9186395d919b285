// Package api
// Author: momentics@gmail.com
//
// Bounded hand-off queue between a driver context and a host context.

package api

// Ring moves checked-out buffers from one producer to one consumer.
// Ownership of an item transfers with Enqueue; the producer must not touch
// it afterwards.
type Ring[T any] interface {
	// Enqueue adds an item, returns false if full.
	Enqueue(item T) bool
	// Dequeue removes oldest item, returns false if empty.
	Dequeue() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns ring capacity.
	Cap() int
}
