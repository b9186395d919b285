// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake free-list for testing pool routing without real synchronization.

package fake

import (
	"context"
	"sync"
	"time"

	"github.com/momentics/hcibuf/api"
)

// Ensure compile-time interface compliance.
var _ api.FreeList[any] = (*FreeList[any])(nil)

// FreeList is a slice-backed FIFO that records every call.
// TakeOrWait never blocks: it returns WaitErr when the list is empty.
type FreeList[T any] struct {
	mu      sync.Mutex
	items   []T
	given   []T
	takes   int
	resets  int
	WaitErr error
}

// NewFreeList creates an empty fake list.
func NewFreeList[T any]() *FreeList[T] {
	return &FreeList[T]{WaitErr: api.ErrAcquireTimeout}
}

// Give appends h.
func (f *FreeList[T]) Give(h T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, h)
	f.given = append(f.given, h)
}

// Take pops the oldest handle.
func (f *FreeList[T]) Take() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.takes++
	var zero T
	if len(f.items) == 0 {
		return zero, false
	}
	h := f.items[0]
	f.items = f.items[1:]
	return h, true
}

// TakeOrWait behaves like Take but reports WaitErr instead of blocking.
func (f *FreeList[T]) TakeOrWait(ctx context.Context, _ time.Duration) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	h, ok := f.Take()
	if !ok {
		return h, f.WaitErr
	}
	return h, nil
}

// Len returns the number of queued handles.
func (f *FreeList[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Reset drops queued handles; the call history is kept.
func (f *FreeList[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.resets++
}

// Given returns every handle passed to Give, in order.
func (f *FreeList[T]) Given() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.given...)
}

// Takes returns how many times Take (directly or via TakeOrWait) was called.
func (f *FreeList[T]) Takes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.takes
}

// Resets returns how many times Reset was called.
func (f *FreeList[T]) Resets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}
