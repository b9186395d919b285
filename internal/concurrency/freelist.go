// File: internal/concurrency/freelist.go
// Package concurrency implements the synchronization primitives behind the pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FreeList is a mutex-guarded FIFO of handles with an optional blocking take.
// Safe for any number of producers and consumers.

package concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hcibuf/api"
)

// Ensure compile-time interface compliance.
var _ api.FreeList[any] = (*FreeList[any])(nil)

// FreeList holds available handles in the order they were given back.
type FreeList[T any] struct {
	mu    sync.Mutex
	q     *queue.Queue
	ready chan struct{} // one pending wakeup, never blocks Give
}

// NewFreeList returns an empty list.
func NewFreeList[T any]() *FreeList[T] {
	return &FreeList[T]{
		q:     queue.New(),
		ready: make(chan struct{}, 1),
	}
}

// Give appends h and wakes one waiter.
func (l *FreeList[T]) Give(h T) {
	l.mu.Lock()
	l.q.Add(h)
	l.mu.Unlock()
	l.signal()
}

// Take removes the oldest handle; ok is false when the list is empty.
func (l *FreeList[T]) Take() (h T, ok bool) {
	l.mu.Lock()
	h, ok, _ = l.takeLocked()
	l.mu.Unlock()
	return h, ok
}

// TakeOrWait blocks until a handle is available. It returns
// api.ErrAcquireTimeout when timeout elapses and ctx.Err() on cancellation.
// A zero or negative timeout waits on ctx only.
func (l *FreeList[T]) TakeOrWait(ctx context.Context, timeout time.Duration) (T, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		l.mu.Lock()
		h, ok, more := l.takeLocked()
		l.mu.Unlock()
		if ok {
			// Pass the wakeup on: the token we consumed may have been
			// meant for another waiter.
			if more {
				l.signal()
			}
			return h, nil
		}
		select {
		case <-l.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-expired:
			var zero T
			return zero, api.ErrAcquireTimeout.WithContext("timeout", timeout.String())
		}
	}
}

// Len returns the number of handles currently available.
func (l *FreeList[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.Length()
}

// Reset drops every handle.
func (l *FreeList[T]) Reset() {
	l.mu.Lock()
	l.q = queue.New()
	l.mu.Unlock()
	select {
	case <-l.ready:
	default:
	}
}

func (l *FreeList[T]) takeLocked() (h T, ok bool, more bool) {
	if l.q.Length() == 0 {
		return h, false, false
	}
	h = l.q.Remove().(T)
	return h, true, l.q.Length() > 0
}

func (l *FreeList[T]) signal() {
	select {
	case l.ready <- struct{}{}:
	default:
	}
}
