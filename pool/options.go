// File: pool/options.go
// Package pool defines functional options for Pool construction.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"log/slog"
	"time"

	"github.com/momentics/hcibuf/api"
)

type options struct {
	numBuffers int
	policy     api.AcquirePolicy
	timeout    time.Duration
	logger     *slog.Logger
	newList    func() api.FreeList[*Buffer]
}

// Option customizes pool construction.
type Option func(*options)

// WithNumBuffers overrides the slot count (default NumBuffers). Values below
// MinControlBuffers are raised to it.
func WithNumBuffers(n int) Option {
	return func(o *options) {
		o.numBuffers = n
	}
}

// WithAcquirePolicy sets what Acquire does when a class is empty.
func WithAcquirePolicy(policy api.AcquirePolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithAcquireTimeout bounds Acquire under PolicyBlocking. Zero waits forever.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger attaches a structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFreeListFactory replaces the free-list implementation, one call per class list.
func WithFreeListFactory(fn func() api.FreeList[*Buffer]) Option {
	return func(o *options) {
		if fn != nil {
			o.newList = fn
		}
	}
}
