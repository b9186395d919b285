// Package pool: batched release of checked-out buffers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Batch collects buffers a consumer has finished with and returns them to
// the pool in one pass. Not thread-safe: a batch belongs to one goroutine.

package pool

import "errors"

// Batch is a fixed-capacity list of checked-out buffers.
type Batch struct {
	buffers []*Buffer
}

// NewBatch creates an empty batch with room for capacity buffers.
func NewBatch(capacity int) *Batch {
	return &Batch{buffers: make([]*Buffer, 0, capacity)}
}

// Append adds b. Appending past Cap grows the batch.
func (bt *Batch) Append(b *Buffer) {
	bt.buffers = append(bt.buffers, b)
}

// Len returns the number of buffers held.
func (bt *Batch) Len() int {
	return len(bt.buffers)
}

// Cap returns the capacity the batch was created with.
func (bt *Batch) Cap() int {
	return cap(bt.buffers)
}

// Buffers returns the held buffers. The slice is reused after Release.
func (bt *Batch) Buffers() []*Buffer {
	return bt.buffers
}

// Release returns every held buffer to p and empties the batch. All buffers
// are attempted; the errors of those that failed are joined.
func (bt *Batch) Release(p *Pool) error {
	var errs []error
	for i, b := range bt.buffers {
		if err := p.Release(b); err != nil {
			errs = append(errs, err)
		}
		bt.buffers[i] = nil
	}
	bt.buffers = bt.buffers[:0]
	return errors.Join(errs...)
}
