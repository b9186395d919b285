// File: pool/window.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Window editor: in-place add/push/pull over a Buffer's storage.
//
//	|<- headroom ->|<---- window ---->|<- tailroom ->|
//	0           offset         offset+length      Capacity
//
// Every mutator validates bounds first and leaves the buffer untouched on
// error. Returned views alias the storage and are capped to their length.

package pool

import "github.com/momentics/hcibuf/api"

// Headroom returns the bytes available in front of the window for PushHead.
func (b *Buffer) Headroom() int {
	return b.offset
}

// Tailroom returns the bytes available after the window for AddTail.
func (b *Buffer) Tailroom() int {
	return Capacity - b.offset - b.length
}

// AddTail extends the window by n bytes at the end and returns them for writing.
func (b *Buffer) AddTail(n int) ([]byte, error) {
	if err := b.check("add_tail", n, b.Tailroom()); err != nil {
		return nil, err
	}
	start := b.offset + b.length
	b.length += n
	return b.storage[start : start+n : start+n], nil
}

// PushHead grows the window by n bytes at the front and returns the new prefix.
func (b *Buffer) PushHead(n int) ([]byte, error) {
	if err := b.check("push_head", n, b.offset); err != nil {
		return nil, err
	}
	b.offset -= n
	b.length += n
	return b.storage[b.offset : b.offset+n : b.offset+n], nil
}

// PullHead drops n bytes from the front of the window and returns them,
// typically to decode a header before moving past it.
func (b *Buffer) PullHead(n int) ([]byte, error) {
	if err := b.check("pull_head", n, b.length); err != nil {
		return nil, err
	}
	start := b.offset
	b.offset += n
	b.length -= n
	return b.storage[start : start+n : start+n], nil
}

// TrimTail drops n bytes from the end of the window and returns them.
func (b *Buffer) TrimTail(n int) ([]byte, error) {
	if err := b.check("trim_tail", n, b.length); err != nil {
		return nil, err
	}
	b.length -= n
	end := b.offset + b.length
	return b.storage[end : end+n : end+n], nil
}

// Reset empties the window and reserves headReservation bytes of headroom
// without returning the buffer to the pool.
func (b *Buffer) Reset(headReservation int) error {
	if err := b.check("reset", headReservation, Capacity); err != nil {
		return err
	}
	b.reset(b.class, headReservation)
	return nil
}

func (b *Buffer) check(op string, n, available int) error {
	if !b.CheckedOut() {
		return api.ErrBufferReleased.WithContext("op", op).WithContext("slot", b.index)
	}
	if n < 0 || n > available {
		return windowError(op, n, available)
	}
	return nil
}

func windowError(op string, requested, available int) error {
	return api.ErrWindowCapacity.
		WithContext("op", op).
		WithContext("requested", requested).
		WithContext("available", available)
}
