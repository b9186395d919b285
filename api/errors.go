// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy for the buffer pool and window editor.

package api

import "fmt"

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeTimeout
	ErrCodeTooManyDataBuffers
	ErrCodeWindowCapacity
	ErrCodeInvalidClass
	ErrCodeDoubleRelease
	ErrCodeAlreadyInitialized
	ErrCodeMalformedPacket
	ErrCodeBufferReleased
	ErrCodeInternal
)

// Common errors used across the library. Match them with errors.Is; the
// values returned by the pool carry extra context but share the code.
var (
	ErrInvalidArgument     = NewError(ErrCodeInvalidArgument, "invalid argument")
	ErrAllocationExhausted = NewError(ErrCodeResourceExhausted, "no free buffer in class")
	ErrAcquireTimeout      = NewError(ErrCodeTimeout, "timed out waiting for a free buffer")
	ErrTooManyDataBuffers  = NewError(ErrCodeTooManyDataBuffers, "too many data buffers requested")
	ErrWindowCapacity      = NewError(ErrCodeWindowCapacity, "buffer window capacity exceeded")
	ErrInvalidClass        = NewError(ErrCodeInvalidClass, "unknown traffic class")
	ErrDoubleRelease       = NewError(ErrCodeDoubleRelease, "buffer released twice")
	ErrAlreadyInitialized  = NewError(ErrCodeAlreadyInitialized, "pool already partitioned")
	ErrMalformedPacket     = NewError(ErrCodeMalformedPacket, "malformed packet")
	ErrBufferReleased      = NewError(ErrCodeBufferReleased, "buffer is not checked out")
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Context) > 0 {
		msg = fmt.Sprintf("%s (context: %+v)", msg, e.Context)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithContext returns a copy of e with key set to value.
// The receiver is never modified.
func (e *Error) WithContext(key string, value any) *Error {
	out := e.clone()
	out.Context[key] = value
	return out
}

// Wrap returns a copy of e that wraps cause.
func (e *Error) Wrap(cause error) *Error {
	out := e.clone()
	out.cause = cause
	return out
}

func (e *Error) clone() *Error {
	ctx := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	return &Error{Code: e.Code, Message: e.Message, Context: ctx, cause: e.cause}
}
