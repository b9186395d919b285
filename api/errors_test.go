package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatching(t *testing.T) {
	t.Run("ContextCopyMatchesSentinel", func(t *testing.T) {
		err := ErrAllocationExhausted.WithContext("class", "acl_in")

		assert.True(t, errors.Is(err, ErrAllocationExhausted))
		assert.False(t, errors.Is(err, ErrAcquireTimeout))
		assert.Contains(t, err.Error(), "acl_in")
	})

	t.Run("WithContextLeavesSentinelUntouched", func(t *testing.T) {
		_ = ErrWindowCapacity.WithContext("op", "add_tail")

		assert.Empty(t, ErrWindowCapacity.Context)
		assert.Equal(t, "buffer window capacity exceeded", ErrWindowCapacity.Error())
	})

	t.Run("MatchesThroughWrapping", func(t *testing.T) {
		err := fmt.Errorf("startup: %w", ErrTooManyDataBuffers.WithContext("inbound", 19))

		assert.True(t, errors.Is(err, ErrTooManyDataBuffers))

		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, ErrCodeTooManyDataBuffers, apiErr.Code)
		assert.Equal(t, 19, apiErr.Context["inbound"])
	})

	t.Run("WrapExposesCause", func(t *testing.T) {
		cause := errors.New("disk on fire")
		err := ErrInvalidArgument.Wrap(cause)

		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, ErrInvalidArgument))
		assert.Contains(t, err.Error(), "disk on fire")
	})
}

func TestTrafficClass(t *testing.T) {
	for _, c := range Classes {
		assert.True(t, c.Valid(), c.String())
		assert.NotEqual(t, "unknown", c.String())
	}
	assert.False(t, TrafficClass(42).Valid())
	assert.Equal(t, "unknown", TrafficClass(42).String())
}

func TestParseAcquirePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    AcquirePolicy
		wantErr bool
	}{
		{"", PolicyImmediate, false},
		{"immediate", PolicyImmediate, false},
		{"blocking", PolicyBlocking, false},
		{"lazy", PolicyImmediate, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAcquirePolicy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) AcquirePolicy {
	t.Helper()
	p, err := ParseAcquirePolicy(s)
	require.NoError(t, err)
	return p
}
