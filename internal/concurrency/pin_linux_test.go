//go:build linux

package concurrency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPinCurrentThread_Linux(t *testing.T) {
	var allowed unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &allowed))
	cpu := -1
	for i := 0; i < len(allowed)*64; i++ {
		if allowed.IsSet(i) {
			cpu = i
			break
		}
	}
	require.GreaterOrEqual(t, cpu, 0)

	// Pin a throwaway goroutine: its thread is discarded when it exits.
	type result struct {
		set unix.CPUSet
		err error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		if r.err = PinCurrentThread(cpu); r.err == nil {
			r.err = unix.SchedGetaffinity(0, &r.set)
		}
		done <- r
	}()

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, 1, r.set.Count())
	assert.True(t, r.set.IsSet(cpu))
}
