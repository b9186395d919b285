package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hcibuf/api"
)

func TestBufferRing_Drain(t *testing.T) {
	p := newPool(t, 4, 0)
	r := newRing(t, 4)

	for i := 0; i < 3; i++ {
		b, err := p.Acquire(api.ClassInboundData, 0)
		require.NoError(t, err)
		require.True(t, r.Enqueue(b))
	}
	assert.Equal(t, int64(3), p.Stats().InUse)

	n, err := r.Drain(p)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, int64(0), p.Stats().InUse)
	assert.Equal(t, 4, p.Stats().Lists[ListInbound].Free)
}

func TestBufferRing_DrainStopsOnReleaseError(t *testing.T) {
	p := newPool(t, 2, 0)
	r := newRing(t, 4)

	b, err := p.Acquire(api.ClassInboundData, 0)
	require.NoError(t, err)
	require.NoError(t, p.Release(b))
	require.True(t, r.Enqueue(b))

	n, err := r.Drain(p)
	assert.ErrorIs(t, err, api.ErrDoubleRelease)
	assert.Equal(t, 0, n)
}

func newRing(t *testing.T, size uint64) *BufferRing {
	t.Helper()
	r, err := NewBufferRing(size)
	require.NoError(t, err)
	return r
}

func TestBufferRing_FIFO(t *testing.T) {
	p := newPool(t, 5, 0)
	r := newRing(t, 4)
	assert.Equal(t, 4, r.Cap())

	bufs := drain(t, p, api.ClassInboundData)
	for _, b := range bufs[:4] {
		require.True(t, r.Enqueue(b))
	}
	assert.False(t, r.Enqueue(bufs[4]), "full ring must refuse")
	assert.Equal(t, 4, r.Len())

	for _, want := range bufs[:4] {
		got, ok := r.Dequeue()
		require.True(t, ok)
		assert.Same(t, want, got)
	}
	_, ok := r.Dequeue()
	assert.False(t, ok)
	for _, s := range r.slots {
		assert.Nil(t, s, "dequeued slots must not pin buffers")
	}
}

func TestBufferRing_RejectsBadSize(t *testing.T) {
	for _, size := range []uint64{0, 3, 6, 12} {
		_, err := NewBufferRing(size)
		assert.ErrorIs(t, err, api.ErrInvalidArgument, "size=%d", size)
	}
}

func TestBufferRing_DequeueInto(t *testing.T) {
	p := newPool(t, 5, 0)
	r := newRing(t, 8)
	for _, b := range drain(t, p, api.ClassInboundData) {
		require.True(t, r.Enqueue(b))
	}

	bt := NewBatch(3)
	assert.Equal(t, 3, r.DequeueInto(bt))
	assert.Equal(t, 2, r.Len())
	require.NoError(t, bt.Release(p))

	assert.Equal(t, 2, r.DequeueInto(bt))
	assert.Equal(t, 0, r.DequeueInto(bt), "ring is empty")
	require.NoError(t, bt.Release(p))
	assert.Equal(t, int64(0), p.Stats().InUse)
}

// TestBufferRing_SPSCOrder streams buffers from one producer to one consumer
// across many wrap-arounds and checks order is preserved.
func TestBufferRing_SPSCOrder(t *testing.T) {
	const rounds = 5000
	p := newPool(t, 5, 0)
	r := newRing(t, 4)
	bufs := drain(t, p, api.ClassInboundData)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			for !r.Enqueue(bufs[i%len(bufs)]) {
				time.Sleep(time.Microsecond)
			}
		}
	}()

	for i := 0; i < rounds; {
		b, ok := r.Dequeue()
		if !ok {
			time.Sleep(time.Microsecond)
			continue
		}
		require.Same(t, bufs[i%len(bufs)], b, "item %d", i)
		i++
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
