package concurrency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hcibuf/api"
)

func TestFreeList_FIFO(t *testing.T) {
	l := NewFreeList[int]()
	for i := 0; i < 40; i++ {
		l.Give(i)
	}
	require.Equal(t, 40, l.Len())

	for i := 0; i < 40; i++ {
		v, ok := l.Take()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := l.Take()
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
}

func TestFreeList_Reset(t *testing.T) {
	l := NewFreeList[int]()
	l.Give(1)
	l.Give(2)
	l.Reset()

	assert.Equal(t, 0, l.Len())
	_, ok := l.Take()
	assert.False(t, ok)

	l.Give(3)
	v, ok := l.Take()
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestFreeList_TakeOrWait(t *testing.T) {
	t.Run("ReturnsImmediatelyWhenAvailable", func(t *testing.T) {
		l := NewFreeList[int]()
		l.Give(7)

		v, err := l.TakeOrWait(context.Background(), time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("WakesOnGive", func(t *testing.T) {
		l := NewFreeList[int]()
		go func() {
			time.Sleep(10 * time.Millisecond)
			l.Give(42)
		}()

		v, err := l.TakeOrWait(context.Background(), 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("TimesOut", func(t *testing.T) {
		l := NewFreeList[int]()
		start := time.Now()

		_, err := l.TakeOrWait(context.Background(), 20*time.Millisecond)
		assert.ErrorIs(t, err, api.ErrAcquireTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("HonorsCancellation", func(t *testing.T) {
		l := NewFreeList[int]()
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := l.TakeOrWait(ctx, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("EveryWaiterIsServed", func(t *testing.T) {
		l := NewFreeList[int]()
		const waiters = 8

		var wg sync.WaitGroup
		got := make(chan int, waiters)
		for i := 0; i < waiters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := l.TakeOrWait(context.Background(), 5*time.Second)
				if err == nil {
					got <- v
				}
			}()
		}
		time.Sleep(10 * time.Millisecond)
		for i := 0; i < waiters; i++ {
			l.Give(i)
		}
		wg.Wait()
		close(got)

		seen := make(map[int]bool)
		for v := range got {
			assert.False(t, seen[v], "handle %d taken twice", v)
			seen[v] = true
		}
		assert.Len(t, seen, waiters)
	})
}

// TestFreeList_ConcurrentRecycle checks that handles are neither lost nor
// duplicated when many goroutines take and give concurrently.
func TestFreeList_ConcurrentRecycle(t *testing.T) {
	const handles = 16
	l := NewFreeList[int]()
	for i := 0; i < handles; i++ {
		l.Give(i)
	}

	var owned [handles]sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				v, ok := l.Take()
				if !ok {
					continue
				}
				if !owned[v].TryLock() {
					t.Errorf("handle %d handed out twice", v)
					return
				}
				owned[v].Unlock()
				l.Give(v)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, handles, l.Len())
	seen := make(map[int]bool)
	for i := 0; i < handles; i++ {
		v, ok := l.Take()
		require.True(t, ok)
		seen[v] = true
	}
	assert.Len(t, seen, handles)
}
