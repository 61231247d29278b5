package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitSpacing(t *testing.T) {
	const minDelay = 50 * time.Millisecond
	const calls = 4

	limiter := New(minDelay)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < calls; i++ {
		err := limiter.Wait(ctx)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, (calls-1)*minDelay)
}

func TestWaitConcurrent(t *testing.T) {
	const minDelay = 30 * time.Millisecond
	const calls = 5

	limiter := New(minDelay)
	ctx := context.Background()

	var mu sync.Mutex
	var released []time.Time

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Wait(ctx)
			require.NoError(t, err)
			mu.Lock()
			released = append(released, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, released, calls)
	// release order is not guaranteed, only the spacing between the
	// earliest and latest release
	earliest, latest := released[0], released[0]
	for _, ts := range released[1:] {
		if ts.Before(earliest) {
			earliest = ts
		}
		if ts.After(latest) {
			latest = ts
		}
	}
	require.GreaterOrEqual(t, latest.Sub(earliest), (calls-1)*minDelay-5*time.Millisecond)
}

func TestWaitCancel(t *testing.T) {
	limiter := New(10 * time.Second)
	ctx := context.Background()

	// first call claims a slot immediately
	require.NoError(t, limiter.Wait(ctx))

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(cancelCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}
