package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopFetchesImmediatelyAndReplacesSnapshot(t *testing.T) {
	var mu sync.Mutex
	values := []int{1, 2, 3}
	fetches := 0

	fetch := func(ctx context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		v := values[fetches%len(values)]
		fetches++
		return v, nil
	}

	updates := make(chan int, 16)
	loop := NewLoop(10*time.Millisecond, fetch, func(v int) { updates <- v }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	// The first update arrives without waiting for a tick.
	select {
	case v := <-updates:
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("no immediate fetch")
	}

	// Each later tick replaces the snapshot wholesale.
	select {
	case v := <-updates:
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("no second fetch")
	}

	snapshot, ok := loop.Snapshot()
	require.True(t, ok)
	assert.GreaterOrEqual(t, snapshot, 2)
}

func TestLoopKeepsStaleSnapshotOnFetchFailure(t *testing.T) {
	var mu sync.Mutex
	fetches := 0

	fetch := func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		fetches++
		if fetches == 1 {
			return "good", nil
		}
		return "", errors.New("backend down")
	}

	loop := NewLoop(5*time.Millisecond, fetch, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	require.Eventually(t, func() bool {
		_, ok := loop.Snapshot()
		return ok
	}, time.Second, time.Millisecond)

	// Let several failing ticks pass.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fetches >= 4
	}, time.Second, time.Millisecond)

	snapshot, ok := loop.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "good", snapshot, "failed fetches must not clobber the last good snapshot")
}

func TestLoopDiscardsResultAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetchStarted := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		close(fetchStarted)
		<-release
		return 42, nil
	}

	var updated bool
	loop := NewLoop(time.Hour, fetch, func(int) { updated = true }, nil)

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	<-fetchStarted
	cancel()
	close(release)
	<-done

	_, ok := loop.Snapshot()
	assert.False(t, ok, "in-flight result must be discarded after cancellation")
	assert.False(t, updated)
}
