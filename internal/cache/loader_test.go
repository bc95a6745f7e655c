package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewfinder/viewfinder/internal/logger"
)

func newTestLoader(t *testing.T) *LazyLoader {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return NewLazyLoader(log)
}

func TestLoadInvokesLoaderOnce(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t)
	var calls atomic.Int32

	value, err := l.Load(context.Background(), "theme:dark", func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "resolved", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", value)

	// Second call returns the stored value without invoking the loader.
	value, err = l.Load(context.Background(), "theme:dark", func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "other", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", value)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, l.IsLoaded("theme:dark"))
}

func TestLoadDeduplicatesConcurrentCallers(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t)
	var calls atomic.Int32
	release := make(chan struct{})

	loader := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const waiters = 10
	results := make(chan any, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := l.Load(context.Background(), "shared", loader)
			require.NoError(t, err)
			results <- value
		}()
	}

	// Let every goroutine attach before the load completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), calls.Load(), "loader runs exactly once")
	for value := range results {
		assert.Equal(t, 42, value)
	}
}

func TestLoadErrorIsNotCached(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t)
	boom := errors.New("backend unavailable")

	_, err := l.Load(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, l.IsLoaded("k"))

	// A later attempt retries the loader.
	value, err := l.Load(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "second try", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second try", value)
}

func TestOnLoadedCallbacksRunOnce(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t)
	var got []any
	var mu sync.Mutex

	release := make(chan struct{})
	go func() {
		_, _ = l.Load(context.Background(), "k", func(ctx context.Context) (any, error) {
			<-release
			return "v", nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	l.OnLoaded("k", func(v any) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	// Already loaded: the callback fires immediately.
	l.OnLoaded("k", func(v any) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{"v", "v"}, got)
}

func TestUnloadCancelsInFlight(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t)
	started := make(chan struct{})

	errs := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), "k", func(ctx context.Context) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
		errs <- err
	}()

	<-started
	l.Unload("k")

	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("load was not cancelled")
	}
	assert.False(t, l.IsLoaded("k"))

	// The key is free for a fresh load afterwards.
	value, err := l.Load(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", value)
}

func TestUnloadClearsLoadedMarker(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t)
	_, err := l.Load(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "v", nil
	})
	require.NoError(t, err)
	require.True(t, l.IsLoaded("k"))

	l.Unload("k")
	assert.False(t, l.IsLoaded("k"))
}

func TestLoadCallerContextBoundsOnlyTheWait(t *testing.T) {
	t.Parallel()

	l := newTestLoader(t)
	release := make(chan struct{})

	go func() {
		_, _ = l.Load(context.Background(), "slow", func(ctx context.Context) (any, error) {
			<-release
			return "done", nil
		})
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := l.Load(ctx, "slow", func(ctx context.Context) (any, error) {
		t.Error("joined caller must not start a second load")
		return nil, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The original load still completes and the value lands.
	close(release)
	require.Eventually(t, func() bool { return l.IsLoaded("slow") }, time.Second, 10*time.Millisecond)
}
