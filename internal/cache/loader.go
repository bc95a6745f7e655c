package cache

import (
	"context"
	"sync"

	"github.com/viewfinder/viewfinder/internal/logger"
)

// LoaderFunc produces the value for a resource key. It runs under a context
// that is cancelled only by Unload, not by the callers waiting on it.
type LoaderFunc func(ctx context.Context) (any, error)

// inflightLoad is the join point for concurrent Load calls on one key.
type inflightLoad struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  any
	err    error
}

// LazyLoader deduplicates concurrent loads: N simultaneous Load calls for the
// same key invoke the loader exactly once and all observe its result.
type LazyLoader struct {
	mu        sync.Mutex
	loaded    map[string]any
	inflight  map[string]*inflightLoad
	callbacks map[string][]func(any)
	log       *logger.Logger
}

// NewLazyLoader creates an empty loader.
func NewLazyLoader(log *logger.Logger) *LazyLoader {
	return &LazyLoader{
		loaded:    make(map[string]any),
		inflight:  make(map[string]*inflightLoad),
		callbacks: make(map[string][]func(any)),
		log:       log.WithComponent("lazy-loader"),
	}
}

// Load returns the value for key, invoking fn at most once across concurrent
// callers. An already-loaded key returns immediately. A caller whose ctx
// expires stops waiting but does not abort the load; late joiners can still
// attach to it.
func (l *LazyLoader) Load(ctx context.Context, key string, fn LoaderFunc) (any, error) {
	l.mu.Lock()
	if value, ok := l.loaded[key]; ok {
		l.mu.Unlock()
		return value, nil
	}
	if fl, ok := l.inflight[key]; ok {
		l.mu.Unlock()
		return l.await(ctx, fl)
	}

	loadCtx, cancel := context.WithCancel(context.Background())
	fl := &inflightLoad{done: make(chan struct{}), cancel: cancel}
	l.inflight[key] = fl
	l.mu.Unlock()

	go l.run(loadCtx, key, fn, fl)

	return l.await(ctx, fl)
}

func (l *LazyLoader) run(ctx context.Context, key string, fn LoaderFunc, fl *inflightLoad) {
	value, err := fn(ctx)
	if err == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
	}

	var pending []func(any)

	l.mu.Lock()
	if err == nil {
		l.loaded[key] = value
		pending = l.callbacks[key]
		delete(l.callbacks, key)
	}
	if l.inflight[key] == fl {
		delete(l.inflight, key)
	}
	l.mu.Unlock()

	fl.value = value
	fl.err = err
	close(fl.done)

	if err != nil {
		l.log.Debug("resource load failed", "key", key, "error", err.Error())
		return
	}
	for _, cb := range pending {
		cb(value)
	}
}

func (l *LazyLoader) await(ctx context.Context, fl *inflightLoad) (any, error) {
	select {
	case <-fl.done:
		return fl.value, fl.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsLoaded reports whether key has completed a successful load and has not
// been unloaded since.
func (l *LazyLoader) IsLoaded(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.loaded[key]
	return ok
}

// OnLoaded registers a callback to run once key finishes loading. If the key
// is already loaded the callback runs immediately on the calling goroutine.
func (l *LazyLoader) OnLoaded(key string, cb func(any)) {
	l.mu.Lock()
	if value, ok := l.loaded[key]; ok {
		l.mu.Unlock()
		cb(value)
		return
	}
	l.callbacks[key] = append(l.callbacks[key], cb)
	l.mu.Unlock()
}

// Unload cancels any in-flight load for key and clears its loaded marker and
// pending callbacks. A Load issued afterwards starts a fresh operation.
func (l *LazyLoader) Unload(key string) {
	l.mu.Lock()
	fl := l.inflight[key]
	delete(l.inflight, key)
	delete(l.loaded, key)
	delete(l.callbacks, key)
	l.mu.Unlock()

	if fl != nil {
		fl.cancel()
	}
}
