// Package watch wraps fsnotify into the coordination core's watch engine:
// it validates and owns a single watched directory, classifies raw
// notifications, filters them to an extension allow-list, debounces bursts
// per path, and fans surviving events out to registered listeners.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/viewfinder/viewfinder/internal/events"
	"github.com/viewfinder/viewfinder/internal/logger"
	vferrors "github.com/viewfinder/viewfinder/pkg/errors"
)

// ChangeType classifies a filesystem notification.
type ChangeType string

const (
	Created  ChangeType = "created"
	Modified ChangeType = "modified"
	Deleted  ChangeType = "deleted"
	Moved    ChangeType = "moved"
)

// Event is one debounced, filtered filesystem change. For Moved events Path
// holds the destination when the engine could pair the rename with the
// following create; OldPath always holds the source.
type Event struct {
	Type    ChangeType
	Path    string
	OldPath string
	Time    time.Time
}

// Subject returns the path the event is about; Moved events are keyed by
// their source.
func (ev Event) Subject() string {
	if ev.Type == Moved && ev.OldPath != "" {
		return ev.OldPath
	}
	return ev.Path
}

// Listener receives surviving events. A listener error is logged, counted,
// and never blocks delivery to other listeners.
type Listener func(Event) error

// Stats is a point-in-time snapshot of the engine's cumulative counters.
type Stats struct {
	WatchedPath       string
	Since             time.Time
	RawEvents         uint64
	FilteredOut       uint64
	Suppressed        uint64
	Delivered         uint64
	ListenerSuccesses uint64
	ListenerFailures  uint64
}

// DefaultDebounce is the per-path suppression window.
const DefaultDebounce = 500 * time.Millisecond

// DefaultExtensions is the image allow-list applied to file events.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}

const topicChange = "fs_change"

// Options configures an Engine.
type Options struct {
	Debounce   time.Duration
	Extensions []string
	Logger     *logger.Logger
}

// Engine owns at most one active directory watch. Idle until Start succeeds;
// Start on a new path stops the previous watch first; Stop is idempotent.
type Engine struct {
	debounce time.Duration
	exts     map[string]struct{}
	log      *logger.Logger
	pub      *events.Publisher

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	root    string
	done    chan struct{}
	loop    sync.WaitGroup
	since   time.Time

	rawEvents   atomic.Uint64
	filteredOut atomic.Uint64
	suppressed  atomic.Uint64
	delivered   atomic.Uint64
	listenerOK  atomic.Uint64
	listenerErr atomic.Uint64
}

// New creates an idle engine. Zero options fall back to the default debounce
// window and the image extension allow-list.
func New(opts Options) *Engine {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	log := opts.Logger.WithComponent("watch-engine")
	return &Engine{
		debounce: debounce,
		exts:     exts,
		log:      log,
		pub:      events.NewPublisher(opts.Logger),
	}
}

// Start validates path and begins watching it. The engine reports validation
// failures as ValidationError with reasons path_not_found, not_a_directory,
// or permission_denied and stays idle. A running watch is stopped first.
func (e *Engine) Start(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return vferrors.WrapValidationError(path, vferrors.ReasonPathNotFound, err)
	}

	if err := validateWatchable(abs); err != nil {
		return err
	}

	e.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return vferrors.NewWatchError(abs, err)
	}
	if err := watcher.Add(abs); err != nil {
		watcher.Close()
		return vferrors.NewWatchError(abs, err)
	}

	done := make(chan struct{})

	e.mu.Lock()
	e.watcher = watcher
	e.root = abs
	e.done = done
	e.since = time.Now()
	e.mu.Unlock()

	e.loop.Add(1)
	go e.run(watcher, abs, done)

	e.log.Info("watching directory", "path", abs)
	return nil
}

// Stop ends the active watch. Calling it while idle is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	watcher := e.watcher
	done := e.done
	root := e.root
	e.watcher = nil
	e.root = ""
	e.done = nil
	e.since = time.Time{}
	e.mu.Unlock()

	if watcher == nil {
		return
	}

	close(done)
	watcher.Close()
	e.loop.Wait()
	e.log.Info("stopped watching", "path", root)
}

// Watching reports whether a watch is active.
func (e *Engine) Watching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watcher != nil
}

// Path returns the watched directory, or "" when idle.
func (e *Engine) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// AddListener registers a listener for surviving events. Listeners persist
// across watch restarts until unsubscribed.
func (e *Engine) AddListener(fn Listener) events.Subscription {
	return e.pub.Subscribe(topicChange, func(payload any) error {
		return fn(payload.(Event))
	})
}

// Stats returns a snapshot of the cumulative counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	root, since := e.root, e.since
	e.mu.Unlock()

	return Stats{
		WatchedPath:       root,
		Since:             since,
		RawEvents:         e.rawEvents.Load(),
		FilteredOut:       e.filteredOut.Load(),
		Suppressed:        e.suppressed.Load(),
		Delivered:         e.delivered.Load(),
		ListenerSuccesses: e.listenerOK.Load(),
		ListenerFailures:  e.listenerErr.Load(),
	}
}

// validateWatchable checks the start preconditions: exists, is a directory,
// and is readable.
func validateWatchable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return vferrors.NewValidationError(path, vferrors.ReasonPathNotFound, "path does not exist")
		}
		if os.IsPermission(err) {
			return vferrors.NewValidationError(path, vferrors.ReasonPermissionDenied, "path is not accessible")
		}
		return vferrors.NewWatchError(path, err)
	}
	if !info.IsDir() {
		return vferrors.NewValidationError(path, vferrors.ReasonNotADirectory, "path is not a directory")
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return vferrors.NewValidationError(path, vferrors.ReasonPermissionDenied, "directory is not readable")
		}
		return vferrors.NewWatchError(path, err)
	}
	f.Close()
	return nil
}

// pendingRename tracks an unpaired rename waiting for its destination create.
type pendingRename struct {
	source string
	at     time.Time
}

// run is the single consumer of raw fsnotify notifications. All debounce
// state is local to this goroutine.
func (e *Engine) run(watcher *fsnotify.Watcher, root string, done chan struct{}) {
	defer e.loop.Done()

	lastArrival := make(map[string]time.Time)
	pending := make(map[string]Event)
	var rename *pendingRename

	pairWindow := 100 * time.Millisecond
	if half := e.debounce / 2; half < pairWindow {
		pairWindow = half
	}

	tick := e.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case raw, ok := <-watcher.Events:
			if !ok {
				return
			}
			e.rawEvents.Add(1)
			e.ingest(raw, root, time.Now(), lastArrival, pending, &rename)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.log.Warn("notification source error", "error", err.Error())

		case now := <-ticker.C:
			if rename != nil && now.Sub(rename.at) > pairWindow {
				ev := Event{Type: Moved, OldPath: rename.source, Time: rename.at}
				e.enqueue(ev, rename.at, lastArrival, pending)
				rename = nil
			}
			for key, ev := range pending {
				if now.Sub(lastArrival[key]) >= e.debounce {
					delete(pending, key)
					delete(lastArrival, key)
					e.deliver(ev)
				}
			}
		}
	}
}

// ingest classifies one raw notification and folds it into the debounce
// state. Rename+Create pairs inside one parent directory collapse into a
// single Moved event carrying both endpoints.
func (e *Engine) ingest(raw fsnotify.Event, root string, now time.Time, lastArrival map[string]time.Time, pending map[string]Event, rename **pendingRename) {
	kind, ok := classify(raw.Op)
	if !ok {
		return
	}

	if kind == Moved {
		if raw.Name == root {
			// The watched root itself moved; no destination will arrive here.
			e.enqueue(Event{Type: Moved, OldPath: root, Time: now}, now, lastArrival, pending)
			return
		}
		if *rename != nil {
			prev := *rename
			e.enqueue(Event{Type: Moved, OldPath: prev.source, Time: prev.at}, prev.at, lastArrival, pending)
		}
		*rename = &pendingRename{source: raw.Name, at: now}
		return
	}

	if kind == Created && *rename != nil {
		prev := *rename
		if filepath.Dir(prev.source) == filepath.Dir(raw.Name) {
			*rename = nil
			ev := Event{Type: Moved, Path: raw.Name, OldPath: prev.source, Time: now}
			if !e.allowed(prev.source, root) && !e.allowed(raw.Name, root) {
				e.filteredOut.Add(1)
				return
			}
			e.enqueue(ev, now, lastArrival, pending)
			return
		}
	}

	if !e.allowed(raw.Name, root) {
		e.filteredOut.Add(1)
		return
	}

	e.enqueue(Event{Type: kind, Path: raw.Name, Time: now}, now, lastArrival, pending)
}

// enqueue records an event for trailing-edge delivery. Within one window the
// first classification for a path wins; repeats only extend the window.
func (e *Engine) enqueue(ev Event, at time.Time, lastArrival map[string]time.Time, pending map[string]Event) {
	key := ev.Subject()
	if _, exists := pending[key]; exists {
		e.suppressed.Add(1)
	} else {
		pending[key] = ev
	}
	lastArrival[key] = at
}

func (e *Engine) deliver(ev Event) {
	e.delivered.Add(1)
	succeeded, failed := e.pub.Publish(topicChange, ev)
	e.listenerOK.Add(uint64(succeeded))
	e.listenerErr.Add(uint64(failed))
	e.log.Debug("change delivered", "type", string(ev.Type), "path", ev.Subject())
}

// allowed applies the extension allow-list. The watched root and
// extensionless paths (directories, by the time an event arrives the path
// may no longer exist to stat) always pass.
func (e *Engine) allowed(path, root string) bool {
	if path == root {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return true
	}
	_, ok := e.exts[ext]
	return ok
}

func classify(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Remove):
		return Deleted, true
	case op.Has(fsnotify.Rename):
		return Moved, true
	case op.Has(fsnotify.Write):
		return Modified, true
	default:
		// Chmod and unknown ops are noise for a photo browser.
		return "", false
	}
}
