package navigation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/viewfinder/viewfinder/internal/events"
	"github.com/viewfinder/viewfinder/internal/logger"
	"github.com/viewfinder/viewfinder/internal/notify"
	"github.com/viewfinder/viewfinder/internal/settings"
	"github.com/viewfinder/viewfinder/internal/watch"
	vferrors "github.com/viewfinder/viewfinder/pkg/errors"
)

// Settings keys the coordinator reads and persists.
const (
	KeyCurrentPath  = "navigation.current_path"
	KeyHistory      = "navigation.history"
	KeyFallbackPath = "navigation.fallback_path"
	KeySyncEnabled  = "navigation.sync_enabled"
)

const (
	topicNavigation = "navigation"
	topicPathChange = "path_change"
	topicError      = "navigation_error"
)

// Component consumes navigation events. OnNavigationChanged may be called
// from any goroutine. SupportedEventKinds filters delivery; an empty slice
// subscribes to every kind. The kinds are sampled once at registration.
type Component interface {
	OnNavigationChanged(event Event) error
	SupportedEventKinds() []EventKind
}

// ComponentFunc adapts a plain function to Component, receiving every kind.
type ComponentFunc func(Event) error

func (f ComponentFunc) OnNavigationChanged(event Event) error { return f(event) }
func (f ComponentFunc) SupportedEventKinds() []EventKind      { return nil }

// Manager is an external navigation surface (a file dialog, an address bar)
// mirrored one level up: the coordinator pushes its path and can read the
// manager's state back, but the manager never drives the coordinator.
type Manager interface {
	NavigateToPath(path string) error
	CurrentState() State
}

// Policy bundles the coordinator's tunables.
type Policy struct {
	// SyncTimeout bounds the component fan-out wait per navigation.
	SyncTimeout time.Duration
	// PathAccessTimeout bounds a single filesystem check.
	PathAccessTimeout time.Duration
	// MaxHistory caps the traversal trail.
	MaxHistory int
	// SuccessThreshold is the fraction of components that must acknowledge a
	// navigation for it to count as successful.
	SuccessThreshold float64
	// FallbackPath is the last resort before the filesystem root when a
	// target and its parents are all unreachable. The navigation.fallback_path
	// settings key overrides it.
	FallbackPath string
}

// DefaultPolicy returns the standard coordinator tunables. The fallback path
// defaults to the user's home directory.
func DefaultPolicy() Policy {
	home, err := os.UserHomeDir()
	if err != nil {
		home = string(filepath.Separator)
	}
	return Policy{
		SyncTimeout:       5 * time.Second,
		PathAccessTimeout: DefaultPathAccessTimeout,
		MaxHistory:        50,
		SuccessThreshold:  0.5,
		FallbackPath:      home,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.SyncTimeout <= 0 {
		p.SyncTimeout = def.SyncTimeout
	}
	if p.PathAccessTimeout <= 0 {
		p.PathAccessTimeout = def.PathAccessTimeout
	}
	if p.MaxHistory <= 0 {
		p.MaxHistory = def.MaxHistory
	}
	if p.SuccessThreshold <= 0 || p.SuccessThreshold > 1 {
		p.SuccessThreshold = def.SuccessThreshold
	}
	if p.FallbackPath == "" {
		p.FallbackPath = def.FallbackPath
	}
	return p
}

type registeredComponent struct {
	component Component
	kinds     map[EventKind]struct{} // nil subscribes to every kind
}

func newRegisteredComponent(comp Component) registeredComponent {
	kinds := comp.SupportedEventKinds()
	if len(kinds) == 0 {
		return registeredComponent{component: comp}
	}
	set := make(map[EventKind]struct{}, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}
	return registeredComponent{component: comp, kinds: set}
}

func (rc registeredComponent) supports(kind EventKind) bool {
	if rc.kinds == nil {
		return true
	}
	_, ok := rc.kinds[kind]
	return ok
}

// Coordinator owns the application's navigation state. It validates targets,
// recovers unreachable ones through the fallback chain, keeps the watch
// engine pointed at the current directory, fans transitions out to registered
// components under a soft barrier, and persists the result.
//
// Navigations are serialized; event handlers run on the navigating goroutine
// and must not call back into navigation operations.
type Coordinator struct {
	policy    Policy
	log       *logger.Logger
	store     *settings.Store
	notifier  notify.Notifier
	validator *Validator
	watcher   *watch.Engine
	pub       *events.Publisher

	opMu sync.Mutex // serializes navigations end to end

	mu              sync.Mutex // guards registries and state below
	current         string
	previous        string
	trail           []string // chronological, unique
	cursor          int
	components      map[string]registeredComponent
	nextComponentID int
	managers        map[string]Manager
	fallingBack     bool
	closed          bool

	settingsSub events.Subscription
	watchSub    events.Subscription
}

// NewCoordinator wires a navigation coordinator. The watcher may be nil for
// surfaces that do not track filesystem changes; the notifier may be nil when
// no user-facing surface exists.
func NewCoordinator(policy Policy, store *settings.Store, watcher *watch.Engine, notifier notify.Notifier, log *logger.Logger) *Coordinator {
	policy = policy.normalized()
	c := &Coordinator{
		policy:     policy,
		log:        log.WithComponent("navigation"),
		store:      store,
		notifier:   notifier,
		validator:  NewValidator(policy.PathAccessTimeout, log),
		watcher:    watcher,
		pub:        events.NewPublisher(log),
		components: make(map[string]registeredComponent),
		managers:   make(map[string]Manager),
	}
	c.settingsSub = store.OnChange(c.onSettingsChange)
	if watcher != nil {
		c.watchSub = watcher.AddListener(c.onFileEvent)
	}
	return c
}

// Start restores the persisted location. An empty store falls back to the
// configured fallback path, then the working directory.
func (c *Coordinator) Start() bool {
	if persisted := c.store.GetStringSlice(KeyHistory); len(persisted) > 0 {
		// Persisted most recent first; the trail runs chronologically.
		trail := make([]string, 0, len(persisted))
		for i := len(persisted) - 1; i >= 0; i-- {
			trail = append(trail, persisted[i])
		}
		if len(trail) > c.policy.MaxHistory {
			trail = trail[len(trail)-c.policy.MaxHistory:]
		}
		c.mu.Lock()
		c.trail = trail
		c.cursor = len(trail) - 1
		c.mu.Unlock()
	}

	target := c.store.GetString(KeyCurrentPath, "")
	if target == "" {
		target = c.store.GetString(KeyFallbackPath, c.policy.FallbackPath)
	}
	if target == "" {
		if wd, err := os.Getwd(); err == nil {
			target = wd
		}
	}
	return c.NavigateTo(target)
}

type navigateOptions struct {
	source string
}

// NavigateOption adjusts a single NavigateTo call.
type NavigateOption func(*navigateOptions)

// WithSource names the component that initiated the navigation. The source
// is excluded from the fan-out so it never handles its own event.
func WithSource(id string) NavigateOption {
	return func(o *navigateOptions) { o.source = id }
}

// NavigateTo validates path and makes it the current directory. Unreachable
// targets emit one failure event and one user notification, then recover
// through the fallback chain; the return value reports where the operation
// ended up. Navigating to the current path is a no-op success.
func (c *Coordinator) NavigateTo(path string, opts ...NavigateOption) bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var o navigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	if c.isClosed() {
		return false
	}

	target := c.absPath(path)
	err := c.validatePath(target)
	if err == nil {
		return c.commitNavigation(target, o.source, "", true)
	}

	c.reportFailure(target, o.source, err)
	landing, ok := c.fallbackFor(target)
	if !ok {
		c.log.Error(err, "navigation failed with no reachable fallback", "path", target)
		return false
	}
	return c.commitNavigation(landing, o.source, target, true)
}

// GoBack moves one step towards the oldest history entry.
func (c *Coordinator) GoBack() bool {
	return c.traverse(-1)
}

// GoForward moves one step towards the newest history entry.
func (c *Coordinator) GoForward() bool {
	return c.traverse(1)
}

// GoUp navigates to the parent of the current directory.
func (c *Coordinator) GoUp() bool {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()

	if current == "" {
		return false
	}
	parent := filepath.Dir(current)
	if parent == current {
		return false
	}
	return c.NavigateTo(parent)
}

// traverse moves the history cursor by delta and navigates to the entry
// there without re-recording it.
func (c *Coordinator) traverse(delta int) bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.isClosed() {
		return false
	}

	c.mu.Lock()
	next := c.cursor + delta
	if next < 0 || next >= len(c.trail) {
		c.mu.Unlock()
		return false
	}
	target := c.trail[next]
	c.cursor = next
	c.mu.Unlock()

	if err := c.validatePath(target); err != nil {
		c.mu.Lock()
		c.cursor -= delta
		c.mu.Unlock()
		c.log.Warn("history entry no longer reachable", "path", target, "error", err.Error())
		return false
	}
	return c.commitNavigation(target, "", "", false)
}

// CurrentPath returns the current directory, or "" before the first
// navigation.
func (c *Coordinator) CurrentPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CurrentState returns a point-in-time snapshot of the navigation state.
func (c *Coordinator) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// History returns the traversal trail, most recent first.
func (c *Coordinator) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.historyLocked()
}

// ComponentIDs lists the registered component ids in a stable order.
func (c *Coordinator) ComponentIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.components))
	for id := range c.components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegisterComponent adds a navigation consumer. When a current path exists
// the component receives it as a synthetic navigate event so late joiners do
// not miss state. An empty id gets one generated; the effective id is
// returned for UnregisterComponent and WithSource.
func (c *Coordinator) RegisterComponent(id string, comp Component) string {
	if comp == nil {
		return ""
	}

	rc := newRegisteredComponent(comp)
	c.mu.Lock()
	if id == "" {
		c.nextComponentID++
		id = fmt.Sprintf("component-%d", c.nextComponentID)
	}
	c.components[id] = rc
	current, previous := c.current, c.previous
	c.mu.Unlock()

	c.log.Debug("component registered", "component", id)
	if current == "" || !rc.supports(EventNavigate) {
		return id
	}

	synthetic := Event{
		Kind:         EventNavigate,
		Path:         current,
		PreviousPath: previous,
		Success:      true,
		Time:         time.Now(),
	}
	if err := comp.OnNavigationChanged(synthetic); err != nil {
		c.log.Warn("component rejected current state",
			"component", id, "path", current, "error", err.Error())
	}
	return id
}

// UnregisterComponent removes a previously registered component.
func (c *Coordinator) UnregisterComponent(id string) {
	c.mu.Lock()
	delete(c.components, id)
	c.mu.Unlock()
}

// RegisterManager adds an external navigation surface and pushes the current
// path to it when synchronization is enabled.
func (c *Coordinator) RegisterManager(name string, m Manager) {
	if name == "" || m == nil {
		return
	}
	c.mu.Lock()
	c.managers[name] = m
	current := c.current
	c.mu.Unlock()

	c.log.Debug("manager registered", "manager", name)
	if current == "" || !c.syncEnabled() {
		return
	}
	if err := m.NavigateToPath(current); err != nil {
		c.log.Warn("manager rejected current path",
			"manager", name, "path", current, "error", err.Error())
	}
}

// UnregisterManager removes an external navigation surface.
func (c *Coordinator) UnregisterManager(name string) {
	c.mu.Lock()
	delete(c.managers, name)
	c.mu.Unlock()
}

// ManagerState reads a registered manager's own view of the world.
func (c *Coordinator) ManagerState(name string) (State, bool) {
	c.mu.Lock()
	m, ok := c.managers[name]
	c.mu.Unlock()
	if !ok {
		return State{}, false
	}
	return m.CurrentState(), true
}

// OnNavigation subscribes to every navigation event, including failures,
// refreshes, and history updates.
func (c *Coordinator) OnNavigation(fn func(Event)) events.Subscription {
	return c.subscribe(topicNavigation, fn)
}

// OnPathChange subscribes to successful current-path changes only.
func (c *Coordinator) OnPathChange(fn func(Event)) events.Subscription {
	return c.subscribe(topicPathChange, fn)
}

// OnError subscribes to failed navigations.
func (c *Coordinator) OnError(fn func(Event)) events.Subscription {
	return c.subscribe(topicError, fn)
}

// Shutdown detaches the coordinator from its collaborators, stops the watch
// engine, and clears the registries. Safe to call more than once.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if c.settingsSub != nil {
		c.settingsSub.Unsubscribe()
	}
	if c.watchSub != nil {
		c.watchSub.Unsubscribe()
	}
	if c.watcher != nil {
		c.watcher.Stop()
	}

	c.mu.Lock()
	c.components = make(map[string]registeredComponent)
	c.managers = make(map[string]Manager)
	c.mu.Unlock()
}

// commitNavigation applies a validated target: state, watcher, fan-out,
// history, persistence, events. Callers must hold opMu.
func (c *Coordinator) commitNavigation(resolved, source, fallbackFrom string, record bool) bool {
	started := time.Now()

	c.mu.Lock()
	previous := c.current
	if resolved == previous {
		c.mu.Unlock()
		c.log.Debug("already at path", "path", resolved)
		return true
	}
	c.previous = previous
	c.current = resolved
	c.mu.Unlock()

	// Point the watcher at the new directory before announcing it so file
	// events never refer to a place components have not heard of yet.
	c.restartWatcher(resolved)

	event := Event{
		Kind:         EventNavigate,
		Path:         resolved,
		PreviousPath: previous,
		Source:       source,
		FallbackFrom: fallbackFrom,
		Success:      true,
		Time:         time.Now(),
	}

	synced := c.syncComponents(event)
	c.syncManagers(resolved)

	c.mu.Lock()
	if record {
		c.recordHistoryLocked(resolved)
	}
	history := c.historyLocked()
	c.mu.Unlock()

	c.persist(resolved, history)

	c.pub.Publish(topicNavigation, event)
	c.pub.Publish(topicPathChange, event)

	historyEvent := Event{Kind: EventHistory, Path: resolved, Success: true, Time: time.Now()}
	c.deliverBestEffort(historyEvent)
	c.pub.Publish(topicNavigation, historyEvent)

	if !synced {
		c.log.Warn("navigation below component threshold", "path", resolved)
		return false
	}

	c.log.Info("navigated",
		"path", resolved,
		"previous", previous,
		"duration", time.Since(started).String())
	return true
}

// reportFailure emits the failure event and the single user notification for
// an unreachable target.
func (c *Coordinator) reportFailure(target, source string, cause error) {
	c.mu.Lock()
	previous := c.current
	c.mu.Unlock()

	c.log.Warn("navigation target rejected", "path", target, "error", cause.Error())
	event := Event{
		Kind:         EventNavigate,
		Path:         target,
		PreviousPath: previous,
		Source:       source,
		Success:      false,
		Time:         time.Now(),
	}
	c.pub.Publish(topicError, event)
	c.pub.Publish(topicNavigation, event)
	notify.NavigationError(c.notifier, target, cause.Error())
}

// fallbackFor walks the recovery chain for an unreachable target: existing
// parents first, then the configured fallback path, then the filesystem root
// as the terminal anchor. The walk is bounded by the target's depth plus two.
func (c *Coordinator) fallbackFor(target string) (string, bool) {
	c.mu.Lock()
	if c.fallingBack {
		c.mu.Unlock()
		return "", false
	}
	c.fallingBack = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.fallingBack = false
		c.mu.Unlock()
	}()

	for parent := filepath.Dir(target); parent != filepath.Dir(parent); parent = filepath.Dir(parent) {
		if c.validatePath(parent) == nil {
			c.log.Info("falling back to parent", "path", parent, "failed", target)
			return parent, true
		}
	}

	if fallback := c.store.GetString(KeyFallbackPath, c.policy.FallbackPath); fallback != "" {
		abs := c.absPath(fallback)
		if c.validatePath(abs) == nil {
			c.log.Info("falling back to configured path", "path", abs, "failed", target)
			return abs, true
		}
	}

	root := target
	for filepath.Dir(root) != root {
		root = filepath.Dir(root)
	}
	if c.validatePath(root) == nil {
		c.log.Info("falling back to root", "path", root, "failed", target)
		return root, true
	}
	return "", false
}

type syncResult struct {
	id  string
	err error
}

// syncComponents fans the event out to every supporting component except the
// source, one goroutine per component, joined with a single SyncTimeout wait.
// Non-responders are abandoned, not cancelled, and count against the ratio.
func (c *Coordinator) syncComponents(event Event) bool {
	c.mu.Lock()
	targets := make(map[string]Component)
	for id, rc := range c.components {
		if id == event.Source {
			continue
		}
		if rc.supports(event.Kind) {
			targets[id] = rc.component
		}
	}
	c.mu.Unlock()

	total := len(targets)
	if total == 0 {
		return true
	}

	results := make(chan syncResult, total)
	for id, comp := range targets {
		go func(id string, comp Component) {
			results <- syncResult{id: id, err: comp.OnNavigationChanged(event)}
		}(id, comp)
	}

	timer := time.NewTimer(c.policy.SyncTimeout)
	defer timer.Stop()

	succeeded, received := 0, 0
collect:
	for received < total {
		select {
		case res := <-results:
			received++
			if res.err != nil {
				c.log.Warn("component rejected navigation",
					"component", res.id, "path", event.Path, "error", res.err.Error())
				continue
			}
			succeeded++
		case <-timer.C:
			c.log.Warn("timed out waiting for components",
				"path", event.Path, "pending", total-received)
			break collect
		}
	}

	return float64(succeeded)/float64(total) >= c.policy.SuccessThreshold
}

// syncManagers mirrors the new path to external surfaces. Manager failures
// are logged, never counted against the navigation.
func (c *Coordinator) syncManagers(path string) {
	if !c.syncEnabled() {
		return
	}
	c.mu.Lock()
	managers := make(map[string]Manager, len(c.managers))
	for name, m := range c.managers {
		managers[name] = m
	}
	c.mu.Unlock()

	for name, m := range managers {
		if err := m.NavigateToPath(path); err != nil {
			c.log.Warn("manager sync failed", "manager", name, "path", path,
				"error", vferrors.NewSyncError(name, "navigate", err).Error())
		}
	}
}

// deliverBestEffort hands an auxiliary event to every supporting component
// sequentially. Errors are logged and do not affect any success ratio.
func (c *Coordinator) deliverBestEffort(event Event) {
	c.mu.Lock()
	targets := make(map[string]Component)
	for id, rc := range c.components {
		if rc.supports(event.Kind) {
			targets[id] = rc.component
		}
	}
	c.mu.Unlock()

	for id, comp := range targets {
		if err := comp.OnNavigationChanged(event); err != nil {
			c.log.Warn("component rejected event",
				"component", id, "kind", string(event.Kind), "error", err.Error())
		}
	}
}

// onFileEvent reacts to watch engine deliveries. It runs on the engine's
// goroutine, so anything that restarts the watcher is dispatched instead of
// run inline.
func (c *Coordinator) onFileEvent(ev watch.Event) error {
	c.mu.Lock()
	current := c.current
	closed := c.closed
	c.mu.Unlock()
	if closed || current == "" {
		return nil
	}

	switch {
	case ev.Type == watch.Deleted && ev.Path == current:
		c.validator.Invalidate(current)
		c.log.Warn("current directory deleted", "path", current)
		parent := filepath.Dir(current)
		go c.NavigateTo(parent)

	case ev.Type == watch.Moved && ev.OldPath == current:
		c.validator.Invalidate(current)
		target := ev.Path
		if target == "" {
			target = filepath.Dir(current)
		}
		c.log.Warn("current directory moved", "path", current, "target", target)
		go c.NavigateTo(target)

	default:
		refresh := Event{
			Kind:    EventRefresh,
			Path:    current,
			Success: true,
			Time:    time.Now(),
		}
		c.deliverBestEffort(refresh)
		c.pub.Publish(topicNavigation, refresh)
	}
	return nil
}

// onSettingsChange navigates when navigation.current_path changes externally.
// The coordinator's own persist writes are recognized by path and skipped.
func (c *Coordinator) onSettingsChange(change settings.Change) {
	if change.Key != KeyCurrentPath {
		return
	}
	path, _ := change.New.(string)
	if path == "" {
		return
	}

	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	if c.absPath(path) == current {
		return
	}

	c.log.Debug("path changed in settings", "path", path)
	c.NavigateTo(path)
}

// restartWatcher points the watch engine at dir. Watch failures never fail a
// navigation; an unwatchable directory simply goes unwatched.
func (c *Coordinator) restartWatcher(dir string) {
	if c.watcher == nil {
		return
	}
	if err := c.watcher.Start(dir); err != nil {
		c.log.Warn("could not watch directory", "path", dir, "error", err.Error())
	}
}

// recordHistoryLocked appends path to the trail, dropping any previous
// occurrence and the oldest overflow. Callers must hold mu.
func (c *Coordinator) recordHistoryLocked(path string) {
	for i, p := range c.trail {
		if p == path {
			c.trail = append(c.trail[:i], c.trail[i+1:]...)
			break
		}
	}
	c.trail = append(c.trail, path)
	if len(c.trail) > c.policy.MaxHistory {
		c.trail = c.trail[len(c.trail)-c.policy.MaxHistory:]
	}
	c.cursor = len(c.trail) - 1
}

// historyLocked returns the trail most recent first. Callers must hold mu.
func (c *Coordinator) historyLocked() []string {
	out := make([]string, 0, len(c.trail))
	for i := len(c.trail) - 1; i >= 0; i-- {
		out = append(out, c.trail[i])
	}
	return out
}

func (c *Coordinator) stateLocked() State {
	return State{
		CurrentPath:  c.current,
		PreviousPath: c.previous,
		Segments:     GenerateSegments(c.current, MaxVisibleSegments),
		CanGoBack:    c.cursor > 0,
		CanGoForward: c.cursor < len(c.trail)-1,
		CanGoUp:      c.current != "" && filepath.Dir(c.current) != c.current,
		Time:         time.Now(),
	}
}

// persist records the location in the settings store. Store failures are
// logged; the in-memory state change stands.
func (c *Coordinator) persist(path string, history []string) {
	c.store.Set(KeyCurrentPath, path)
	c.store.Set(KeyHistory, history)
	if err := c.store.Save(); err != nil {
		c.log.Error(err, "failed to persist navigation state", "path", path)
	}
}

func (c *Coordinator) validatePath(path string) error {
	_, err := c.validator.Validate(path)
	return err
}

func (c *Coordinator) absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func (c *Coordinator) syncEnabled() bool {
	return c.store.GetBool(KeySyncEnabled, true)
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) subscribe(topic string, fn func(Event)) events.Subscription {
	if fn == nil {
		return c.pub.Subscribe(topic, nil)
	}
	return c.pub.Subscribe(topic, func(payload any) error {
		if event, ok := payload.(Event); ok {
			fn(event)
		}
		return nil
	})
}
