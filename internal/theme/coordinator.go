package theme

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/viewfinder/viewfinder/internal/cache"
	"github.com/viewfinder/viewfinder/internal/events"
	"github.com/viewfinder/viewfinder/internal/logger"
	"github.com/viewfinder/viewfinder/internal/notify"
	"github.com/viewfinder/viewfinder/internal/settings"
	vferrors "github.com/viewfinder/viewfinder/pkg/errors"
)

// Settings keys the coordinator reads and persists.
const (
	KeyTheme        = "ui.theme"
	KeyThemeHistory = "ui.theme_history"
)

const (
	topicChanged = "theme_changed"
	topicApplied = "theme_applied"
	topicError   = "theme_error"
)

// Component consumes theme changes. ApplyTheme may be called from any
// goroutine; implementations must treat the configuration as read-only.
type Component interface {
	ApplyTheme(cfg *Configuration) error
}

// ComponentFunc adapts a plain function to the Component interface.
type ComponentFunc func(cfg *Configuration) error

func (f ComponentFunc) ApplyTheme(cfg *Configuration) error { return f(cfg) }

// Policy bundles the coordinator's tunables.
type Policy struct {
	// ApplyTimeout bounds the wait for component acknowledgements per apply.
	ApplyTimeout time.Duration
	// MaxHistory caps the recently-applied list.
	MaxHistory int
	// SuccessThreshold is the fraction of components that must acknowledge a
	// theme for the apply to count as successful.
	SuccessThreshold float64
	// FallbackTheme is applied whenever the requested theme fails.
	FallbackTheme string
}

// DefaultPolicy returns the standard coordinator tunables.
func DefaultPolicy() Policy {
	return Policy{
		ApplyTimeout:     5 * time.Second,
		MaxHistory:       50,
		SuccessThreshold: 0.5,
		FallbackTheme:    DefaultThemeName,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.ApplyTimeout <= 0 {
		p.ApplyTimeout = def.ApplyTimeout
	}
	if p.MaxHistory <= 0 {
		p.MaxHistory = def.MaxHistory
	}
	if p.SuccessThreshold <= 0 || p.SuccessThreshold > 1 {
		p.SuccessThreshold = def.SuccessThreshold
	}
	if p.FallbackTheme == "" {
		p.FallbackTheme = def.FallbackTheme
	}
	return p
}

type registeredBackend struct {
	name    string
	backend Backend
}

// Coordinator owns the application's theme state. It resolves theme
// definitions through backends and built-ins, validates them, fans them out
// to registered components under a soft barrier, and persists the result.
//
// Apply operations are serialized; event handlers run on the applying
// goroutine and must not call back into apply operations.
type Coordinator struct {
	policy   Policy
	log      *logger.Logger
	store    *settings.Store
	notifier notify.Notifier
	loader   *cache.LazyLoader
	pub      *events.Publisher

	opMu sync.Mutex // serializes apply pipelines end to end

	mu               sync.Mutex // guards registries and state below
	current          *Configuration
	history          []string
	backends         []registeredBackend
	components       map[string]Component
	nextComponentID  int
	applyingFallback bool

	settingsSub events.Subscription
}

// NewCoordinator wires a theme coordinator to the settings store. The
// notifier may be nil when no user-facing surface exists.
func NewCoordinator(policy Policy, store *settings.Store, notifier notify.Notifier, log *logger.Logger) *Coordinator {
	c := &Coordinator{
		policy:     policy.normalized(),
		log:        log.WithComponent("theme"),
		store:      store,
		notifier:   notifier,
		loader:     cache.NewLazyLoader(log),
		pub:        events.NewPublisher(log),
		components: make(map[string]Component),
	}
	c.settingsSub = store.OnChange(c.onSettingsChange)
	return c
}

// Start restores the persisted theme, applying the fallback when the store
// names none. Returns the apply result.
func (c *Coordinator) Start() bool {
	history := c.store.GetStringSlice(KeyThemeHistory)
	if len(history) > c.policy.MaxHistory {
		history = history[:c.policy.MaxHistory]
	}
	c.mu.Lock()
	c.history = history
	c.mu.Unlock()

	name := c.store.GetString(KeyTheme, c.policy.FallbackTheme)
	return c.ApplyTheme(name)
}

// ApplyTheme switches every registered backend and component to the named
// theme. On failure the coordinator emits an error event, notifies the user,
// and applies the fallback theme; the return value then reports the fallback
// attempt. Re-applying the active theme is a no-op that reports success.
func (c *Coordinator) ApplyTheme(name string) bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.applyTheme(name, false)
}

// ResetToDefault applies the policy's fallback theme.
func (c *Coordinator) ResetToDefault() bool {
	return c.ApplyTheme(c.policy.FallbackTheme)
}

// ReloadThemes drops every cached theme definition and re-applies the current
// theme from its backing source. Used after theme files change on disk.
func (c *Coordinator) ReloadThemes() bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	for _, info := range c.AvailableThemes() {
		c.loader.Unload(themeKey(info.Name))
	}

	c.mu.Lock()
	name := ""
	if c.current != nil {
		name = c.current.Name
	}
	c.mu.Unlock()

	if name == "" {
		return true
	}
	c.loader.Unload(themeKey(name))
	c.log.Info("reloading themes", "current", name)
	return c.applyTheme(name, true)
}

// CurrentTheme returns a copy of the active theme configuration, or nil
// before the first successful apply.
func (c *Coordinator) CurrentTheme() *Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// CurrentThemeName returns the active theme's name, or "" before the first
// successful apply.
func (c *Coordinator) CurrentThemeName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.Name
}

// ThemeHistory returns recently applied theme names, most recent first.
func (c *Coordinator) ThemeHistory() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}

// AvailableThemes lists themes across every backend plus the built-ins,
// deduplicated by name. Backends registered earlier shadow later sources.
func (c *Coordinator) AvailableThemes() []Info {
	c.mu.Lock()
	backends := append([]registeredBackend(nil), c.backends...)
	c.mu.Unlock()

	seen := make(map[string]struct{})
	infos := make([]Info, 0, len(builtinThemes))
	for _, rb := range backends {
		for _, info := range rb.backend.AvailableThemes() {
			if _, dup := seen[info.Name]; dup {
				continue
			}
			seen[info.Name] = struct{}{}
			infos = append(infos, info)
		}
	}
	for _, name := range BuiltinNames() {
		if _, dup := seen[name]; dup {
			continue
		}
		cfg, _ := Builtin(name)
		seen[name] = struct{}{}
		infos = append(infos, cfg.Info())
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// RegisterBackend adds a theming surface. Registration order decides
// resolution priority. The active theme, if any, is pushed to the new
// backend immediately.
func (c *Coordinator) RegisterBackend(name string, backend Backend) {
	if backend == nil {
		return
	}
	c.mu.Lock()
	c.backends = append(c.backends, registeredBackend{name: name, backend: backend})
	cur := c.current
	c.mu.Unlock()

	c.log.Debug("backend registered", "backend", name)
	if cur == nil {
		return
	}
	if err := backend.Apply(cur.Name); err != nil {
		c.log.Warn("backend rejected current theme",
			"backend", name, "theme", cur.Name, "error", err.Error())
	}
}

// UnregisterBackend removes a previously registered backend by name.
func (c *Coordinator) UnregisterBackend(name string) {
	c.mu.Lock()
	kept := make([]registeredBackend, 0, len(c.backends))
	for _, rb := range c.backends {
		if rb.name != name {
			kept = append(kept, rb)
		}
	}
	c.backends = kept
	c.mu.Unlock()

	c.log.Debug("backend unregistered", "backend", name)
}

// RegisterComponent adds a theme consumer. The active theme, if any, is
// applied to it immediately so late joiners never render unstyled. An empty
// id gets one generated; the effective id is returned for UnregisterComponent.
func (c *Coordinator) RegisterComponent(id string, comp Component) string {
	if comp == nil {
		return ""
	}
	c.mu.Lock()
	if id == "" {
		c.nextComponentID++
		id = fmt.Sprintf("component-%d", c.nextComponentID)
	}
	c.components[id] = comp
	cur := c.current
	c.mu.Unlock()

	c.log.Debug("component registered", "component", id)
	if cur == nil {
		return id
	}
	if err := comp.ApplyTheme(cur); err != nil {
		c.log.Warn("component rejected current theme",
			"component", id, "theme", cur.Name, "error", err.Error())
	}
	return id
}

// UnregisterComponent removes a previously registered component.
func (c *Coordinator) UnregisterComponent(id string) {
	c.mu.Lock()
	delete(c.components, id)
	c.mu.Unlock()
}

// OnChange subscribes to successful theme transitions.
func (c *Coordinator) OnChange(fn func(ChangeEvent)) events.Subscription {
	return c.subscribe(topicChanged, fn)
}

// OnApplied subscribes to completed applies.
func (c *Coordinator) OnApplied(fn func(ChangeEvent)) events.Subscription {
	return c.subscribe(topicApplied, fn)
}

// OnError subscribes to failed applies. The fallback apply that follows a
// failure emits its own change events.
func (c *Coordinator) OnError(fn func(ChangeEvent)) events.Subscription {
	return c.subscribe(topicError, fn)
}

// Shutdown detaches the coordinator from the settings store and clears its
// registries. Safe to call more than once.
func (c *Coordinator) Shutdown() {
	if c.settingsSub != nil {
		c.settingsSub.Unsubscribe()
	}
	c.mu.Lock()
	c.backends = nil
	c.components = make(map[string]Component)
	c.mu.Unlock()
}

// applyTheme runs the full pipeline. Callers must hold opMu.
func (c *Coordinator) applyTheme(name string, force bool) bool {
	started := time.Now()

	c.mu.Lock()
	oldName := ""
	if c.current != nil {
		oldName = c.current.Name
	}
	c.mu.Unlock()

	if !force && name == oldName {
		c.log.Debug("theme already active", "theme", name)
		return true
	}

	cfg, err := c.resolveTheme(name)
	if err != nil {
		return c.failApply(name, oldName, started, err)
	}

	if err := c.applyToBackends(name); err != nil {
		return c.failApply(name, oldName, started, err)
	}

	if err := c.applyToComponents(cfg); err != nil {
		return c.failApply(name, oldName, started, err)
	}

	c.mu.Lock()
	c.current = cfg
	c.pushHistoryLocked(name)
	history := append([]string(nil), c.history...)
	c.mu.Unlock()

	c.persist(name, history)

	event := ChangeEvent{
		Kind:     EventChanged,
		OldTheme: oldName,
		NewTheme: name,
		Time:     time.Now(),
		Duration: time.Since(started),
		Success:  true,
	}
	c.pub.Publish(topicChanged, event)
	event.Kind = EventApplied
	c.pub.Publish(topicApplied, event)

	c.log.Info("theme applied",
		"theme", name,
		"previous", oldName,
		"duration", time.Since(started).String())
	return true
}

// failApply reports a failed pipeline stage and hands over to the fallback.
func (c *Coordinator) failApply(name, oldName string, started time.Time, cause error) bool {
	c.log.Error(cause, "theme apply failed", "theme", name)
	c.pub.Publish(topicError, ChangeEvent{
		Kind:     EventError,
		OldTheme: oldName,
		NewTheme: name,
		Time:     time.Now(),
		Duration: time.Since(started),
		Success:  false,
		Error:    cause.Error(),
	})
	notify.ThemeError(c.notifier, name, cause.Error())
	return c.applyFallback(name)
}

// applyFallback applies the policy's fallback theme once. It refuses to
// recurse: a failing fallback reports failure instead of looping.
func (c *Coordinator) applyFallback(failed string) bool {
	fallback := c.policy.FallbackTheme
	if failed == fallback {
		return false
	}

	c.mu.Lock()
	if c.applyingFallback {
		c.mu.Unlock()
		return false
	}
	c.applyingFallback = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.applyingFallback = false
		c.mu.Unlock()
	}()

	c.log.Warn("applying fallback theme", "theme", fallback, "failed", failed)
	return c.applyTheme(fallback, false)
}

func themeKey(name string) string { return "theme:" + name }

// resolveTheme loads the named theme through the lazy loader so concurrent
// applies share one resolution and repeated applies hit the cache.
func (c *Coordinator) resolveTheme(name string) (*Configuration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.policy.ApplyTimeout)
	defer cancel()

	value, err := c.loader.Load(ctx, themeKey(name), func(context.Context) (any, error) {
		return c.resolveFromSources(name)
	})
	if err != nil {
		return nil, err
	}
	cfg, ok := value.(*Configuration)
	if !ok || cfg == nil {
		return nil, vferrors.NewValidationError(name, vferrors.ReasonThemeInvalid,
			"resolver returned no configuration")
	}
	return cfg, nil
}

// resolveFromSources asks each backend in registration order, then the
// built-ins. The first definition found wins; built-ins never shadow a
// backend's theme of the same name.
func (c *Coordinator) resolveFromSources(name string) (*Configuration, error) {
	c.mu.Lock()
	backends := append([]registeredBackend(nil), c.backends...)
	c.mu.Unlock()

	for _, rb := range backends {
		cfg, err := rb.backend.Resolve(name)
		if err == nil {
			if verr := Validate(cfg); verr != nil {
				return nil, verr
			}
			return cfg, nil
		}
		if reason, ok := vferrors.ValidationReason(err); ok && reason == vferrors.ReasonThemeNotFound {
			continue
		}
		// A backend that has the theme but cannot produce it is a hard
		// failure, not a reason to shadow it with a built-in.
		return nil, err
	}

	if cfg, ok := Builtin(name); ok {
		return cfg, nil
	}
	return nil, vferrors.NewValidationError(name, vferrors.ReasonThemeNotFound,
		fmt.Sprintf("theme %q is not provided by any backend or built in", name))
}

// applyToBackends pushes the theme to every registered backend sequentially.
// With no backends the step is a no-op; otherwise at least one backend must
// accept the theme.
func (c *Coordinator) applyToBackends(name string) error {
	c.mu.Lock()
	backends := append([]registeredBackend(nil), c.backends...)
	c.mu.Unlock()

	if len(backends) == 0 {
		return nil
	}

	accepted := 0
	var lastErr error
	for _, rb := range backends {
		if err := rb.backend.Apply(name); err != nil {
			lastErr = vferrors.NewSyncError(rb.name, "apply_theme", err)
			c.log.Warn("backend rejected theme",
				"backend", rb.name, "theme", name, "error", err.Error())
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return lastErr
	}
	return nil
}

type componentResult struct {
	id  string
	err error
}

// applyToComponents fans the configuration out to every registered component
// concurrently and waits up to ApplyTimeout for acknowledgements. The apply
// succeeds when the acknowledged fraction reaches the policy threshold;
// stragglers keep running but are not counted.
func (c *Coordinator) applyToComponents(cfg *Configuration) error {
	c.mu.Lock()
	targets := make(map[string]Component, len(c.components))
	for id, comp := range c.components {
		targets[id] = comp
	}
	c.mu.Unlock()

	total := len(targets)
	if total == 0 {
		return nil
	}

	results := make(chan componentResult, total)
	for id, comp := range targets {
		go func(id string, comp Component) {
			results <- componentResult{id: id, err: comp.ApplyTheme(cfg)}
		}(id, comp)
	}

	timer := time.NewTimer(c.policy.ApplyTimeout)
	defer timer.Stop()

	succeeded := 0
	received := 0
collect:
	for received < total {
		select {
		case res := <-results:
			received++
			if res.err != nil {
				c.log.Warn("component rejected theme",
					"component", res.id, "theme", cfg.Name, "error", res.err.Error())
				continue
			}
			succeeded++
		case <-timer.C:
			c.log.Warn("timed out waiting for components",
				"theme", cfg.Name, "pending", total-received)
			break collect
		}
	}

	if ratio := float64(succeeded) / float64(total); ratio < c.policy.SuccessThreshold {
		return vferrors.NewSyncError("components", "apply_theme",
			fmt.Errorf("only %d of %d components applied theme %q", succeeded, total, cfg.Name))
	}
	return nil
}

// pushHistoryLocked records name as most recent, deduplicated and capped.
// Callers must hold mu.
func (c *Coordinator) pushHistoryLocked(name string) {
	updated := make([]string, 0, len(c.history)+1)
	updated = append(updated, name)
	for _, h := range c.history {
		if h != name {
			updated = append(updated, h)
		}
	}
	if len(updated) > c.policy.MaxHistory {
		updated = updated[:c.policy.MaxHistory]
	}
	c.history = updated
}

// persist records the applied theme in the settings store. Store failures are
// logged; the in-memory state change stands.
func (c *Coordinator) persist(name string, history []string) {
	c.store.Set(KeyTheme, name)
	c.store.Set(KeyThemeHistory, history)
	if err := c.store.Save(); err != nil {
		c.log.Error(err, "failed to persist theme state", "theme", name)
	}
}

// onSettingsChange re-applies the theme when ui.theme changes externally.
// The coordinator's own persist writes are recognized by name and skipped.
func (c *Coordinator) onSettingsChange(change settings.Change) {
	if change.Key != KeyTheme {
		return
	}
	name, _ := change.New.(string)
	if name == "" {
		return
	}

	c.mu.Lock()
	current := ""
	if c.current != nil {
		current = c.current.Name
	}
	c.mu.Unlock()
	if name == current {
		return
	}

	c.log.Debug("theme changed in settings", "theme", name)
	c.ApplyTheme(name)
}

func (c *Coordinator) subscribe(topic string, fn func(ChangeEvent)) events.Subscription {
	if fn == nil {
		return c.pub.Subscribe(topic, nil)
	}
	return c.pub.Subscribe(topic, func(payload any) error {
		if event, ok := payload.(ChangeEvent); ok {
			fn(event)
		}
		return nil
	})
}
