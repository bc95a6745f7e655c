// Package settings implements the configuration collaborator: a YAML-backed
// store with dotted-path keys, synchronous change listeners, and atomic
// persistence.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/viewfinder/viewfinder/internal/events"
	"github.com/viewfinder/viewfinder/internal/logger"
	vferrors "github.com/viewfinder/viewfinder/pkg/errors"
)

const topicChange = "settings_change"

// Change describes one key mutation, delivered to OnChange listeners.
type Change struct {
	Key string
	Old any
	New any
}

// Store holds application settings as a nested map addressed by dotted keys
// ("ui.theme", "navigation.current_path"). Mutations happen in memory; Save
// writes the whole document atomically.
type Store struct {
	path string
	log  *logger.Logger
	pub  *events.Publisher

	mu   sync.RWMutex
	data map[string]any
}

// Load reads the settings file at path. A missing file yields an empty store;
// a malformed file is a ParseError.
func Load(path string, log *logger.Logger) (*Store, error) {
	s := &Store{
		path: path,
		log:  log.WithComponent("settings"),
		pub:  events.NewPublisher(log),
		data: make(map[string]any),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, vferrors.NewParseError(path, 0, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, vferrors.NewParseError(path, vferrors.YAMLErrorLine(err), err)
	}
	if doc != nil {
		s.data = doc
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value at key, or def when the key is absent.
func (s *Store) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := lookup(s.data, splitKey(key))
	if !ok {
		return def
	}
	return value
}

// GetString returns the string at key, or def when absent or not a string.
func (s *Store) GetString(key, def string) string {
	if value, ok := s.Get(key, def).(string); ok {
		return value
	}
	return def
}

// GetBool returns the bool at key, or def when absent or not a bool.
func (s *Store) GetBool(key string, def bool) bool {
	if value, ok := s.Get(key, def).(bool); ok {
		return value
	}
	return def
}

// GetStringSlice returns the list at key coerced to strings. YAML sequences
// decode as []any, so both representations are accepted.
func (s *Store) GetStringSlice(key string) []string {
	raw := s.Get(key, nil)
	switch list := raw.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

// Set stores value at key, creating intermediate maps as needed. Listeners
// fire synchronously, only when the value actually changed.
func (s *Store) Set(key string, value any) {
	parts := splitKey(key)

	s.mu.Lock()
	old, _ := lookup(s.data, parts)
	if reflect.DeepEqual(old, value) {
		s.mu.Unlock()
		return
	}
	insert(s.data, parts, value)
	s.mu.Unlock()

	s.pub.Publish(topicChange, Change{Key: key, Old: old, New: value})
}

// OnChange registers a listener invoked after every effective Set.
func (s *Store) OnChange(fn func(Change)) events.Subscription {
	return s.pub.Subscribe(topicChange, func(payload any) error {
		fn(payload.(Change))
		return nil
	})
}

// Save writes the document to disk via a temporary file and atomic rename.
func (s *Store) Save() error {
	s.mu.RLock()
	raw, err := yaml.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return vferrors.NewPersistenceError("", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return vferrors.NewPersistenceError("", s.path, err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		return vferrors.NewPersistenceError("", s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return vferrors.NewPersistenceError("", s.path, err)
	}

	s.log.Debug("settings saved", "path", s.path)
	return nil
}

func splitKey(key string) []string {
	return strings.Split(key, ".")
}

func lookup(data map[string]any, parts []string) (any, bool) {
	current := data
	for i, part := range parts {
		value, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return value, true
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

func insert(data map[string]any, parts []string, value any) {
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
