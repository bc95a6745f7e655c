package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/viewfinder/viewfinder/internal/logger"
	vferrors "github.com/viewfinder/viewfinder/pkg/errors"
)

// Backend adapts one theming surface to the coordinator. Implementations must
// be safe for concurrent use.
type Backend interface {
	// Resolve loads the named theme definition without applying it.
	Resolve(name string) (*Configuration, error)
	// Apply makes the named theme the backend's active theme.
	Apply(name string) error
	// CurrentTheme returns the backend's active theme, if it has one.
	CurrentTheme() (*Configuration, bool)
	// AvailableThemes lists the themes this backend can resolve.
	AvailableThemes() []Info
}

var themeFileExtensions = []string{".yaml", ".yml"}

// FileBackend resolves themes from a directory of YAML definitions, one file
// per theme named <theme>.yaml.
type FileBackend struct {
	dir string
	log *logger.Logger

	mu      sync.Mutex
	current *Configuration
}

// NewFileBackend creates a backend reading theme files under dir. The
// directory does not have to exist; a missing directory simply resolves no
// themes.
func NewFileBackend(dir string, log *logger.Logger) *FileBackend {
	return &FileBackend{dir: dir, log: log.WithComponent("theme-files")}
}

// Dir returns the directory this backend reads from.
func (b *FileBackend) Dir() string {
	return b.dir
}

// Resolve loads and validates the named theme file.
func (b *FileBackend) Resolve(name string) (*Configuration, error) {
	path, err := b.find(name)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, vferrors.NewParseError(path, 0, err)
	}

	var cfg Configuration
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, vferrors.NewParseError(path, vferrors.YAMLErrorLine(err), err)
	}

	if cfg.Name == "" {
		cfg.Name = name
	}
	if cfg.Type == "" {
		cfg.Type = TypeCustom
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Apply resolves the named theme and records it as this backend's current
// theme.
func (b *FileBackend) Apply(name string) error {
	cfg, err := b.Resolve(name)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.current = cfg
	b.mu.Unlock()
	return nil
}

// CurrentTheme returns the last theme applied through this backend.
func (b *FileBackend) CurrentTheme() (*Configuration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil, false
	}
	return b.current.Clone(), true
}

// AvailableThemes lists every valid theme file in the directory. Files that
// fail to parse or validate are skipped with a warning.
func (b *FileBackend) AvailableThemes() []Info {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !isThemeFileExtension(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if _, dup := seen[name]; dup {
			continue
		}

		cfg, resolveErr := b.Resolve(name)
		if resolveErr != nil {
			b.log.Warn("skipping invalid theme file",
				"file", entry.Name(),
				"error", resolveErr.Error())
			continue
		}
		seen[name] = struct{}{}
		infos = append(infos, cfg.Info())
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (b *FileBackend) find(name string) (string, error) {
	for _, ext := range themeFileExtensions {
		path := filepath.Join(b.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", vferrors.NewValidationError(name, vferrors.ReasonThemeNotFound,
		fmt.Sprintf("no theme file for %q under %s", name, b.dir))
}

func isThemeFileExtension(ext string) bool {
	for _, candidate := range themeFileExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
