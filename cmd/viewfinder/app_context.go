package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/viewfinder/viewfinder/internal/cache"
	"github.com/viewfinder/viewfinder/internal/gitinfo"
	"github.com/viewfinder/viewfinder/internal/logger"
	"github.com/viewfinder/viewfinder/internal/navigation"
	"github.com/viewfinder/viewfinder/internal/notify"
	"github.com/viewfinder/viewfinder/internal/settings"
	"github.com/viewfinder/viewfinder/internal/theme"
	"github.com/viewfinder/viewfinder/internal/watch"
)

const (
	gitMemoCapacity = 128
	gitMemoTTL      = 30 * time.Second
)

// appContext bundles the long-lived services created at startup.
type appContext struct {
	Log        *logger.Logger
	Store      *settings.Store
	Watcher    *watch.Engine
	Themes     *theme.Coordinator
	Navigation *navigation.Coordinator
	Inspector  *gitinfo.Inspector
	Notifier   notify.Notifier
}

// buildApp wires the coordination core. Nothing is started; each command
// brings up exactly the collaborators it needs.
func buildApp(flags *rootFlags) (*appContext, error) {
	log, err := newLogger(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	settingsPath := flags.settings
	if settingsPath == "" {
		settingsPath, err = defaultSettingsPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate settings: %w", err)
		}
	}
	store, err := settings.Load(settingsPath, log)
	if err != nil {
		return nil, err
	}

	notifier := pickNotifier(log)
	watcher := watch.New(watch.Options{Logger: log})

	themes := theme.NewCoordinator(theme.DefaultPolicy(), store, notifier, log)
	// Custom theme files live next to the settings document.
	themes.RegisterBackend("files", theme.NewFileBackend(filepath.Join(filepath.Dir(settingsPath), "themes"), log))

	nav := navigation.NewCoordinator(navigation.DefaultPolicy(), store, watcher, notifier, log)
	inspector := gitinfo.NewInspector(cache.NewResourceCache(gitMemoCapacity, gitMemoTTL), log)

	return &appContext{
		Log:        log,
		Store:      store,
		Watcher:    watcher,
		Themes:     themes,
		Navigation: nav,
		Inspector:  inspector,
		Notifier:   notifier,
	}, nil
}

// Close tears the core down. Safe after partial startup.
func (app *appContext) Close() {
	app.Navigation.Shutdown()
	app.Themes.Shutdown()
	app.Watcher.Stop()
}

func newLogger(flags *rootFlags) (*logger.Logger, error) {
	level := "info"
	if flags.verbose {
		level = "debug"
	}

	human := false
	switch flags.logFormat {
	case "console":
		human = true
	case "json":
		human = false
	default:
		human = isTerminal(os.Stderr)
	}

	return logger.New(logger.Options{Level: level, HumanReadable: human})
}

// pickNotifier routes user-facing notices to the terminal when there is one,
// and to the log otherwise.
func pickNotifier(log *logger.Logger) notify.Notifier {
	if isTerminal(os.Stderr) {
		return notify.NewConsoleNotifier(os.Stderr)
	}
	return notify.NewLogNotifier(log)
}

func defaultSettingsPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "viewfinder", "settings.yaml"), nil
}
