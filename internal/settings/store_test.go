package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewfinder/viewfinder/internal/logger"
	vferrors "github.com/viewfinder/viewfinder/pkg/errors"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return log
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Load(path, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "default", s.GetString("ui.theme", "default"))
}

func TestLoadMalformedFileIsParseError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  theme: [unclosed"), 0o644))

	_, err := Load(path, testLogger(t))
	var parseErr *vferrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.Path)
}

func TestSetAndGetDottedKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Load(path, testLogger(t))
	require.NoError(t, err)

	s.Set("ui.theme", "dark")
	s.Set("navigation.sync_enabled", true)
	s.Set("navigation.history", []string{"/photos", "/photos/2024"})

	assert.Equal(t, "dark", s.GetString("ui.theme", ""))
	assert.True(t, s.GetBool("navigation.sync_enabled", false))
	assert.Equal(t, []string{"/photos", "/photos/2024"}, s.GetStringSlice("navigation.history"))
	assert.Equal(t, "fallback", s.GetString("ui.missing", "fallback"))
}

func TestSaveRoundTripsThroughYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "settings.yaml")

	s, err := Load(path, testLogger(t))
	require.NoError(t, err)
	s.Set("ui.theme", "dark")
	s.Set("ui.theme_history", []string{"dark", "default"})
	s.Set("navigation.current_path", "/photos/2024")
	require.NoError(t, s.Save())

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reloaded, err := Load(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "dark", reloaded.GetString("ui.theme", ""))
	assert.Equal(t, []string{"dark", "default"}, reloaded.GetStringSlice("ui.theme_history"))
	assert.Equal(t, "/photos/2024", reloaded.GetString("navigation.current_path", ""))
}

func TestOnChangeDeliversOldAndNew(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"), testLogger(t))
	require.NoError(t, err)

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	s.Set("ui.theme", "dark")
	s.Set("ui.theme", "light")

	require.Len(t, changes, 2)
	assert.Equal(t, "ui.theme", changes[0].Key)
	assert.Nil(t, changes[0].Old)
	assert.Equal(t, "dark", changes[0].New)
	assert.Equal(t, "dark", changes[1].Old)
	assert.Equal(t, "light", changes[1].New)
}

func TestSetSameValueDoesNotFireListeners(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"), testLogger(t))
	require.NoError(t, err)

	var calls int
	s.OnChange(func(Change) { calls++ })

	s.Set("ui.theme", "dark")
	s.Set("ui.theme", "dark")

	assert.Equal(t, 1, calls)
}

func TestOnChangeUnsubscribe(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"), testLogger(t))
	require.NoError(t, err)

	var calls int
	sub := s.OnChange(func(Change) { calls++ })
	s.Set("a.b", 1)
	sub.Unsubscribe()
	s.Set("a.b", 2)

	assert.Equal(t, 1, calls)
}
