package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func scratchSettings(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.yaml")
}

func TestThemesListShowsBuiltins(t *testing.T) {
	out, err := runCommand(t, "themes", "list", "--settings", scratchSettings(t))
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "dark")
	assert.Contains(t, out, "light")
}

func TestThemesApplyPersistsChoice(t *testing.T) {
	settings := scratchSettings(t)

	out, err := runCommand(t, "themes", "apply", "dark", "--settings", settings)
	require.NoError(t, err)
	assert.Contains(t, out, "Theme set to dark")

	raw, err := os.ReadFile(settings)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "theme: dark")

	// A later list marks the persisted theme as active.
	out, err = runCommand(t, "themes", "list", "--settings", settings)
	require.NoError(t, err)
	assert.Contains(t, out, "*")
}

func TestThemesPickUpCustomThemeFiles(t *testing.T) {
	settings := scratchSettings(t)
	themesDir := filepath.Join(filepath.Dir(settings), "themes")
	require.NoError(t, os.MkdirAll(themesDir, 0o755))

	themeYAML := `name: solarized
display_name: Solarized
version: 1.0.0
colors:
  primary: "#268bd2"
  secondary: "#2aa198"
  background: "#002b36"
  surface: "#073642"
  text_primary: "#eee8d5"
  text_secondary: "#93a1a1"
  accent: "#b58900"
  error: "#dc322f"
  warning: "#cb4b16"
  success: "#859900"
`
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "solarized.yaml"), []byte(themeYAML), 0o644))

	out, err := runCommand(t, "themes", "list", "--settings", settings)
	require.NoError(t, err)
	assert.Contains(t, out, "solarized")
	assert.Contains(t, out, "custom")

	out, err = runCommand(t, "themes", "apply", "solarized", "--settings", settings)
	require.NoError(t, err)
	assert.Contains(t, out, "Theme set to solarized")
}

func TestThemesApplyUnknownNameFails(t *testing.T) {
	out, err := runCommand(t, "themes", "apply", "neon", "--settings", scratchSettings(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available themes")
	assert.Empty(t, out)
}
