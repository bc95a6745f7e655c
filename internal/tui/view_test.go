package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewfinder/viewfinder/internal/gitinfo"
)

func TestViewBeforeFirstResize(t *testing.T) {
	m := NewModel(newTestDeps(t, t.TempDir()))
	assert.Equal(t, "Initializing...", m.View())
}

func TestViewRendersChrome(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "albums"), 0o755))

	m := sized(t, NewModel(newTestDeps(t, dir)))
	m = loaded(t, m, dir)

	out := m.View()
	assert.Contains(t, out, "Viewfinder")
	assert.Contains(t, out, "theme: default")
	assert.Contains(t, out, filepath.Base(dir))
	assert.Contains(t, out, "albums/")
	assert.Contains(t, out, "1 entries")
	assert.Contains(t, out, "q: quit")
}

func TestViewEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	m := sized(t, NewModel(newTestDeps(t, dir)))
	m = loaded(t, m, dir)

	assert.Contains(t, m.View(), "No entries")
}

func TestViewLoadingSpinner(t *testing.T) {
	dir := t.TempDir()
	m := sized(t, NewModel(newTestDeps(t, dir)))
	m.loading = true

	assert.Contains(t, m.View(), "Reading "+dir)
}

func TestViewNoticeBanner(t *testing.T) {
	m := sized(t, NewModel(newTestDeps(t, t.TempDir())))
	m.loading = false
	m.notice = &notice{level: NoticeWarning, title: "Redirected", text: "somewhere else"}

	out := m.View()
	assert.Contains(t, out, "Redirected: somewhere else")
}

func TestViewGitStatus(t *testing.T) {
	m := sized(t, NewModel(newTestDeps(t, t.TempDir())))
	m.loading = false
	m.git = gitinfo.Info{InRepo: true, Branch: "main", Dirty: 2}

	assert.Contains(t, m.View(), "git main +2")
}

func TestViewHelpOverlay(t *testing.T) {
	m := sized(t, NewModel(newTestDeps(t, t.TempDir())))
	m.showHelp = true

	out := m.View()
	assert.Contains(t, out, "Keys")
	assert.Contains(t, out, "cycle through available themes")
	assert.NotContains(t, out, "Viewfinder", "the overlay replaces the browse chrome")
}
