package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirEntryRendering(t *testing.T) {
	dir := dirEntry{name: "albums", isDir: true}
	assert.Equal(t, "albums/", dir.Title())
	assert.Equal(t, "directory", dir.Description())

	file := dirEntry{
		name:    "cover.jpg",
		size:    2048,
		modTime: time.Date(2025, time.March, 9, 14, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, "cover.jpg", file.Title())
	assert.Equal(t, "2.0 KB · Mar 9 14:30", file.Description())
	assert.Equal(t, "cover.jpg", file.FilterValue())
}

func TestLoadEntriesSortsDirectoriesFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zebra.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vacation"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Alpha.png"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Berlin"), 0o755))

	msg := loadEntriesCmd(dir)()
	entries, ok := msg.(EntriesLoadedMsg)
	require.True(t, ok)
	require.Len(t, entries.Items, 4)

	var names []string
	for _, item := range entries.Items {
		names = append(names, item.(dirEntry).name)
	}
	assert.Equal(t, []string{"Berlin", "vacation", "Alpha.png", "zebra.jpg"}, names)
}

func TestLoadEntriesSkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.jpg"), []byte("x"), 0o644))

	msg := loadEntriesCmd(dir)()
	entries, ok := msg.(EntriesLoadedMsg)
	require.True(t, ok)
	require.Len(t, entries.Items, 1)
	assert.Equal(t, "visible.jpg", entries.Items[0].(dirEntry).name)
}

func TestLoadEntriesReportsUnreadableDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	msg := loadEntriesCmd(missing)()
	failure, ok := msg.(EntriesErrorMsg)
	require.True(t, ok)
	assert.Equal(t, missing, failure.Path)
	assert.Error(t, failure.Err)
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, humanSize(tc.in))
	}
}
