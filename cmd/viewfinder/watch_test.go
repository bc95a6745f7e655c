package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewfinder/viewfinder/internal/watch"
)

func TestFormatWatchEvent(t *testing.T) {
	stamp := time.Date(2025, time.June, 1, 14, 30, 5, 0, time.UTC)

	created := watch.Event{Type: watch.Created, Path: "/photos/cat.jpg", Time: stamp}
	line := formatWatchEvent(created)
	assert.Contains(t, line, "14:30:05")
	assert.Contains(t, line, "created")
	assert.Contains(t, line, "/photos/cat.jpg")

	moved := watch.Event{Type: watch.Moved, OldPath: "/photos/a.jpg", Path: "/photos/b.jpg", Time: stamp}
	assert.Contains(t, formatWatchEvent(moved), "/photos/a.jpg -> /photos/b.jpg")

	lost := watch.Event{Type: watch.Moved, OldPath: "/photos/a.jpg", Time: stamp}
	assert.Contains(t, formatWatchEvent(lost), "-> (unknown)")
}

func TestRenderWatchSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	stats := watch.Stats{
		WatchedPath: "/photos",
		Since:       time.Now().Add(-3 * time.Second),
		RawEvents:   12,
		FilteredOut: 4,
		Suppressed:  3,
		Delivered:   5,
	}
	require.NoError(t, renderWatchSummary(cmd, stats))

	out := buf.String()
	assert.Contains(t, out, "/photos")
	assert.Contains(t, out, "raw events")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "delivered")
	assert.Contains(t, out, "5")
}

func TestWatchCommandValidatesDirectory(t *testing.T) {
	out, err := runCommand(t, "watch", "/does/not/exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to watch")
	assert.Empty(t, out)
}
