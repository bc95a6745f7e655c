package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowseRefusesNonInteractiveRun(t *testing.T) {
	_, err := runCommand(t, "browse", t.TempDir(), "--settings", scratchSettings(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestRootWithoutArgsLaunchesBrowser(t *testing.T) {
	// Outside a terminal the default action fails the same way browse does,
	// which doubles as proof that it routes there.
	_, err := runCommand(t, "--settings", scratchSettings(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}
