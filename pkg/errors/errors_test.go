package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("themes/dark.yaml", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "themes/dark.yaml", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "themes/dark.yaml")
}

func TestValidationErrorCarriesReason(t *testing.T) {
	t.Parallel()

	err := NewValidationError("/photos/missing", ReasonPathNotFound, "path does not exist")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "/photos/missing", validationErr.Subject)
	require.Equal(t, ReasonPathNotFound, validationErr.Reason)
	require.Contains(t, err.Error(), "path_not_found")
}

func TestValidationReasonExtractsFromChain(t *testing.T) {
	t.Parallel()

	inner := NewValidationError("dusk", ReasonThemeNotFound, "no backend lists it")
	wrapped := fmt.Errorf("apply failed: %w", inner)

	reason, ok := ValidationReason(wrapped)
	require.True(t, ok)
	require.Equal(t, ReasonThemeNotFound, reason)

	_, ok = ValidationReason(stdErrors.New("plain"))
	require.False(t, ok)
}

func TestWrapValidationErrorKeepsCause(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("stat timed out")
	err := WrapValidationError("/mnt/nas/photos", ReasonPathTimeout, underlying)

	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "path_timeout")
}

func TestSyncErrorIncludesTargetContext(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("component rejected state")
	err := NewSyncError("sidebar", "navigate", underlying)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	require.Equal(t, "sidebar", syncErr.Target)
	require.Equal(t, "navigate", syncErr.Op)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestPersistenceErrorIncludesKey(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("disk full")
	err := NewPersistenceError("navigation.current_path", "", underlying)

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	require.Equal(t, "navigation.current_path", persistErr.Key)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestWatchErrorIncludesPath(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("too many open files")
	err := NewWatchError("/photos/2024", underlying)

	var watchErr *WatchError
	require.ErrorAs(t, err, &watchErr)
	require.Equal(t, "/photos/2024", watchErr.Path)
	require.True(t, stdErrors.Is(err, underlying))
}
