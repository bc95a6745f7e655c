package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Reason identifies why a validation rejected its subject.
type Reason string

const (
	ReasonPathNotFound     Reason = "path_not_found"
	ReasonNotADirectory    Reason = "not_a_directory"
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonPathTimeout      Reason = "path_timeout"
	ReasonThemeNotFound    Reason = "theme_not_found"
	ReasonThemeInvalid     Reason = "theme_invalid"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// YAMLErrorLine extracts the line number a yaml error message refers to.
// Returns 0 when the message carries none.
func YAMLErrorLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	line, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0
	}
	return line
}

// ValidationError captures a rejected path or theme. Validation failures are
// always recoverable: coordinators answer them with a fallback, never a panic.
type ValidationError struct {
	Subject string
	Reason  Reason
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError for the given subject.
func NewValidationError(subject string, reason Reason, message string) error {
	return &ValidationError{Subject: subject, Reason: reason, Message: message}
}

// WrapValidationError constructs a ValidationError around an underlying cause.
func WrapValidationError(subject string, reason Reason, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ValidationError{Subject: subject, Reason: reason, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Subject != "" {
		return fmt.Sprintf("validation error [%s]: %s: %s", e.Reason, e.Subject, e.Message)
	}
	return fmt.Sprintf("validation error [%s]: %s", e.Reason, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationReason extracts the Reason from a ValidationError anywhere in the
// chain. Returns false when err carries no validation metadata.
func ValidationReason(err error) (Reason, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason, true
	}
	return "", false
}

// SyncError records a single fan-out target that failed or timed out while
// being updated. Sync failures are isolated per target and counted against
// the success ratio, never propagated as operation failures on their own.
type SyncError struct {
	Target string
	Op     string
	Err    error
}

// NewSyncError constructs a SyncError for the given target and operation.
func NewSyncError(target, op string, err error) error {
	return &SyncError{Target: target, Op: op, Err: err}
}

func (e *SyncError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("sync error on %s [%s]: %v", e.Target, e.Op, e.Err)
	}
	return fmt.Sprintf("sync error [%s]: %v", e.Op, e.Err)
}

// Unwrap exposes the root error.
func (e *SyncError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PersistenceError indicates a configuration-store write failure. The
// in-memory state change is kept; only the on-disk record lags.
type PersistenceError struct {
	Key  string
	Path string
	Err  error
}

// NewPersistenceError constructs a PersistenceError.
func NewPersistenceError(key, path string, err error) error {
	return &PersistenceError{Key: key, Path: path, Err: err}
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Key != "" {
		return fmt.Sprintf("persistence error for %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("persistence error: %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WatchError indicates a filesystem watch could not start or faulted while
// running.
type WatchError struct {
	Path    string
	Message string
	Err     error
}

// NewWatchError constructs a WatchError for the given path.
func NewWatchError(path string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &WatchError{Path: path, Message: message, Err: err}
}

func (e *WatchError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("watch error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("watch error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *WatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
