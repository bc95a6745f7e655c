package navigation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/viewfinder/viewfinder/internal/cache"
	"github.com/viewfinder/viewfinder/internal/logger"
	vferrors "github.com/viewfinder/viewfinder/pkg/errors"
)

const (
	// DefaultPathAccessTimeout bounds a single filesystem check. Expiry is
	// reported as path_timeout, distinct from a missing path.
	DefaultPathAccessTimeout = 3 * time.Second

	verdictCacheCapacity = 1000
	verdictCacheTTL      = 30 * time.Second
)

// Validator checks that paths are navigable directories, memoizing verdicts
// briefly so breadcrumb rendering and watch-event bursts do not stat the same
// directory over and over.
type Validator struct {
	verdicts *cache.ResourceCache
	timeout  time.Duration
	log      *logger.Logger
	stat     func(string) (os.FileInfo, error) // swapped in tests
}

// NewValidator creates a validator with its own verdict cache.
func NewValidator(timeout time.Duration, log *logger.Logger) *Validator {
	if timeout <= 0 {
		timeout = DefaultPathAccessTimeout
	}
	return &Validator{
		verdicts: cache.NewResourceCache(verdictCacheCapacity, verdictCacheTTL),
		timeout:  timeout,
		log:      log.WithComponent("path-validator"),
		stat:     os.Stat,
	}
}

// Validate resolves path to its absolute form and checks that it is an
// existing, readable directory. Verdicts, positive and negative, are cached
// until their TTL lapses; timeouts are returned but never cached.
func (v *Validator) Validate(path string) (PathInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return PathInfo{Path: path, CheckedAt: time.Now()},
			vferrors.NewValidationError(path, vferrors.ReasonPathNotFound, err.Error())
	}

	if cached, ok := v.verdicts.Get(abs); ok {
		if info, isInfo := cached.(PathInfo); isInfo {
			return info, classify(info)
		}
	}

	info, err := v.inspect(abs)
	if err != nil {
		return PathInfo{Path: abs, CheckedAt: time.Now()}, err
	}

	v.verdicts.Set(abs, info)
	return info, classify(info)
}

// Invalidate drops the cached verdict for path, forcing the next Validate to
// hit the filesystem. Used when a watch event proves the verdict stale.
func (v *Validator) Invalidate(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		v.verdicts.Invalidate(abs)
	}
}

// Flush drops every cached verdict.
func (v *Validator) Flush() {
	v.verdicts.Clear()
}

type statOutcome struct {
	fi       os.FileInfo
	err      error
	readable bool
}

// inspect stats the path on its own goroutine so a hung network mount cannot
// stall navigation past the configured timeout. The goroutine is abandoned on
// timeout, not cancelled.
func (v *Validator) inspect(abs string) (PathInfo, error) {
	stat := v.stat
	done := make(chan statOutcome, 1)
	go func() {
		var out statOutcome
		out.fi, out.err = stat(abs)
		if out.err == nil && out.fi.IsDir() {
			if dir, openErr := os.Open(abs); openErr == nil {
				out.readable = true
				_ = dir.Close()
			}
		}
		done <- out
	}()

	timer := time.NewTimer(v.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		info := PathInfo{Path: abs, CheckedAt: time.Now()}
		switch {
		case out.err == nil:
			info.Exists = true
			info.IsDir = out.fi.IsDir()
			info.Readable = out.readable
		case os.IsPermission(out.err):
			// The parent refused the stat; the path may exist but is
			// unreadable either way.
			info.Exists = true
			info.IsDir = true
		}
		return info, nil

	case <-timer.C:
		v.log.Warn("path check timed out", "path", abs, "timeout", v.timeout.String())
		return PathInfo{}, vferrors.NewValidationError(abs, vferrors.ReasonPathTimeout,
			fmt.Sprintf("filesystem did not answer within %s", v.timeout))
	}
}

// classify maps a verdict onto the error a coordinator acts on.
func classify(info PathInfo) error {
	switch {
	case !info.Exists:
		return vferrors.NewValidationError(info.Path, vferrors.ReasonPathNotFound, "path does not exist")
	case !info.IsDir:
		return vferrors.NewValidationError(info.Path, vferrors.ReasonNotADirectory, "path is not a directory")
	case !info.Readable:
		return vferrors.NewValidationError(info.Path, vferrors.ReasonPermissionDenied, "directory is not readable")
	}
	return nil
}
