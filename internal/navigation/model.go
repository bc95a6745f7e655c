// Package navigation implements the navigation coordination core: breadcrumb
// state derived from the current directory, cached path validation, and the
// coordinator that keeps every navigation-aware surface pointed at the same
// place.
package navigation

import (
	"path/filepath"
	"time"
)

// MaxVisibleSegments is how many breadcrumb segments render before the trail
// collapses behind an ellipsis.
const MaxVisibleSegments = 6

// SegmentState describes how a breadcrumb segment renders.
type SegmentState string

const (
	SegmentNormal   SegmentState = "normal"
	SegmentCurrent  SegmentState = "current"
	SegmentHover    SegmentState = "hover"
	SegmentDisabled SegmentState = "disabled"
)

// BreadcrumbSegment is one element of the breadcrumb trail.
type BreadcrumbSegment struct {
	// Name is the display label; the root segment shows the separator itself.
	Name string
	// Path is the absolute path this segment navigates to. Empty for the
	// ellipsis marker.
	Path     string
	State    SegmentState
	Ellipsis bool
}

// EventKind labels navigation events.
type EventKind string

const (
	// EventNavigate announces a current-path change.
	EventNavigate EventKind = "navigate"
	// EventRefresh announces that the current directory's contents changed
	// while the path itself stayed put.
	EventRefresh EventKind = "refresh"
	// EventHistory announces that the traversal history moved.
	EventHistory EventKind = "history_updated"
)

// Event describes one navigation transition. Events are transient records;
// the coordinator never stores them past delivery.
type Event struct {
	Kind         EventKind
	Path         string
	PreviousPath string
	// Source is the id of the component that initiated the navigation, if
	// any. The source is excluded from the fan-out.
	Source string
	// FallbackFrom names the unreachable target this event recovered from.
	FallbackFrom string
	Success      bool
	Time         time.Time
}

// State is a point-in-time snapshot of where the application points. It is
// rebuilt whole on every navigation, never patched.
type State struct {
	CurrentPath  string
	PreviousPath string
	Segments     []BreadcrumbSegment
	CanGoBack    bool
	CanGoForward bool
	CanGoUp      bool
	Time         time.Time
}

// PathInfo is the cached verdict for one absolute path.
type PathInfo struct {
	Path      string
	Exists    bool
	IsDir     bool
	Readable  bool
	CheckedAt time.Time
}

// Navigable reports whether the path can become the current directory.
func (i PathInfo) Navigable() bool {
	return i.Exists && i.IsDir && i.Readable
}

// GenerateSegments builds the breadcrumb trail for path, root first. Long
// paths collapse behind a disabled ellipsis marker so at most maxVisible
// segments render: the root, the marker, and the trailing maxVisible-2
// segments.
func GenerateSegments(path string, maxVisible int) []BreadcrumbSegment {
	if path == "" {
		return nil
	}

	cleaned := filepath.Clean(path)
	var segments []BreadcrumbSegment
	for {
		parent := filepath.Dir(cleaned)
		if parent == cleaned {
			segments = append(segments, BreadcrumbSegment{
				Name:  cleaned,
				Path:  cleaned,
				State: SegmentNormal,
			})
			break
		}
		segments = append(segments, BreadcrumbSegment{
			Name:  filepath.Base(cleaned),
			Path:  cleaned,
			State: SegmentNormal,
		})
		cleaned = parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	segments[len(segments)-1].State = SegmentCurrent

	if maxVisible >= 3 && len(segments) > maxVisible {
		collapsed := make([]BreadcrumbSegment, 0, maxVisible)
		collapsed = append(collapsed, segments[0])
		collapsed = append(collapsed, BreadcrumbSegment{
			Name:     "...",
			State:    SegmentDisabled,
			Ellipsis: true,
		})
		collapsed = append(collapsed, segments[len(segments)-(maxVisible-2):]...)
		return collapsed
	}
	return segments
}
