package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/viewfinder/viewfinder/internal/navigation"
)

const crumbSeparator = " › "

// renderBreadcrumb draws the segment trail on one line, the current segment
// accented and collapsed middles shown as an ellipsis. The line is clipped to
// width; the coordinator already bounds the segment count.
func renderBreadcrumb(segments []navigation.BreadcrumbSegment, s Styles, width int) string {
	if len(segments) == 0 {
		return ""
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch {
		case seg.Ellipsis:
			parts = append(parts, s.CrumbEllipsis.Render("…"))
		case seg.State == navigation.SegmentCurrent:
			parts = append(parts, s.CrumbCurrent.Render(seg.Name))
		default:
			parts = append(parts, s.Crumb.Render(seg.Name))
		}
	}

	line := strings.Join(parts, s.CrumbSeparator.Render(crumbSeparator))
	if width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}
