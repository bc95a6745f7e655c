package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/viewfinder/viewfinder/internal/gitinfo"
	"github.com/viewfinder/viewfinder/internal/navigation"
	"github.com/viewfinder/viewfinder/internal/theme"
	"github.com/viewfinder/viewfinder/internal/watch"
)

// NoticeLevel grades a user-facing banner.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// NavigationMsg carries a navigation coordinator event into the program.
type NavigationMsg struct {
	Event navigation.Event
}

// ThemeMsg carries the configuration the theme coordinator just applied.
type ThemeMsg struct {
	Theme *theme.Configuration
}

// EntriesLoadedMsg delivers the directory listing for Path.
type EntriesLoadedMsg struct {
	Path  string
	Items []list.Item
}

// EntriesErrorMsg reports that a directory listing failed.
type EntriesErrorMsg struct {
	Path string
	Err  error
}

// StatusMsg refreshes the status line inputs.
type StatusMsg struct {
	Git   gitinfo.Info
	Watch watch.Stats
}

// NoticeMsg shows a banner until the next notice or an esc keypress.
type NoticeMsg struct {
	Level NoticeLevel
	Title string
	Text  string
}

// ClearNoticeMsg dismisses the banner.
type ClearNoticeMsg struct{}

// opDoneMsg reports a coordinator operation started by a key binding. Failed
// operations surface through the coordinators' error events; the flag only
// stops the loading spinner.
type opDoneMsg struct {
	ok bool
}
