// Package tui is the browse surface: a bubbletea program wired to the theme
// and navigation coordinators. It consumes their events as messages, renders
// a breadcrumb trail, a directory list, and a status line, and feeds key
// bindings back into coordinator operations.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/viewfinder/viewfinder/internal/gitinfo"
	"github.com/viewfinder/viewfinder/internal/logger"
	"github.com/viewfinder/viewfinder/internal/navigation"
	"github.com/viewfinder/viewfinder/internal/theme"
	"github.com/viewfinder/viewfinder/internal/watch"
)

// ComponentID is the id the browse surface registers under on both
// coordinators. Navigations it initiates carry it as the source.
const ComponentID = "tui-browse"

// Deps are the collaborators the browse surface renders and drives. Watcher
// and Inspector may be nil; their status line segments go blank.
type Deps struct {
	Navigation *navigation.Coordinator
	Themes     *theme.Coordinator
	Inspector  *gitinfo.Inspector
	Watcher    *watch.Engine
	Log        *logger.Logger
}

type notice struct {
	level NoticeLevel
	title string
	text  string
}

// Model is the browse program state. Coordinator events arrive as messages;
// all mutation happens on the update loop.
type Model struct {
	deps Deps
	log  *logger.Logger

	list    list.Model
	spinner spinner.Model
	styles  Styles

	width  int
	height int

	path         string
	segments     []navigation.BreadcrumbSegment
	canGoBack    bool
	canGoForward bool
	themeName    string

	git   gitinfo.Info
	stats watch.Stats

	loading  bool
	notice   *notice
	showHelp bool
}

// NewModel builds the browse model from the coordinators' current state.
func NewModel(deps Deps) Model {
	styles := StylesFromTheme(deps.Themes.CurrentTheme())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	li := list.New(nil, listDelegate(styles), 0, 0)
	li.SetShowTitle(false)
	li.SetShowStatusBar(false)
	li.SetShowHelp(false)
	li.DisableQuitKeybindings()

	state := deps.Navigation.CurrentState()

	return Model{
		deps:         deps,
		log:          deps.Log.WithComponent("tui"),
		list:         li,
		spinner:      sp,
		styles:       styles,
		path:         state.CurrentPath,
		segments:     state.Segments,
		canGoBack:    state.CanGoBack,
		canGoForward: state.CanGoForward,
		themeName:    deps.Themes.CurrentThemeName(),
		loading:      state.CurrentPath != "",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.path != "" {
		cmds = append(cmds,
			loadEntriesCmd(m.path),
			statusCmd(m.deps.Inspector, m.deps.Watcher, m.path))
	}
	return tea.Batch(cmds...)
}

// CurrentPath returns the directory the model is rendering.
func (m Model) CurrentPath() string { return m.path }

// selectedDir returns the selected entry's path when it is a directory.
func (m Model) selectedDir() (string, bool) {
	item, ok := m.list.SelectedItem().(dirEntry)
	if !ok || !item.isDir {
		return "", false
	}
	return item.path, true
}

// statusCmd gathers the status line inputs off the update loop. The git probe
// is memoized per directory, so redraws stay cheap.
func statusCmd(inspector *gitinfo.Inspector, watcher *watch.Engine, path string) tea.Cmd {
	return func() tea.Msg {
		var msg StatusMsg
		if inspector != nil {
			msg.Git = inspector.Inspect(path)
		}
		if watcher != nil {
			msg.Watch = watcher.Stats()
		}
		return msg
	}
}

func navigateCmd(nav *navigation.Coordinator, path string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{ok: nav.NavigateTo(path, navigation.WithSource(ComponentID))}
	}
}

func goUpCmd(nav *navigation.Coordinator) tea.Cmd {
	return func() tea.Msg { return opDoneMsg{ok: nav.GoUp()} }
}

func goBackCmd(nav *navigation.Coordinator) tea.Cmd {
	return func() tea.Msg { return opDoneMsg{ok: nav.GoBack()} }
}

func goForwardCmd(nav *navigation.Coordinator) tea.Cmd {
	return func() tea.Msg { return opDoneMsg{ok: nav.GoForward()} }
}

// cycleThemeCmd applies the next theme in the available list, wrapping at the
// end. Failures surface through the coordinator's error events.
func cycleThemeCmd(themes *theme.Coordinator) tea.Cmd {
	return func() tea.Msg {
		infos := themes.AvailableThemes()
		if len(infos) == 0 {
			return opDoneMsg{ok: false}
		}
		current := themes.CurrentThemeName()
		next := infos[0].Name
		for i, info := range infos {
			if info.Name == current {
				next = infos[(i+1)%len(infos)].Name
				break
			}
		}
		return opDoneMsg{ok: themes.ApplyTheme(next)}
	}
}
