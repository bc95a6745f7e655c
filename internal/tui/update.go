package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/viewfinder/viewfinder/internal/navigation"
)

// chromeHeight is the vertical budget of title, breadcrumb, notice, status,
// and footer rows around the entry list.
const chromeHeight = 7

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-2, listHeight(msg.Height))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case NavigationMsg:
		return m.handleNavigation(msg.Event)

	case ThemeMsg:
		m.styles = StylesFromTheme(msg.Theme)
		m.spinner.Style = m.styles.Spinner
		m.list.SetDelegate(listDelegate(m.styles))
		if msg.Theme != nil {
			m.themeName = msg.Theme.Name
		}
		return m, nil

	case EntriesLoadedMsg:
		if msg.Path != m.path {
			return m, nil
		}
		m.loading = false
		return m, m.list.SetItems(msg.Items)

	case EntriesErrorMsg:
		if msg.Path != m.path {
			return m, nil
		}
		m.loading = false
		m.notice = &notice{level: NoticeError, title: "Listing failed", text: msg.Err.Error()}
		return m, nil

	case StatusMsg:
		m.git = msg.Git
		m.stats = msg.Watch
		return m, nil

	case NoticeMsg:
		m.notice = &notice{level: msg.Level, title: msg.Title, text: msg.Text}
		return m, nil

	case ClearNoticeMsg:
		m.notice = nil
		return m, nil

	case opDoneMsg:
		return m.resync()
	}

	return m, nil
}

// handleNavigation folds a coordinator event into the model. Navigations the
// surface initiated itself do not arrive here; resync covers those.
func (m Model) handleNavigation(event navigation.Event) (tea.Model, tea.Cmd) {
	switch event.Kind {
	case navigation.EventNavigate:
		if !event.Success {
			return m, nil
		}
		if event.Path == m.path {
			state := m.deps.Navigation.CurrentState()
			m.canGoBack = state.CanGoBack
			m.canGoForward = state.CanGoForward
			return m, nil
		}
		next, cmd := m.moveTo(event.Path)
		if event.FallbackFrom != "" {
			next.notice = &notice{
				level: NoticeWarning,
				title: "Redirected",
				text:  event.FallbackFrom + " is not accessible",
			}
		}
		return next, cmd

	case navigation.EventRefresh:
		if event.Path != m.path {
			return m, nil
		}
		return m, tea.Batch(
			loadEntriesCmd(m.path),
			statusCmd(m.deps.Inspector, m.deps.Watcher, m.path))

	case navigation.EventHistory:
		state := m.deps.Navigation.CurrentState()
		m.canGoBack = state.CanGoBack
		m.canGoForward = state.CanGoForward
		return m, nil
	}
	return m, nil
}

// resync re-reads the coordinator state after an operation this surface
// started, since its own navigations are excluded from the fan-out.
func (m Model) resync() (tea.Model, tea.Cmd) {
	state := m.deps.Navigation.CurrentState()
	m.canGoBack = state.CanGoBack
	m.canGoForward = state.CanGoForward

	// A failed barrier can still leave the coordinator on a new path, so
	// the landing directory wins over the ok flag.
	if state.CurrentPath == m.path {
		m.loading = false
		return m, nil
	}
	return m.moveTo(state.CurrentPath)
}

// moveTo points the model at a new directory and schedules its listing.
func (m Model) moveTo(path string) (Model, tea.Cmd) {
	m.path = path
	m.segments = navigation.GenerateSegments(path, navigation.MaxVisibleSegments)
	m.loading = true
	m.notice = nil

	state := m.deps.Navigation.CurrentState()
	m.canGoBack = state.CanGoBack
	m.canGoForward = state.CanGoForward

	m.list.ResetFilter()
	return m, tea.Batch(
		loadEntriesCmd(path),
		statusCmd(m.deps.Inspector, m.deps.Watcher, path),
		m.spinner.Tick)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	// While the list filter is open it owns the keyboard.
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "enter":
		target, ok := m.selectedDir()
		if !ok {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(navigateCmd(m.deps.Navigation, target), m.spinner.Tick)

	case "backspace", "left":
		m.loading = true
		return m, tea.Batch(goUpCmd(m.deps.Navigation), m.spinner.Tick)

	case "b":
		if !m.canGoBack {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(goBackCmd(m.deps.Navigation), m.spinner.Tick)

	case "f":
		if !m.canGoForward {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(goForwardCmd(m.deps.Navigation), m.spinner.Tick)

	case "t":
		return m, cycleThemeCmd(m.deps.Themes)

	case "r":
		if m.path == "" {
			return m, nil
		}
		return m, tea.Batch(
			loadEntriesCmd(m.path),
			statusCmd(m.deps.Inspector, m.deps.Watcher, m.path))

	case "?":
		m.showHelp = true
		return m, nil

	case "esc":
		if m.notice != nil {
			m.notice = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func listHeight(total int) int {
	h := total - chromeHeight
	if h < 3 {
		h = 3
	}
	return h
}
