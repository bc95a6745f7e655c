package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/viewfinder/viewfinder/internal/events"
	"github.com/viewfinder/viewfinder/internal/navigation"
	"github.com/viewfinder/viewfinder/internal/theme"
)

// Run drives the browse surface until the user quits. The coordinators keep
// running; Run only bridges their callbacks onto the program's message loop
// for the duration of the session.
func Run(deps Deps) error {
	program := tea.NewProgram(NewModel(deps), tea.WithAltScreen())

	// Registration replays the current state synchronously, which would
	// block Send before the loop drains, so the bridges attach from a
	// separate goroutine.
	var subs []events.Subscription
	bridged := make(chan struct{})
	go func() {
		defer close(bridged)

		deps.Navigation.RegisterComponent(ComponentID, navigation.ComponentFunc(func(event navigation.Event) error {
			program.Send(NavigationMsg{Event: event})
			return nil
		}))
		deps.Themes.RegisterComponent(ComponentID, theme.ComponentFunc(func(cfg *theme.Configuration) error {
			program.Send(ThemeMsg{Theme: cfg})
			return nil
		}))

		subs = append(subs, deps.Navigation.OnError(func(event navigation.Event) {
			program.Send(NoticeMsg{
				Level: NoticeError,
				Title: "Navigation failed",
				Text:  event.Path + " could not be opened",
			})
		}))
		subs = append(subs, deps.Themes.OnError(func(event theme.ChangeEvent) {
			program.Send(NoticeMsg{
				Level: NoticeError,
				Title: "Theme failed",
				Text:  event.NewTheme + ": " + event.Error,
			})
		}))
	}()

	_, err := program.Run()

	<-bridged
	deps.Navigation.UnregisterComponent(ComponentID)
	deps.Themes.UnregisterComponent(ComponentID)
	for _, sub := range subs {
		sub.Unsubscribe()
	}
	return err
}
