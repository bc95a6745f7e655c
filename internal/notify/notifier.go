// Package notify defines the user-facing notification collaborator. It is a
// separate channel from the coordinators' error listeners: every fallback the
// core performs surfaces exactly one notification telling the user why the
// view changed.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/viewfinder/viewfinder/internal/logger"
)

// Notifier receives user-facing messages.
type Notifier interface {
	Info(title, message string)
	Warning(title, message string)
	Error(title, message string)
}

// ThemeError reports a theme fallback to the user.
func ThemeError(n Notifier, theme, message string) {
	if n == nil {
		return
	}
	n.Error("Theme Error", fmt.Sprintf("theme %q could not be applied: %s", theme, message))
}

// NavigationError reports a navigation fallback to the user.
func NavigationError(n Notifier, path, message string) {
	if n == nil {
		return
	}
	n.Error("Navigation Error", fmt.Sprintf("cannot open %q: %s", path, message))
}

// LogNotifier routes notifications into the structured log. It is the default
// sink when no interactive surface is attached.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier writing through log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithComponent("notify")}
}

func (n *LogNotifier) Info(title, message string) {
	n.log.Info(message, "notification", title)
}

func (n *LogNotifier) Warning(title, message string) {
	n.log.Warn(message, "notification", title)
}

func (n *LogNotifier) Error(title, message string) {
	n.log.Error(nil, message, "notification", title)
}

var (
	infoTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	warnTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	errorTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// ConsoleNotifier prints styled notifications, used by the CLI commands.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing styled lines to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Info(title, message string) {
	n.write(infoTitleStyle, title, message)
}

func (n *ConsoleNotifier) Warning(title, message string) {
	n.write(warnTitleStyle, title, message)
}

func (n *ConsoleNotifier) Error(title, message string) {
	n.write(errorTitleStyle, title, message)
}

func (n *ConsoleNotifier) write(style lipgloss.Style, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s\n", style.Render(title+":"), message)
}
