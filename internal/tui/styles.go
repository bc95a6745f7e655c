package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/viewfinder/viewfinder/internal/theme"
)

// Styles is the rendered form of a theme's color scheme. A new set is derived
// every time the theme coordinator pushes a configuration.
type Styles struct {
	Title          lipgloss.Style
	TitleTheme     lipgloss.Style
	Crumb          lipgloss.Style
	CrumbCurrent   lipgloss.Style
	CrumbEllipsis  lipgloss.Style
	CrumbSeparator lipgloss.Style
	Status         lipgloss.Style
	StatusGit      lipgloss.Style
	NoticeInfo     lipgloss.Style
	NoticeWarning  lipgloss.Style
	NoticeError    lipgloss.Style
	Footer         lipgloss.Style
	HelpTitle      lipgloss.Style
	HelpKey        lipgloss.Style
	HelpDesc       lipgloss.Style
	Empty          lipgloss.Style
	Spinner        lipgloss.Style

	scheme theme.ColorScheme
}

// DefaultStyles derives styles from the builtin default theme, for use before
// the coordinator has pushed anything.
func DefaultStyles() Styles {
	cfg, _ := theme.Builtin(theme.DefaultThemeName)
	return StylesFromTheme(cfg)
}

// StylesFromTheme converts a theme configuration into lipgloss styles. A nil
// configuration yields the defaults.
func StylesFromTheme(cfg *theme.Configuration) Styles {
	if cfg == nil {
		return DefaultStyles()
	}

	scheme := cfg.Colors
	primary := lipgloss.Color(scheme.Primary)
	secondary := lipgloss.Color(scheme.Secondary)
	accent := lipgloss.Color(scheme.Accent)
	text := lipgloss.Color(scheme.TextPrimary)
	muted := lipgloss.Color(scheme.TextSecondary)
	surface := lipgloss.Color(scheme.Surface)

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			PaddingLeft(1).
			PaddingRight(1),

		TitleTheme: lipgloss.NewStyle().
			Foreground(muted).
			PaddingRight(1),

		Crumb: lipgloss.NewStyle().
			Foreground(secondary),

		CrumbCurrent: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		CrumbEllipsis: lipgloss.NewStyle().
			Foreground(muted),

		CrumbSeparator: lipgloss.NewStyle().
			Foreground(muted),

		Status: lipgloss.NewStyle().
			Foreground(muted),

		StatusGit: lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Success)),

		NoticeInfo: lipgloss.NewStyle().
			Foreground(primary).
			Background(surface).
			Padding(0, 1),

		NoticeWarning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Warning)).
			Background(surface).
			Bold(true).
			Padding(0, 1),

		NoticeError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(scheme.Error)).
			Background(surface).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(muted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(muted),

		HelpTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1),

		HelpKey: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Width(14),

		HelpDesc: lipgloss.NewStyle().
			Foreground(text),

		Empty: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true).
			PaddingTop(2).
			PaddingBottom(2),

		Spinner: lipgloss.NewStyle().
			Foreground(accent),

		scheme: scheme,
	}
}

// listDelegate builds the entry list delegate tinted by the active theme.
func listDelegate(s Styles) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	accent := lipgloss.Color(s.scheme.Accent)
	text := lipgloss.Color(s.scheme.TextPrimary)
	muted := lipgloss.Color(s.scheme.TextSecondary)

	d.Styles.NormalTitle = d.Styles.NormalTitle.Foreground(text)
	d.Styles.NormalDesc = d.Styles.NormalDesc.Foreground(muted)
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(accent).
		BorderLeftForeground(accent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.
		Foreground(muted).
		BorderLeftForeground(accent)
	d.Styles.DimmedTitle = d.Styles.DimmedTitle.Foreground(muted)
	d.Styles.DimmedDesc = d.Styles.DimmedDesc.Foreground(muted)

	return d
}
