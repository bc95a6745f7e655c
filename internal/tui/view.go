package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	sections := []string{
		m.renderTitle(),
		renderBreadcrumb(m.segments, m.styles, m.width),
	}
	if m.notice != nil {
		sections = append(sections, m.renderNotice())
	}
	sections = append(sections,
		m.renderEntries(),
		m.renderStatus(),
		m.renderFooter(),
	)
	return strings.Join(sections, "\n")
}

func (m Model) renderTitle() string {
	title := m.styles.Title.Render("Viewfinder")
	if m.themeName == "" {
		return title
	}
	return title + "  " + m.styles.TitleTheme.Render("theme: "+m.themeName)
}

func (m Model) renderNotice() string {
	n := m.notice
	style := m.styles.NoticeInfo
	switch n.level {
	case NoticeWarning:
		style = m.styles.NoticeWarning
	case NoticeError:
		style = m.styles.NoticeError
	}
	line := n.title
	if n.text != "" {
		line += ": " + n.text
	}
	return style.Render(line)
}

func (m Model) renderEntries() string {
	if m.loading {
		return m.spinner.View() + " Reading " + m.path
	}
	if len(m.list.Items()) == 0 {
		return m.styles.Empty.Render("No entries")
	}
	return m.list.View()
}

func (m Model) renderStatus() string {
	parts := []string{fmt.Sprintf("%d entries", len(m.list.Items()))}

	if git := m.git.Summary(); git != "" {
		parts = append(parts, m.styles.StatusGit.Render("git "+git))
	}
	if m.stats.RawEvents > 0 {
		parts = append(parts, fmt.Sprintf("watch %d/%d", m.stats.Delivered, m.stats.RawEvents))
	}
	return m.styles.Status.Render(strings.Join(parts, "   "))
}

func (m Model) renderFooter() string {
	hints := []string{
		"enter: open",
		"backspace: up",
		"b/f: history",
		"t: theme",
		"/: filter",
		"?: help",
		"q: quit",
	}
	return m.styles.Footer.Render(strings.Join(hints, "  •  "))
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"enter", "open the selected directory"},
		{"backspace, left", "go to the parent directory"},
		{"b", "go back in history"},
		{"f", "go forward in history"},
		{"t", "cycle through available themes"},
		{"r", "reload the current directory"},
		{"/", "filter entries"},
		{"esc", "dismiss notice or filter"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(m.styles.HelpTitle.Render("Keys"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString("  ")
		b.WriteString(m.styles.HelpKey.Render(fmt.Sprintf("%-16s", row[0])))
		b.WriteString(m.styles.HelpDesc.Render(row[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("press ? to return"))
	return b.String()
}
