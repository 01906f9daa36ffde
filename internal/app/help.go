package app

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/theme"
)

// renderHelpMenu renders the keybinding overlay centered in the screen.
// Find bindings are listed only while the find bar is open.
func (m *Model) renderHelpMenu(width, height int) string {
	var lines []string

	for _, section := range config.VisibleSections(m.Find.Visible()) {
		title := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Render(section.Title)
		lines = append(lines, title, renderBindingsTable(section.Bindings), "")
	}

	footer := lipgloss.NewStyle().
		Foreground(theme.HelpGray()).
		Italic(true).
		Render("Press any key to close")
	lines = append(lines, footer)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("14")).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, helpBox)
}

func renderBindingsTable(bindings []config.Keybinding) string {
	rows := make([][]string, 0, len(bindings))
	for _, b := range bindings {
		rows = append(rows, []string{formatKey(b.Key), b.Description})
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("Keys", "Action").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.Render()
}

// formatKey renders a key label as a badge.
func formatKey(key string) string {
	return lipgloss.NewStyle().
		Foreground(theme.HelpKeyBadge()).
		Background(theme.HelpKeyBadgeBg()).
		Bold(true).
		Padding(0, 1).
		Render(key)
}
