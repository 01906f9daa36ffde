package app

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
	"github.com/Gaurav-Gosain/clipfind/internal/theme"
)

// View returns the rendered view.
func (m *Model) View() tea.View {
	var view tea.View

	view.SetContent(m.render())

	view.AltScreen = true
	view.MouseMode = tea.MouseModeAllMotion
	view.ReportFocus = true
	view.WindowTitle = m.windowTitle()

	return view
}

func (m *Model) windowTitle() string {
	if m.Title == "" {
		return "clipfind"
	}
	return "clipfind - " + m.Title
}

func (m *Model) render() string {
	if m.Width <= 0 || m.Height <= 0 {
		return ""
	}
	if m.ShowHelp {
		return m.renderHelpMenu(m.Width, m.Height)
	}

	var rows []string
	if m.Find.Visible() {
		rows = append(rows, m.renderFindBar())
	}
	if m.Prompt != nil {
		rows = append(rows, m.renderPrompt(m.Width, m.bodyHeight()))
	} else {
		rows = append(rows, m.renderBody()...)
	}
	rows = append(rows, m.renderStatusLine())

	return strings.Join(rows, "\n")
}

// ============================================================================
// Body
// ============================================================================

type cellKind int

const (
	cellPlain cellKind = iota
	cellMatch
	cellSelection
	cellActiveMatch
)

func (m *Model) renderBody() []string {
	height := m.bodyHeight()
	rows := make([]string, 0, height)

	activeBg, activeFg := theme.SearchMatchActive()
	otherBg, otherFg := theme.SearchMatchOther()
	selBg, selFg := theme.Selection()
	styles := map[cellKind]lipgloss.Style{
		cellPlain:       lipgloss.NewStyle(),
		cellMatch:       lipgloss.NewStyle().Background(otherBg).Foreground(otherFg),
		cellSelection:   lipgloss.NewStyle().Background(selBg).Foreground(selFg),
		cellActiveMatch: lipgloss.NewStyle().Background(activeBg).Foreground(activeFg).Bold(true),
	}

	sel, hasSel := m.Surface.Selection()
	for i := range height {
		y := m.scroll + i
		if y >= m.Surface.LineCount() {
			rows = append(rows, "")
			continue
		}
		line := ansi.Truncate(m.Surface.Line(y), m.Width, "")
		kinds := m.classifyLine(y, []rune(line), sel, hasSel)
		rows = append(rows, renderRuns([]rune(line), kinds, styles))
	}
	return rows
}

// classifyLine decides the highlight of every rune on line y. The active
// match wins over the selection, which wins over the other matches.
func (m *Model) classifyLine(y int, runes []rune, sel terminal.Range, hasSel bool) []cellKind {
	kinds := make([]cellKind, len(runes))

	matches, active := m.Engine.DecorationsOnLine(y)
	for i, match := range matches {
		kind := cellMatch
		if i == active {
			kind = cellActiveMatch
		}
		for col := match.Start; col < match.End && col < len(kinds); col++ {
			if kind > kinds[col] {
				kinds[col] = kind
			}
		}
	}

	if hasSel {
		for col := range kinds {
			if sel.Contains(terminal.Position{Line: y, Col: col}) && kinds[col] < cellSelection {
				kinds[col] = cellSelection
			}
		}
	}
	return kinds
}

func renderRuns(runes []rune, kinds []cellKind, styles map[cellKind]lipgloss.Style) string {
	var b strings.Builder
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && kinds[i] == kinds[start] {
			continue
		}
		segment := string(runes[start:i])
		if kinds[start] == cellPlain {
			b.WriteString(segment)
		} else {
			b.WriteString(styles[kinds[start]].Render(segment))
		}
		start = i
	}
	return b.String()
}

// ============================================================================
// Find bar
// ============================================================================

func (m *Model) renderFindBar() string {
	bg, fg := theme.FindBar()
	base := lipgloss.NewStyle().Background(bg).Foreground(fg)

	query := m.Find.Query()
	if m.Find.InputFocused() {
		cursor := lipgloss.NewStyle().Background(theme.FindBarCursor()).Render(" ")
		query = base.Render(query) + cursor
	} else {
		query = base.Render(query)
	}

	opts := m.Find.SearchOptions()
	toggles := strings.Join([]string{
		renderToggle(".*", opts.Regex, bg),
		renderToggle("ab", opts.WholeWord, bg),
		renderToggle("Aa", opts.CaseSensitive, bg),
	}, base.Render(" "))

	left := base.Render(" Find: ") + query
	right := toggles + base.Render("  "+m.findStatus()+" ")
	if m.findStatusIsError() {
		right = toggles + base.Render("  ") +
			base.Foreground(theme.FindBarNoResults()).Render(m.findStatus()) + base.Render(" ")
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left+base.Render(" ")+right, m.Width, "")
	}
	return left + base.Render(strings.Repeat(" ", gap)) + right
}

func renderToggle(label string, on bool, bg color.Color) string {
	style := lipgloss.NewStyle().Background(bg)
	if on {
		return style.Foreground(theme.FindBarToggleOn()).Bold(true).Render("[" + label + "]")
	}
	return style.Foreground(theme.FindBarToggleOff()).Render("[" + label + "]")
}

// findStatus describes the result counters next to the toggles.
func (m *Model) findStatus() string {
	if m.Find.Err() != nil {
		return "Invalid pattern"
	}
	if m.Find.Query() == "" {
		return ""
	}
	index, count := m.Find.Results()
	switch {
	case count == 0:
		return "No results"
	case index < 0:
		return fmt.Sprintf("? of %d", count)
	default:
		return fmt.Sprintf("%d of %d", index+1, count)
	}
}

func (m *Model) findStatusIsError() bool {
	if m.Find.Err() != nil {
		return true
	}
	_, count := m.Find.Results()
	return m.Find.Query() != "" && count == 0
}

// ============================================================================
// Status line
// ============================================================================

func (m *Model) renderStatusLine() string {
	base := lipgloss.NewStyle().Reverse(true)

	left := " " + m.windowTitle()
	if len(m.Notifications) > 0 {
		n := m.Notifications[len(m.Notifications)-1]
		badge := lipgloss.NewStyle().
			Background(theme.NotificationColor(n.Type)).
			Foreground(theme.NotificationFg()).
			Padding(0, 1).
			Render(n.Message)
		left = base.Render(left+" ") + badge
	} else {
		left = base.Render(left)
	}

	var parts []string
	if m.Store.Bool(config.KeyCopyOnSelection) {
		parts = append(parts, "copy-on-select")
	}
	if value, held := m.Clip.CopyOnSelectionOverride(); held {
		parts = append(parts, fmt.Sprintf("override=%t", value))
	}
	if m.input.total > 0 {
		parts = append(parts, fmt.Sprintf("pasted %dB", m.input.total))
	}
	parts = append(parts, fmt.Sprintf("%d/%d", min(m.scroll+m.bodyHeight(), m.Surface.LineCount()), m.Surface.LineCount()))
	parts = append(parts, "? help")
	right := base.Render(strings.Join(parts, "  ") + " ")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		return ansi.Truncate(left+right, m.Width, "")
	}
	return left + base.Render(strings.Repeat(" ", gap)) + right
}

// ============================================================================
// Paste prompt
// ============================================================================

func (m *Model) renderPrompt(width, height int) string {
	p := m.Prompt.Prompt

	title := lipgloss.NewStyle().
		Bold(true).
		Render(fmt.Sprintf("Paste %d lines?", p.Lines))

	previewWidth := max(10, min(60, width-8))
	var preview []string
	for line := range strings.SplitSeq(p.Preview, "\n") {
		preview = append(preview, ansi.Truncate(line, previewWidth, "…"))
	}
	body := lipgloss.NewStyle().
		Foreground(theme.HelpGray()).
		Render(strings.Join(preview, "\n"))

	options := strings.Join([]string{
		formatKey("y") + " Paste",
		formatKey("s") + " Paste as one line",
		formatKey("n") + " Cancel",
	}, "  ")

	dialog := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.PromptBorder()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", options))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, dialog)
}
