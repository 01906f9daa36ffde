package app

import (
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
)

const wheelLines = 3

// bodyTop is the screen row of the first buffer line.
func (m *Model) bodyTop() int {
	if m.Find.Visible() {
		return 1
	}
	return 0
}

// bodyHeight is the number of buffer lines on screen. The last row holds
// the status line.
func (m *Model) bodyHeight() int {
	return max(1, m.Height-m.bodyTop()-1)
}

// ScrollBy scrolls the body by delta lines.
func (m *Model) ScrollBy(delta int) {
	m.scroll += delta
	m.clampScroll()
}

// Scroll returns the first buffer line on screen.
func (m *Model) Scroll() int { return m.scroll }

func (m *Model) clampScroll() {
	maxScroll := max(0, m.Surface.LineCount()-m.bodyHeight())
	m.scroll = max(0, min(m.scroll, maxScroll))
}

// cellToPosition maps a screen cell inside the body to a buffer position.
func (m *Model) cellToPosition(x, y int) terminal.Position {
	line := m.scroll + y - m.bodyTop()
	return terminal.Position{Line: line, Col: columnAt(m.Surface.Line(line), x)}
}

// columnAt returns the rune column of line displayed at cell x.
func columnAt(line string, x int) int {
	if x <= 0 {
		return 0
	}
	width := 0
	col := 0
	for _, r := range line {
		w := ansi.StringWidth(string(r))
		if width+w > x {
			return col
		}
		width += w
		col++
	}
	return col
}

func (m *Model) handleMouseClick(msg tea.MouseClickMsg) tea.Cmd {
	mouse := msg.Mouse()

	if m.Prompt != nil || m.ShowHelp {
		return nil
	}

	if m.Find.Visible() && mouse.Y == 0 {
		if mouse.Button == tea.MouseLeft {
			m.Find.FocusInput()
		}
		return nil
	}
	if mouse.Y >= m.bodyTop()+m.bodyHeight() {
		return nil
	}

	switch mouse.Button {
	case tea.MouseLeft:
		m.Find.Blur()
		m.Surface.Focus()
		m.Surface.BeginSelection(m.cellToPosition(mouse.X, mouse.Y))
		m.dragging = true
		return nil
	case tea.MouseMiddle, tea.MouseRight:
		return m.Clip.HandleMouseClick(mouse.Button)
	}
	return nil
}

func (m *Model) handleMouseMotion(msg tea.MouseMotionMsg) {
	if !m.dragging {
		return
	}
	mouse := msg.Mouse()
	y := mouse.Y
	// Dragging past the edges scrolls.
	if y < m.bodyTop() {
		m.ScrollBy(-1)
		y = m.bodyTop()
	} else if last := m.bodyTop() + m.bodyHeight() - 1; y > last {
		m.ScrollBy(1)
		y = last
	}
	m.Surface.ExtendSelection(m.cellToPosition(mouse.X, y))
}

func (m *Model) handleMouseRelease(msg tea.MouseReleaseMsg) {
	if !m.dragging {
		return
	}
	m.dragging = false
	m.Surface.EndSelection()
}

func (m *Model) handleMouseWheel(msg tea.MouseWheelMsg) {
	switch msg.Mouse().Button {
	case tea.MouseWheelUp:
		m.ScrollBy(-wheelLines)
	case tea.MouseWheelDown:
		m.ScrollBy(wheelLines)
	}
}
