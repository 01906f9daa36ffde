package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/Gaurav-Gosain/clipfind/internal/pasteguard"
)

// ActionHandler handles a named action.
type ActionHandler func(msg tea.KeyPressMsg, m *Model) tea.Cmd

// ActionDispatcher maps action names to handler functions
type ActionDispatcher struct {
	handlers map[string]ActionHandler
}

// NewActionDispatcher creates a new action dispatcher with all handlers registered
func NewActionDispatcher() *ActionDispatcher {
	d := &ActionDispatcher{
		handlers: make(map[string]ActionHandler),
	}
	d.registerHandlers()
	return d
}

func (d *ActionDispatcher) registerHandlers() {
	// Find actions
	d.Register("find_reveal", handleFindReveal)
	d.Register("find_hide", handleFindHide)
	d.Register("find_next", handleFindNext)
	d.Register("find_previous", handleFindPrevious)
	d.Register("find_toggle_regex", handleToggleRegex)
	d.Register("find_toggle_whole_word", handleToggleWholeWord)
	d.Register("find_toggle_case", handleToggleCase)
	d.Register("find_toggle_focus", handleToggleFindFocus)

	// Clipboard actions
	d.Register("copy", handleCopy)
	d.Register("copy_html", handleCopyHTML)
	d.Register("paste", handlePaste)
	d.Register("paste_selection", handlePasteSelection)
	d.Register("clear_selection", handleClearSelection)

	// Navigation actions
	d.Register("scroll_up", makeScrollHandler(-1))
	d.Register("scroll_down", makeScrollHandler(1))
	d.Register("page_up", handlePageUp)
	d.Register("page_down", handlePageDown)
	d.Register("scroll_top", handleScrollTop)
	d.Register("scroll_bottom", handleScrollBottom)

	// Mode control actions
	d.Register("toggle_help", handleToggleHelp)
	d.Register("quit", handleQuit)
}

// Register adds an action handler
func (d *ActionDispatcher) Register(action string, handler ActionHandler) {
	d.handlers[action] = handler
}

// Dispatch executes the handler for a given action
func (d *ActionDispatcher) Dispatch(action string, msg tea.KeyPressMsg, m *Model) tea.Cmd {
	if handler, ok := d.handlers[action]; ok {
		return handler(msg, m)
	}
	return nil
}

// HasAction checks if an action is registered
func (d *ActionDispatcher) HasAction(action string) bool {
	_, ok := d.handlers[action]
	return ok
}

// viewerKeys apply while the surface (or the find widget without its
// input) has focus.
var viewerKeys = map[string]string{
	"ctrl+f":       "find_reveal",
	"/":            "find_reveal",
	"enter":        "find_next",
	"shift+enter":  "find_previous",
	"n":            "find_next",
	"N":            "find_previous",
	"alt+r":        "find_toggle_regex",
	"alt+w":        "find_toggle_whole_word",
	"alt+c":        "find_toggle_case",
	"tab":          "find_toggle_focus",
	"esc":          "find_hide",
	"y":            "copy",
	"ctrl+shift+c": "copy",
	"ctrl+shift+h": "copy_html",
	"ctrl+v":       "paste",
	"ctrl+shift+v": "paste_selection",
	"up":           "scroll_up",
	"k":            "scroll_up",
	"down":         "scroll_down",
	"j":            "scroll_down",
	"pgup":         "page_up",
	"pgdown":       "page_down",
	"home":         "scroll_top",
	"g":            "scroll_top",
	"end":          "scroll_bottom",
	"G":            "scroll_bottom",
	"?":            "toggle_help",
	"q":            "quit",
	"ctrl+c":       "quit",
}

// findInputKeys apply while the find input has focus. Other keys with
// text edit the query.
var findInputKeys = map[string]string{
	"enter":       "find_next",
	"down":        "find_next",
	"shift+enter": "find_previous",
	"up":          "find_previous",
	"alt+r":       "find_toggle_regex",
	"alt+w":       "find_toggle_whole_word",
	"alt+c":       "find_toggle_case",
	"tab":         "find_toggle_focus",
	"esc":         "find_hide",
	"ctrl+c":      "quit",
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()

	if m.Prompt != nil {
		return m.handlePromptKey(key)
	}
	if m.ShowHelp && key != "ctrl+c" {
		m.ShowHelp = false
		return nil
	}

	if m.Find.InputFocused() {
		if action, ok := findInputKeys[key]; ok {
			return m.dispatcher.Dispatch(action, msg, m)
		}
		return m.editQuery(msg)
	}

	if action, ok := viewerKeys[key]; ok {
		return m.dispatcher.Dispatch(action, msg, m)
	}
	return nil
}

func (m *Model) editQuery(msg tea.KeyPressMsg) tea.Cmd {
	query := []rune(m.Find.Query())
	switch msg.String() {
	case "backspace":
		if len(query) == 0 {
			return nil
		}
		return m.Find.SetQuery(string(query[:len(query)-1]))
	case "ctrl+u":
		return m.Find.SetQuery("")
	case "ctrl+w":
		i := len(query)
		for i > 0 && query[i-1] == ' ' {
			i--
		}
		for i > 0 && query[i-1] != ' ' {
			i--
		}
		return m.Find.SetQuery(string(query[:i]))
	case "ctrl+v":
		return m.pasteIntoFind()
	}
	if text := msg.Key().Text; text != "" {
		return m.Find.SetQuery(string(query) + text)
	}
	return nil
}

func (m *Model) handlePromptKey(key string) tea.Cmd {
	var choice pasteguard.Choice
	switch key {
	case "y", "enter":
		choice = pasteguard.ChoicePaste
	case "s":
		choice = pasteguard.ChoiceSingleLine
	case "n", "esc", "ctrl+c":
		choice = pasteguard.ChoiceCancel
	default:
		return nil
	}
	m.Prompt.Answer(choice)
	m.Prompt = nil
	return nil
}

// ============================================================================
// Find Action Handlers
// ============================================================================

func handleFindReveal(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	return m.Find.Reveal("")
}

func handleFindHide(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	if m.Find.Visible() {
		m.Find.Hide()
		return nil
	}
	m.Surface.ClearSelection()
	return nil
}

func handleFindNext(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	if !m.Find.Visible() {
		return nil
	}
	return m.Find.Find(false, false)
}

func handleFindPrevious(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	if !m.Find.Visible() {
		return nil
	}
	return m.Find.Find(true, false)
}

func handleToggleRegex(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	if !m.Find.Visible() {
		return nil
	}
	return m.Find.ToggleRegex()
}

func handleToggleWholeWord(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	if !m.Find.Visible() {
		return nil
	}
	return m.Find.ToggleWholeWord()
}

func handleToggleCase(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	if !m.Find.Visible() {
		return nil
	}
	return m.Find.ToggleCaseSensitive()
}

func handleToggleFindFocus(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	switch {
	case m.Find.InputFocused():
		m.Find.BlurInput()
		m.Find.FocusWidget()
	case m.Find.Visible():
		m.Find.FocusInput()
	}
	return nil
}

// ============================================================================
// Clipboard Action Handlers
// ============================================================================

func handleCopy(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	return m.Clip.CopySelection(false, "key")
}

func handleCopyHTML(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	m.Surface.RequestCopyAsHTML()
	return nil
}

func handlePaste(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	return m.Clip.Paste()
}

func handlePasteSelection(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	return m.Clip.PasteFromSelectionClipboard()
}

func handleClearSelection(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	m.Surface.ClearSelection()
	return nil
}

// ============================================================================
// Navigation Action Handlers
// ============================================================================

func makeScrollHandler(delta int) ActionHandler {
	return func(_ tea.KeyPressMsg, m *Model) tea.Cmd {
		m.ScrollBy(delta)
		return nil
	}
}

func handlePageUp(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	m.ScrollBy(-m.bodyHeight())
	return nil
}

func handlePageDown(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	m.ScrollBy(m.bodyHeight())
	return nil
}

func handleScrollTop(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	m.scroll = 0
	return nil
}

func handleScrollBottom(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	m.scroll = m.Surface.LineCount()
	m.clampScroll()
	return nil
}

// ============================================================================
// Mode Control Action Handlers
// ============================================================================

func handleToggleHelp(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	m.ShowHelp = !m.ShowHelp
	return nil
}

func handleQuit(_ tea.KeyPressMsg, m *Model) tea.Cmd {
	if m.Prompt != nil {
		m.Prompt.Answer(pasteguard.ChoiceCancel)
		m.Prompt = nil
	}
	m.Close()
	return tea.Quit
}
