package config

// Keybinding represents a single keybinding entry
type Keybinding struct {
	Key         string
	Description string
}

// KeybindingSection represents a section of related keybindings
type KeybindingSection struct {
	Title     string
	Condition string // Empty for always shown, "find" while the find bar is visible
	Bindings  []Keybinding
}

// GetKeybindings returns all keybinding sections for the help overlay
func GetKeybindings() []KeybindingSection {
	return []KeybindingSection{
		{
			Title: "Viewer",
			Bindings: []Keybinding{
				{"Ctrl+F", "Find"},
				{"y / Ctrl+Shift+C", "Copy selection"},
				{"Ctrl+Shift+H", "Copy selection as HTML"},
				{"Ctrl+V", "Paste"},
				{"Ctrl+Shift+V", "Paste selection clipboard"},
				{"Up/Down, PgUp/PgDn", "Scroll"},
				{"?", "Toggle help"},
				{"q", "Quit"},
			},
		},
		{
			Title:     "Find",
			Condition: "find",
			Bindings: []Keybinding{
				{"Enter", "Next match"},
				{"Shift+Enter", "Previous match"},
				{"Alt+R", "Toggle regex"},
				{"Alt+W", "Toggle whole word"},
				{"Alt+C", "Toggle case sensitive"},
				{"Tab", "Toggle input focus"},
				{"Esc", "Close find"},
			},
		},
		{
			Title: "Mouse",
			Bindings: []Keybinding{
				{"Drag", "Select text"},
				{"Middle click", "Paste (terminal.middle_click_behavior)"},
				{"Right click", "Copy or paste (terminal.right_click_behavior)"},
				{"Wheel", "Scroll"},
			},
		},
	}
}

// VisibleSections filters sections by condition.
func VisibleSections(findVisible bool) []KeybindingSection {
	var out []KeybindingSection
	for _, s := range GetKeybindings() {
		if s.Condition == "find" && !findVisible {
			continue
		}
		out = append(out, s)
	}
	return out
}
