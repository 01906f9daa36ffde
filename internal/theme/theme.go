// Package theme provides the highlight and chrome colors of the viewer.
package theme

import (
	"fmt"
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
	tint "github.com/lrstanley/bubbletint/v2"
)

var (
	mu       sync.RWMutex
	enabled  bool
	name     string
	registry sync.Once
)

// Initialize sets the theme by name. If themeName is empty, theming is
// disabled and standard terminal colors are used. Unknown names fall back
// to the default tint. It may be called again when the configuration changes.
func Initialize(themeName string) error {
	mu.Lock()
	defer mu.Unlock()

	name = themeName
	if themeName == "" {
		enabled = false
		return nil
	}

	registry.Do(func() { tint.NewDefaultRegistry() })
	enabled = true

	if !tint.SetTintID(themeName) {
		tint.SetTintID("default")
		return fmt.Errorf("unknown theme %q, using default", themeName)
	}
	return nil
}

// IsEnabled returns true if theming is enabled
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Name returns the configured theme name.
func Name() string {
	mu.RLock()
	defer mu.RUnlock()
	return name
}

// Current returns the currently active theme.
// Returns nil if theming is disabled.
func Current() *tint.Tint {
	if !IsEnabled() {
		return nil
	}
	return tint.Current()
}

// Search highlight colors
func SearchMatchActive() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ff00ff"), lipgloss.Color("#000000")
	}
	return t.BrightPurple, t.Black
}

func SearchMatchOther() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ffff00"), lipgloss.Color("#000000")
	}
	return t.Yellow, t.Black
}

func Selection() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#cd00cd"), lipgloss.Color("#ffffff")
	}
	return t.Purple, t.BrightWhite
}

// Find bar colors
func FindBar() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#2a2a3e"), lipgloss.Color("#e5e5e5")
	}
	return t.BrightBlack, t.Fg
}

func FindBarToggleOn() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00ffff")
	}
	return t.BrightCyan
}

func FindBarToggleOff() color.Color {
	return lipgloss.Color("#808080")
}

func FindBarNoResults() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ff6b6b")
	}
	return t.BrightRed
}

func FindBarCursor() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00ff00")
	}
	return t.Cursor
}

// Notification colors
func NotificationError() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#cd0000")
	}
	return t.Red
}

func NotificationWarning() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#cdcd00")
	}
	return t.Yellow
}

func NotificationSuccess() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00cd00")
	}
	return t.Green
}

func NotificationInfo() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#0000ee")
	}
	return t.Blue
}

func NotificationFg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#e5e5e5")
	}
	return t.Fg
}

// NotificationColor maps a notification kind to its color.
func NotificationColor(kind string) color.Color {
	switch kind {
	case "error":
		return NotificationError()
	case "warning":
		return NotificationWarning()
	case "success":
		return NotificationSuccess()
	default:
		return NotificationInfo()
	}
}

// Paste prompt and help overlay
func PromptBorder() color.Color {
	return NotificationWarning()
}

func HelpKeyBadge() color.Color {
	return lipgloss.Color("#ffffff")
}

func HelpKeyBadgeBg() color.Color {
	return lipgloss.Color("#5c5cff")
}

func HelpGray() color.Color {
	return lipgloss.Color("#808080")
}

// ColorToString converts a color.Color to a hex string
func ColorToString(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns values in range 0-65535, convert to 0-255
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
