// Package config provides configuration constants and user settings.
package config

import "time"

// =============================================================================
// Setting Keys
// =============================================================================

// Dotted keys understood by Store lookups.
const (
	KeyTheme                 = "appearance.theme"
	KeyCopyOnSelection       = "terminal.copy_on_selection"
	KeyMiddleClickBehavior   = "terminal.middle_click_behavior"
	KeyRightClickBehavior    = "terminal.right_click_behavior"
	KeyMultiLinePasteWarning = "terminal.multi_line_paste_warning"
	KeySearchMaxMatches      = "search.max_matches"
	KeyLogLevel              = "log.level"
)

// Middle click behaviors.
const (
	MiddleClickDefault = "default"
	MiddleClickPaste   = "paste"
)

// Right click behaviors.
const (
	RightClickDefault   = "default"
	RightClickCopyPaste = "copyPaste"
	RightClickPaste     = "paste"
	RightClickNothing   = "nothing"
)

// Multi-line paste warning policies.
const (
	PasteWarningAuto   = "auto"
	PasteWarningAlways = "always"
	PasteWarningNever  = "never"
)

// =============================================================================
// Durations and Limits
// =============================================================================

const (
	// NotificationDuration is the default duration notifications remain visible
	NotificationDuration = 1500 * time.Millisecond

	// ConfigReloadDebounce coalesces bursts of file events from editors
	ConfigReloadDebounce = 100 * time.Millisecond

	// DefaultSearchMaxMatches caps the number of highlighted matches
	DefaultSearchMaxMatches = 1000
)
