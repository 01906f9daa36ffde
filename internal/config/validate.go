package config

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
)

// ValidationIssue describes one problem found in a configuration.
type ValidationIssue struct {
	Field   string // config section
	Key     string
	Message string
}

// ValidationResult collects errors (fatal) and warnings (ignored values).
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors reports whether any fatal issue was found.
func (v *ValidationResult) HasErrors() bool { return len(v.Errors) > 0 }

// HasWarnings reports whether any non-fatal issue was found.
func (v *ValidationResult) HasWarnings() bool { return len(v.Warnings) > 0 }

func (v *ValidationResult) errorf(field, key, format string, args ...any) {
	v.Errors = append(v.Errors, ValidationIssue{Field: field, Key: key, Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationResult) warnf(field, key, format string, args ...any) {
	v.Warnings = append(v.Warnings, ValidationIssue{Field: field, Key: key, Message: fmt.Sprintf(format, args...)})
}

// ValidateConfig checks enumerated settings. Unknown mouse behaviors are
// errors, an unknown log level only warns and falls back to info.
func ValidateConfig(cfg *UserConfig) *ValidationResult {
	result := &ValidationResult{}

	middle := []string{MiddleClickDefault, MiddleClickPaste}
	if !slices.Contains(middle, cfg.Terminal.MiddleClickBehavior) {
		result.errorf("terminal", "middle_click_behavior", "must be one of %v, got %q", middle, cfg.Terminal.MiddleClickBehavior)
	}

	right := []string{RightClickDefault, RightClickCopyPaste, RightClickPaste, RightClickNothing}
	if !slices.Contains(right, cfg.Terminal.RightClickBehavior) {
		result.errorf("terminal", "right_click_behavior", "must be one of %v, got %q", right, cfg.Terminal.RightClickBehavior)
	}

	warning := []string{PasteWarningAuto, PasteWarningAlways, PasteWarningNever}
	if !slices.Contains(warning, cfg.Terminal.MultiLinePasteWarning) {
		result.errorf("terminal", "multi_line_paste_warning", "must be one of %v, got %q", warning, cfg.Terminal.MultiLinePasteWarning)
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		result.warnf("log", "level", "unknown level %q, using info", cfg.Log.Level)
		cfg.Log.Level = "info"
	}

	return result
}
