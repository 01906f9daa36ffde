// Package pasteguard checks clipboard text before it reaches the terminal.
// It strips control sequences that could break out of bracketed paste and
// asks for confirmation before multi-line pastes, following the
// terminal.multi_line_paste_warning setting.
package pasteguard

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"github.com/Gaurav-Gosain/clipfind/internal/clipboard"
	"github.com/Gaurav-Gosain/clipfind/internal/config"
)

// Choice is the user's answer to a multi-line paste prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoicePaste
	ChoiceSingleLine
)

// Prompt describes a pending multi-line paste.
type Prompt struct {
	Lines   int
	Preview string
}

// Confirmer asks the user about a multi-line paste. It blocks until the
// user answers or ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (Choice, error)
}

// Settings answers string lookups by dotted key.
type Settings interface {
	String(key string) string
}

// Guard implements clipboard.Guard.
type Guard struct {
	settings  Settings
	confirmer Confirmer
}

var _ clipboard.Guard = (*Guard)(nil)

// New creates a guard. A nil confirmer approves every multi-line paste.
func New(settings Settings, confirmer Confirmer) *Guard {
	return &Guard{settings: settings, confirmer: confirmer}
}

// Check sanitizes text and, when the policy asks for it, confirms a
// multi-line paste with the user.
func (g *Guard) Check(ctx context.Context, text string, bracketed bool) (clipboard.Verdict, error) {
	clean := Sanitize(text)
	if clean == "" {
		return clipboard.Reject(), nil
	}

	if g.confirmer == nil || !g.needsConfirmation(clean, bracketed) {
		return clipboard.Approve(clean), nil
	}

	choice, err := g.confirmer.Confirm(ctx, Prompt{
		Lines:   LineCount(clean),
		Preview: preview(clean),
	})
	if err != nil {
		return clipboard.Reject(), fmt.Errorf("failed to confirm paste: %w", err)
	}

	switch choice {
	case ChoicePaste:
		return clipboard.Approve(clean), nil
	case ChoiceSingleLine:
		return clipboard.Approve(SingleLine(clean)), nil
	default:
		return clipboard.Reject(), nil
	}
}

func (g *Guard) needsConfirmation(text string, bracketed bool) bool {
	policy := config.PasteWarningAuto
	if g.settings != nil {
		if p := g.settings.String(config.KeyMultiLinePasteWarning); p != "" {
			policy = p
		}
	}

	if !IsMultiLine(text) {
		return false
	}
	switch policy {
	case config.PasteWarningNever:
		return false
	case config.PasteWarningAlways:
		return true
	default:
		return !bracketed
	}
}

// Sanitize removes escape sequences, including embedded bracketed paste
// markers, and control characters other than tab and line breaks.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, ansi.BracketedPasteStart, "")
	text = strings.ReplaceAll(text, ansi.BracketedPasteEnd, "")
	text = ansi.Strip(text)

	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// IsMultiLine reports whether text spans more than one line. A single
// trailing line break does not count.
func IsMultiLine(text string) bool {
	return strings.ContainsAny(strings.TrimRight(text, "\r\n"), "\r\n")
}

// LineCount returns the number of lines in text, ignoring a trailing break.
func LineCount(text string) int {
	text = strings.ReplaceAll(strings.TrimRight(text, "\r\n"), "\r\n", "\n")
	return strings.Count(text, "\n") + strings.Count(text, "\r") + 1
}

// SingleLine joins the lines of text with spaces.
func SingleLine(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

const previewLines = 3

func preview(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], "…")
	}
	return strings.Join(lines, "\n")
}
