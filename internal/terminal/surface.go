// Package terminal implements the in-memory terminal surface: a line buffer
// with a selection, bracketed-paste tracking and an input sink that pasted
// text is written to.
package terminal

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/Gaurav-Gosain/clipfind/internal/event"
)

const (
	modeBracketedPasteOn  = "\x1b[?2004h"
	modeBracketedPasteOff = "\x1b[?2004l"
)

// Surface is the terminal surface the clipboard coordinator and the find
// widget operate on. It is not safe for concurrent use; all calls are made
// from the program's update loop.
type Surface struct {
	lines []string

	selection    Range
	hasSelection bool
	selecting    bool

	bracketedPaste bool
	focused        bool

	input   io.Writer
	pending []byte

	selectionChanged event.Emitter[struct{}]
	copyAsHTML       event.Emitter[struct{}]
}

// New creates a surface whose pasted input is written to input.
// A nil input discards pastes.
func New(input io.Writer) *Surface {
	if input == nil {
		input = io.Discard
	}
	return &Surface{
		lines: []string{""},
		input: input,
	}
}

// SetContent replaces the buffer with text. Escape sequences are stripped.
func (s *Surface) SetContent(text string) {
	s.lines = splitLines(ansi.Strip(text))
	s.pending = nil
	s.clearSelection(true)
}

// Write feeds program output into the surface. Bracketed paste mode toggles
// are honoured, every other escape sequence is dropped.
func (s *Surface) Write(p []byte) (int, error) {
	s.pending = append(s.pending, p...)

	for {
		on := bytes.Index(s.pending, []byte(modeBracketedPasteOn))
		off := bytes.Index(s.pending, []byte(modeBracketedPasteOff))
		if on < 0 && off < 0 {
			break
		}
		idx, enable := on, true
		if on < 0 || (off >= 0 && off < on) {
			idx, enable = off, false
		}
		s.appendText(string(s.pending[:idx]))
		s.bracketedPaste = enable
		s.pending = s.pending[idx+len(modeBracketedPasteOn):]
	}

	// Keep a trailing partial escape sequence for the next write.
	keep := bytes.LastIndexByte(s.pending, 0x1b)
	if keep >= 0 && len(s.pending)-keep < len(modeBracketedPasteOn) {
		s.appendText(string(s.pending[:keep]))
		s.pending = append([]byte(nil), s.pending[keep:]...)
	} else {
		s.appendText(string(s.pending))
		s.pending = s.pending[:0]
	}
	return len(p), nil
}

func (s *Surface) appendText(text string) {
	if text == "" {
		return
	}
	parts := splitLines(ansi.Strip(text))
	last := len(s.lines) - 1
	s.lines[last] += parts[0]
	s.lines = append(s.lines, parts[1:]...)
}

// LineCount returns the number of lines in the buffer.
func (s *Surface) LineCount() int { return len(s.lines) }

// Line returns line i, or "" when out of range.
func (s *Surface) Line(i int) string {
	if i < 0 || i >= len(s.lines) {
		return ""
	}
	return s.lines[i]
}

// Lines returns a copy of the buffer, used as a search snapshot.
func (s *Surface) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// HasSelection reports whether a non-empty selection exists.
func (s *Surface) HasSelection() bool {
	return s.hasSelection && !s.selection.IsEmpty()
}

// Selection returns the normalized selection range.
func (s *Surface) Selection() (Range, bool) {
	if !s.HasSelection() {
		return Range{}, false
	}
	return s.selection.Normalize(), true
}

// Select replaces the selection and notifies subscribers.
func (s *Surface) Select(r Range) {
	s.selection = s.clamp(r)
	s.hasSelection = true
	s.selecting = false
	s.selectionChanged.Emit(struct{}{})
}

// BeginSelection starts a mouse selection at p. Subscribers are not notified
// until EndSelection.
func (s *Surface) BeginSelection(p Position) {
	s.selection = s.clamp(Range{Start: p, End: p})
	s.hasSelection = true
	s.selecting = true
}

// ExtendSelection moves the end of an in-progress selection.
func (s *Surface) ExtendSelection(p Position) {
	if !s.selecting {
		return
	}
	end := s.clampPos(p)
	// The cell under the pointer is part of the selection.
	if !end.Before(s.selection.Start) {
		end.Col++
	}
	s.selection.End = end
}

// EndSelection finishes a mouse selection and notifies subscribers.
func (s *Surface) EndSelection() {
	if !s.selecting {
		return
	}
	s.selecting = false
	s.selectionChanged.Emit(struct{}{})
}

// Selecting reports whether a mouse selection is in progress.
func (s *Surface) Selecting() bool { return s.selecting }

// ClearSelection drops the selection, notifying subscribers if there was one.
func (s *Surface) ClearSelection() { s.clearSelection(false) }

func (s *Surface) clearSelection(silent bool) {
	had := s.hasSelection
	s.hasSelection = false
	s.selecting = false
	s.selection = Range{}
	if had && !silent {
		s.selectionChanged.Emit(struct{}{})
	}
}

// SelectionText returns the selected text with lines joined by "\n".
func (s *Surface) SelectionText() string {
	r, ok := s.Selection()
	if !ok {
		return ""
	}

	var sb strings.Builder
	for y := r.Start.Line; y <= r.End.Line && y < len(s.lines); y++ {
		line := []rune(s.lines[y])
		from, to := 0, len(line)
		if y == r.Start.Line {
			from = min(r.Start.Col, len(line))
		}
		if y == r.End.Line {
			to = min(r.End.Col, len(line))
		}
		if from < to {
			sb.WriteString(strings.TrimRight(string(line[from:to]), " "))
		}
		if y < r.End.Line {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// SelectionHTML returns the selection formatted as an HTML fragment.
func (s *Surface) SelectionHTML() string {
	text := s.SelectionText()
	if text == "" {
		return ""
	}
	return fmt.Sprintf("<pre style=\"font-family: monospace\">%s</pre>", html.EscapeString(text))
}

// RequestCopyAsHTML asks subscribers to copy the selection as HTML.
func (s *Surface) RequestCopyAsHTML() {
	s.copyAsHTML.Emit(struct{}{})
}

// OnSelectionChange subscribes to selection changes.
func (s *Surface) OnSelectionChange(fn func()) func() {
	return s.selectionChanged.Subscribe(func(struct{}) { fn() })
}

// OnCopyAsHTMLRequest subscribes to copy-as-HTML requests.
func (s *Surface) OnCopyAsHTMLRequest(fn func()) func() {
	return s.copyAsHTML.Subscribe(func(struct{}) { fn() })
}

// Focus gives the surface input focus.
func (s *Surface) Focus() { s.focused = true }

// Blur removes input focus.
func (s *Surface) Blur() { s.focused = false }

// Focused reports whether the surface has input focus.
func (s *Surface) Focused() bool { return s.focused }

// BracketedPasteMode reports whether the running program enabled bracketed paste.
func (s *Surface) BracketedPasteMode() bool { return s.bracketedPaste }

// SetBracketedPasteMode overrides the bracketed paste flag.
func (s *Surface) SetBracketedPasteMode(on bool) { s.bracketedPaste = on }

// Paste writes text to the input sink the way a terminal does: newlines
// become carriage returns and the payload is wrapped in bracketed paste
// markers when the mode is on. Like typed input, it clears the selection.
func (s *Surface) Paste(text string) error {
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")
	if s.bracketedPaste {
		text = ansi.BracketedPasteStart + text + ansi.BracketedPasteEnd
	}
	s.ClearSelection()
	if _, err := io.WriteString(s.input, text); err != nil {
		return fmt.Errorf("failed to write paste: %w", err)
	}
	return nil
}

func (s *Surface) clampPos(p Position) Position {
	if p.Line < 0 {
		return Position{}
	}
	if p.Line >= len(s.lines) {
		last := len(s.lines) - 1
		return Position{Line: last, Col: len([]rune(s.lines[last]))}
	}
	p.Col = max(0, min(p.Col, len([]rune(s.lines[p.Line]))))
	return p
}

func (s *Surface) clamp(r Range) Range {
	return Range{Start: s.clampPos(r.Start), End: s.clampPos(r.End)}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
