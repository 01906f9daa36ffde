// Package search finds text in a terminal surface buffer and keeps the
// highlight decorations for the matches.
package search

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"

	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
)

// Options controls how a query matches.
type Options struct {
	Regex         bool
	WholeWord     bool
	CaseSensitive bool
	// Incremental keeps the current match when it still matches, so typing
	// extends the match under the cursor instead of skipping past it.
	Incremental bool
}

// Match is one occurrence in the buffer. Start and End are rune columns,
// End exclusive.
type Match struct {
	Line  int
	Start int
	End   int
}

// Range returns the buffer range covered by m.
func (m Match) Range() terminal.Range {
	return terminal.Range{
		Start: terminal.Position{Line: m.Line, Col: m.Start},
		End:   terminal.Position{Line: m.Line, Col: m.End},
	}
}

// ResultMsg is produced when a search completes.
type ResultMsg struct {
	Query    string
	Options  Options
	Previous bool
	Matches  []Match
	Index    int // index into Matches of the selected match, -1 when none
	Err      error
}

// Found reports whether a match was selected.
func (r ResultMsg) Found() bool {
	return r.Err == nil && r.Index >= 0 && r.Index < len(r.Matches)
}

// Surface is the part of the terminal surface searched and selected.
type Surface interface {
	Lines() []string
	Selection() (terminal.Range, bool)
	Select(r terminal.Range)
}

// Engine runs searches and owns the match decorations.
type Engine struct {
	surface    Surface
	maxMatches int

	matches []Match
	active  int
}

// New creates an engine over surface. maxMatches caps the number of
// decorations; zero uses the default.
func New(surface Surface, maxMatches int) *Engine {
	e := &Engine{surface: surface, active: -1}
	e.SetMaxMatches(maxMatches)
	return e
}

// SetMaxMatches changes the decoration cap for later searches.
func (e *Engine) SetMaxMatches(n int) {
	if n <= 0 {
		n = config.DefaultSearchMaxMatches
	}
	e.maxMatches = n
}

// FindNext searches forward from the current selection.
func (e *Engine) FindNext(query string, opts Options) tea.Cmd {
	return e.find(query, opts, false)
}

// FindPrevious searches backward from the current selection.
func (e *Engine) FindPrevious(query string, opts Options) tea.Cmd {
	return e.find(query, opts, true)
}

func (e *Engine) find(query string, opts Options, previous bool) tea.Cmd {
	// Snapshot on the update loop; matching runs off it.
	lines := e.surface.Lines()
	cursor, hasCursor := e.cursor(previous, lines)
	limit := e.maxMatches

	return func() tea.Msg {
		res := ResultMsg{Query: query, Options: opts, Previous: previous, Index: -1}
		if query == "" {
			return res
		}
		matches, err := findAll(lines, query, opts, limit)
		if err != nil {
			res.Err = err
			return res
		}
		res.Matches = matches
		res.Index = pick(matches, cursor, hasCursor, previous, opts.Incremental)
		return res
	}
}

// cursor is the position searches start from: the start of the current
// selection when there is one.
func (e *Engine) cursor(previous bool, lines []string) (terminal.Position, bool) {
	if r, ok := e.surface.Selection(); ok {
		return r.Start, true
	}
	if previous && len(lines) > 0 {
		last := len(lines) - 1
		return terminal.Position{Line: last, Col: utf8.RuneCountInString(lines[last])}, false
	}
	return terminal.Position{}, false
}

func compile(query string, opts Options) (*regexp.Regexp, error) {
	pattern := query
	if !opts.Regex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if opts.WholeWord {
		pattern = `\b(?:` + pattern + `)\b`
	}
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", query, err)
	}
	return re, nil
}

func findAll(lines []string, query string, opts Options, limit int) ([]Match, error) {
	re, err := compile(query, opts)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for y, line := range lines {
		for _, loc := range re.FindAllStringIndex(line, limit-len(matches)) {
			if loc[0] == loc[1] {
				continue
			}
			// Byte offsets to rune columns
			start := utf8.RuneCountInString(line[:loc[0]])
			end := start + utf8.RuneCountInString(line[loc[0]:loc[1]])
			matches = append(matches, Match{Line: y, Start: start, End: end})
		}
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// pick returns the index of the match to select, wrapping around the buffer.
func pick(matches []Match, cursor terminal.Position, hasCursor, previous, incremental bool) int {
	if len(matches) == 0 {
		return -1
	}
	// Without a selection the first match (or the last one, backwards)
	// is the target, the cursor sitting at the buffer edge.
	inclusive := incremental || !hasCursor

	if previous {
		for i := len(matches) - 1; i >= 0; i-- {
			p := terminal.Position{Line: matches[i].Line, Col: matches[i].Start}
			if p.Before(cursor) || (inclusive && p == cursor) {
				return i
			}
		}
		return len(matches) - 1
	}

	for i, m := range matches {
		p := terminal.Position{Line: m.Line, Col: m.Start}
		if cursor.Before(p) || (inclusive && p == cursor) {
			return i
		}
	}
	return 0
}

// Apply installs the decorations of res and selects its match. It must be
// called on the update loop. It reports whether a match was selected.
func (e *Engine) Apply(res ResultMsg) bool {
	if !res.Found() {
		e.ClearDecorations()
		return false
	}
	e.matches = res.Matches
	e.active = res.Index
	e.surface.Select(res.Matches[res.Index].Range())
	return true
}

// ClearActiveDecoration removes the highlight of the selected match and
// keeps the other match decorations.
func (e *Engine) ClearActiveDecoration() {
	e.active = -1
}

// ClearDecorations removes every match decoration.
func (e *Engine) ClearDecorations() {
	e.matches = nil
	e.active = -1
}

// Results returns the selected match index and the match count. The index
// is -1 when no match is active.
func (e *Engine) Results() (index, count int) {
	return e.active, len(e.matches)
}

// Decorations returns the decorated matches.
func (e *Engine) Decorations() []Match {
	return e.matches
}

// Active returns the actively decorated match.
func (e *Engine) Active() (Match, bool) {
	if e.active < 0 || e.active >= len(e.matches) {
		return Match{}, false
	}
	return e.matches[e.active], true
}

// DecorationsOnLine returns the decorations on line y and the index among
// them of the active one, -1 when it is elsewhere.
func (e *Engine) DecorationsOnLine(y int) (matches []Match, active int) {
	active = -1
	for i, m := range e.matches {
		if m.Line != y {
			continue
		}
		if i == e.active {
			active = len(matches)
		}
		matches = append(matches, m)
	}
	return matches, active
}
