package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gaurav-Gosain/clipfind/internal/search"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
)

const buffer = "foo bar foo\nFoo food\nnaïve café foo"

func newEngine(t *testing.T) (*search.Engine, *terminal.Surface) {
	t.Helper()
	s := terminal.New(nil)
	s.SetContent(buffer)
	return search.New(s, 0), s
}

func run(t *testing.T, e *search.Engine, previous bool, query string, opts search.Options) search.ResultMsg {
	t.Helper()
	cmd := e.FindNext(query, opts)
	if previous {
		cmd = e.FindPrevious(query, opts)
	}
	require.NotNil(t, cmd)
	res, ok := cmd().(search.ResultMsg)
	require.True(t, ok)
	return res
}

func TestFindAllOptions(t *testing.T) {
	tests := []struct {
		name  string
		query string
		opts  search.Options
		want  []search.Match
	}{
		{
			name:  "case insensitive literal",
			query: "foo",
			want: []search.Match{
				{Line: 0, Start: 0, End: 3},
				{Line: 0, Start: 8, End: 11},
				{Line: 1, Start: 0, End: 3},
				{Line: 1, Start: 4, End: 7},
				{Line: 2, Start: 11, End: 14},
			},
		},
		{
			name:  "case sensitive",
			query: "Foo",
			opts:  search.Options{CaseSensitive: true},
			want:  []search.Match{{Line: 1, Start: 0, End: 3}},
		},
		{
			name:  "whole word",
			query: "foo",
			opts:  search.Options{WholeWord: true},
			want: []search.Match{
				{Line: 0, Start: 0, End: 3},
				{Line: 0, Start: 8, End: 11},
				{Line: 1, Start: 0, End: 3},
				{Line: 2, Start: 11, End: 14},
			},
		},
		{
			name:  "regex",
			query: `ba.`,
			opts:  search.Options{Regex: true},
			want:  []search.Match{{Line: 0, Start: 4, End: 7}},
		},
		{
			name:  "literal ignores metacharacters",
			query: "ba.",
			want:  nil,
		},
		{
			name:  "columns count runes",
			query: "café",
			want:  []search.Match{{Line: 2, Start: 6, End: 10}},
		},
		{
			name:  "empty regex matches are skipped",
			query: "x*",
			opts:  search.Options{Regex: true},
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newEngine(t)
			res := run(t, e, false, tc.query, tc.opts)
			require.NoError(t, res.Err)
			assert.Equal(t, tc.want, res.Matches)
		})
	}
}

func TestInvalidRegex(t *testing.T) {
	e, s := newEngine(t)
	res := run(t, e, false, "(", search.Options{Regex: true})
	require.Error(t, res.Err)
	assert.False(t, res.Found())
	assert.False(t, e.Apply(res))
	assert.False(t, s.HasSelection())
}

func TestMaxMatches(t *testing.T) {
	s := terminal.New(nil)
	s.SetContent("aaaa\naaaa")
	e := search.New(s, 3)

	res := run(t, e, false, "a", search.Options{})
	assert.Len(t, res.Matches, 3)
}

func TestNavigation(t *testing.T) {
	e, s := newEngine(t)
	opts := search.Options{}

	// Forward from nothing selects the first match.
	require.True(t, e.Apply(run(t, e, false, "foo", opts)))
	r, _ := s.Selection()
	assert.Equal(t, terminal.Position{Line: 0, Col: 0}, r.Start)

	require.True(t, e.Apply(run(t, e, false, "foo", opts)))
	r, _ = s.Selection()
	assert.Equal(t, terminal.Position{Line: 0, Col: 8}, r.Start)
	idx, count := e.Results()
	assert.Equal(t, 1, idx)
	assert.Equal(t, 5, count)

	// Backward returns to the first match, then wraps to the last.
	require.True(t, e.Apply(run(t, e, true, "foo", opts)))
	r, _ = s.Selection()
	assert.Equal(t, terminal.Position{Line: 0, Col: 0}, r.Start)

	require.True(t, e.Apply(run(t, e, true, "foo", opts)))
	r, _ = s.Selection()
	assert.Equal(t, terminal.Position{Line: 2, Col: 11}, r.Start)

	// Forward from the last match wraps to the first.
	require.True(t, e.Apply(run(t, e, false, "foo", opts)))
	r, _ = s.Selection()
	assert.Equal(t, terminal.Position{Line: 0, Col: 0}, r.Start)
}

func TestIncrementalKeepsCurrentMatch(t *testing.T) {
	e, s := newEngine(t)
	s.Select(terminal.Range{Start: terminal.Position{Line: 1, Col: 4}, End: terminal.Position{Line: 1, Col: 5}})

	for _, query := range []string{"f", "fo", "foo", "food"} {
		res := run(t, e, true, query, search.Options{Incremental: true})
		require.True(t, e.Apply(res), query)
		r, _ := s.Selection()
		assert.Equal(t, terminal.Position{Line: 1, Col: 4}, r.Start, query)
	}
	assert.Equal(t, "food", s.SelectionText())
}

func TestPreviousWithoutSelectionStartsAtEnd(t *testing.T) {
	e, s := newEngine(t)
	require.True(t, e.Apply(run(t, e, true, "foo", search.Options{Incremental: true})))
	r, _ := s.Selection()
	assert.Equal(t, terminal.Position{Line: 2, Col: 11}, r.Start)
}

func TestEmptyQueryClearsDecorations(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.Apply(run(t, e, false, "foo", search.Options{})))
	_, count := e.Results()
	require.Equal(t, 5, count)

	res := run(t, e, true, "", search.Options{Incremental: true})
	assert.False(t, e.Apply(res))
	idx, count := e.Results()
	assert.Equal(t, -1, idx)
	assert.Zero(t, count)
}

func TestClearActiveDecorationKeepsOthers(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.Apply(run(t, e, false, "foo", search.Options{})))

	_, ok := e.Active()
	require.True(t, ok)
	e.ClearActiveDecoration()
	_, ok = e.Active()
	assert.False(t, ok)
	assert.Len(t, e.Decorations(), 5)

	line, active := e.DecorationsOnLine(0)
	assert.Len(t, line, 2)
	assert.Equal(t, -1, active)

	e.ClearDecorations()
	assert.Empty(t, e.Decorations())
}

func TestDecorationsOnLine(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.Apply(run(t, e, false, "foo", search.Options{})))
	require.True(t, e.Apply(run(t, e, false, "foo", search.Options{})))

	line, active := e.DecorationsOnLine(0)
	assert.Len(t, line, 2)
	assert.Equal(t, 1, active)

	line, active = e.DecorationsOnLine(1)
	assert.Len(t, line, 2)
	assert.Equal(t, -1, active)
}
