package find_test

import (
	"bytes"
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gaurav-Gosain/clipfind/internal/clipboard"
	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/find"
	"github.com/Gaurav-Gosain/clipfind/internal/search"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
)

type engineCall struct {
	previous bool
	query    string
	opts     search.Options
}

// fakeEngine reports len(query) matches for every query.
type fakeEngine struct {
	calls        []engineCall
	applied      []search.ResultMsg
	clears       int
	activeClears int
	index, count int
}

func (e *fakeEngine) cmd(previous bool, query string, opts search.Options) tea.Cmd {
	e.calls = append(e.calls, engineCall{previous, query, opts})
	return func() tea.Msg {
		res := search.ResultMsg{Query: query, Options: opts, Previous: previous, Index: -1}
		res.Matches = make([]search.Match, len(query))
		if len(query) > 0 {
			res.Index = 0
		}
		return res
	}
}

func (e *fakeEngine) FindNext(q string, o search.Options) tea.Cmd     { return e.cmd(false, q, o) }
func (e *fakeEngine) FindPrevious(q string, o search.Options) tea.Cmd { return e.cmd(true, q, o) }
func (e *fakeEngine) ClearActiveDecoration()                          { e.activeClears++; e.index = -1 }
func (e *fakeEngine) ClearDecorations()                               { e.clears++; e.index, e.count = -1, 0 }
func (e *fakeEngine) Results() (int, int)                             { return e.index, e.count }

func (e *fakeEngine) Apply(res search.ResultMsg) bool {
	e.applied = append(e.applied, res)
	e.index, e.count = res.Index, len(res.Matches)
	return res.Found()
}

type fakeService struct {
	writes []string
	text   string
}

func (f *fakeService) ReadText(context.Context, clipboard.Channel) (string, error) { return f.text, nil }
func (f *fakeService) WriteText(_ context.Context, text string) error {
	f.writes = append(f.writes, text)
	return nil
}

type fixture struct {
	surface *terminal.Surface
	input   *bytes.Buffer
	store   *config.Store
	service *fakeService
	clip    *clipboard.Coordinator
	widget  *find.Widget
}

func newFixture(t *testing.T, engine find.Engine) *fixture {
	t.Helper()
	f := &fixture{
		input:   &bytes.Buffer{},
		store:   config.NewStore(nil),
		service: &fakeService{text: "pasted"},
	}
	f.surface = terminal.New(f.input)
	f.surface.SetContent("alpha beta alpha\ngamma alpha\ndelta")
	if engine == nil {
		engine = search.New(f.surface, 0)
	}
	f.clip = clipboard.New(clipboard.Options{Service: f.service, Settings: f.store, GOOS: "linux"})
	f.clip.Attach(f.surface)
	f.widget = find.New(find.Options{
		Terminal:  f.surface,
		Engine:    engine,
		Clipboard: f.clip,
		Settings:  f.store,
	})
	t.Cleanup(f.widget.Close)
	return f
}

// run executes cmd and every follow-up synchronously, routing messages to
// both components the way the app's Update does.
func (f *fixture) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue,
				f.clip.Update(msg),
				f.widget.Update(msg),
				f.clip.Flush(),
				f.widget.Flush(),
			)
		}
	}
}

func (f *fixture) flush() {
	f.run(tea.Batch(f.clip.Flush(), f.widget.Flush()))
}

func overrideState(c *clipboard.Coordinator) string {
	value, held := c.CopyOnSelectionOverride()
	switch {
	case !held:
		return "unset"
	case value:
		return "true"
	default:
		return "false"
	}
}

func sel(line, start, end int) terminal.Range {
	return terminal.Range{
		Start: terminal.Position{Line: line, Col: start},
		End:   terminal.Position{Line: line, Col: end},
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestShowSeedsInput(t *testing.T) {
	tests := []struct {
		name    string
		prior   string
		initial string
		sel     *terminal.Range
		want    string
	}{
		{name: "single line selection", prior: "old", sel: &terminal.Range{End: terminal.Position{Col: 5}}, want: "alpha"},
		{name: "multi line selection keeps prior", prior: "old", sel: &terminal.Range{End: terminal.Position{Line: 1, Col: 2}}, want: "old"},
		{name: "no selection keeps prior", prior: "old", want: "old"},
		{name: "initial input wins", prior: "old", initial: "given", sel: &terminal.Range{End: terminal.Position{Col: 5}}, want: "given"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &fakeEngine{})
			f.widget.Show(tc.prior)
			f.widget.Hide()
			if tc.sel != nil {
				f.surface.Select(*tc.sel)
			}

			f.widget.Show(tc.initial)
			assert.Equal(t, tc.want, f.widget.Query())
			assert.Equal(t, find.Visible, f.widget.State())
			assert.True(t, f.widget.Context(find.FindWidgetVisible))
			assert.False(t, f.widget.Context(find.FindInputFocused))
		})
	}
}

func TestRevealSearchesPreviousIncremental(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)

	f.run(f.widget.Reveal("alp"))

	require.Len(t, engine.calls, 1)
	assert.Equal(t, engineCall{previous: true, query: "alp", opts: search.Options{Incremental: true}}, engine.calls[0])
	assert.Equal(t, find.VisibleWithInputFocus, f.widget.State())
	assert.True(t, f.widget.NavigationEnabled())
	_, count := f.widget.Results()
	assert.Equal(t, 3, count)
}

func TestRevealEmptyQueryDisablesNavigation(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)

	assert.Nil(t, f.widget.Reveal(""))
	assert.Empty(t, engine.calls)
	assert.False(t, f.widget.NavigationEnabled())
	assert.True(t, f.widget.Context(find.FindWidgetVisible))
}

func TestHide(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)

	f.run(f.widget.Reveal("alpha"))
	require.Equal(t, "false", overrideState(f.clip))
	require.False(t, f.surface.Focused())

	f.widget.Hide()

	assert.Equal(t, find.Hidden, f.widget.State())
	assert.False(t, f.widget.Context(find.FindWidgetVisible))
	assert.False(t, f.widget.Context(find.FindWidgetFocused))
	assert.False(t, f.widget.Context(find.FindInputFocused))
	assert.Equal(t, "unset", overrideState(f.clip))
	assert.True(t, f.surface.Focused())
	assert.Equal(t, 1, engine.clears)
	idx, count := f.widget.Results()
	assert.Equal(t, -1, idx)
	assert.Zero(t, count)
	assert.Equal(t, "alpha", f.widget.Query(), "input survives for the next show")

	f.widget.Hide()
	assert.Equal(t, 1, engine.clears, "hiding twice is a no-op")
}

func TestContextChanges(t *testing.T) {
	f := newFixture(t, &fakeEngine{})

	var changes []find.ContextChange
	f.widget.OnContextChange(func(c find.ContextChange) { changes = append(changes, c) })

	f.widget.Show("")
	f.widget.FocusInput()
	f.widget.BlurInput()
	f.widget.Blur()
	f.widget.Hide()

	assert.Equal(t, []find.ContextChange{
		{Key: find.FindWidgetVisible, Value: true},
		{Key: find.FindInputFocused, Value: true},
		{Key: find.FindWidgetFocused, Value: true},
		{Key: find.FindInputFocused, Value: false},
		{Key: find.FindWidgetFocused, Value: false},
		{Key: find.FindWidgetVisible, Value: false},
	}, changes)
}

// =============================================================================
// Copy on selection override
// =============================================================================

func TestFocusInputHoldsOverride(t *testing.T) {
	f := newFixture(t, &fakeEngine{})

	f.widget.FocusInput()
	assert.Equal(t, "unset", overrideState(f.clip), "hidden widget cannot take input focus")

	f.widget.Show("")
	f.widget.FocusInput()
	assert.Equal(t, "false", overrideState(f.clip))
	assert.True(t, f.widget.Context(find.FindInputFocused))
	assert.True(t, f.widget.Context(find.FindWidgetFocused))

	f.widget.FocusInput()
	assert.Equal(t, "false", overrideState(f.clip))

	f.widget.BlurInput()
	assert.Equal(t, "unset", overrideState(f.clip))
	assert.False(t, f.widget.Context(find.FindInputFocused))
	assert.True(t, f.widget.Context(find.FindWidgetFocused))

	f.widget.Blur()
	assert.False(t, f.widget.Context(find.FindWidgetFocused))
}

func TestFocusInputWhenOverrideHeldElsewhere(t *testing.T) {
	f := newFixture(t, &fakeEngine{})

	release, err := f.clip.OverrideCopyOnSelection(true)
	require.NoError(t, err)

	f.widget.Show("")
	f.widget.FocusInput()
	assert.Equal(t, find.VisibleWithInputFocus, f.widget.State())
	assert.Equal(t, "true", overrideState(f.clip))

	f.widget.BlurInput()
	assert.Equal(t, "true", overrideState(f.clip), "the widget never releases what it does not hold")
	release()
}

func TestSearchSelectionIsNotCopiedWhileInputFocused(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Set(config.KeyCopyOnSelection, true)

	f.widget.Show("")
	f.widget.FocusInput()
	require.Equal(t, "false", overrideState(f.clip))

	f.run(f.widget.SetQuery("beta"))
	f.flush()
	require.True(t, f.surface.HasSelection())
	assert.Equal(t, "beta", f.surface.SelectionText())
	assert.Empty(t, f.service.writes)

	f.widget.BlurInput()
	assert.Equal(t, "unset", overrideState(f.clip))

	f.surface.Select(sel(2, 0, 5))
	f.flush()
	assert.Equal(t, []string{"delta"}, f.service.writes)
}

// =============================================================================
// Search execution
// =============================================================================

func TestEmptyQueryStillClearsDecorations(t *testing.T) {
	f := newFixture(t, nil)
	f.widget.Show("")
	f.widget.FocusInput()

	f.run(f.widget.SetQuery("alpha"))
	_, count := f.widget.Results()
	require.Equal(t, 3, count)

	cmd := f.widget.SetQuery("")
	require.NotNil(t, cmd, "an empty query still searches")
	f.run(cmd)

	idx, count := f.widget.Results()
	assert.Equal(t, -1, idx)
	assert.Zero(t, count)
	assert.False(t, f.widget.NavigationEnabled())
}

func TestFindPreviousIncrementalEmptyQueryRunsClearPath(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	f.widget.Show("")

	f.run(f.widget.Find(true, true))

	require.Len(t, engine.calls, 1)
	assert.Equal(t, "", engine.calls[0].query)
	require.Len(t, engine.applied, 1)
	assert.False(t, engine.applied[0].Found())
}

func TestStaleResultOnlyUpdatesCount(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	f.widget.Show("")
	f.widget.FocusInput()

	f.run(f.widget.SetQuery("a"))
	require.Len(t, engine.applied, 1)

	stale := f.widget.SetQuery("ab")
	fresh := f.widget.SetQuery("abcd")

	f.run(stale)
	assert.Len(t, engine.applied, 1, "superseded result not applied")
	idx, count := f.widget.Results()
	assert.Equal(t, 0, idx, "navigation untouched")
	assert.Equal(t, 2, count, "count refreshed while the newer search is pending")

	f.run(fresh)
	require.Len(t, engine.applied, 2)
	idx, count = f.widget.Results()
	assert.Equal(t, 0, idx)
	assert.Equal(t, 4, count)
}

func TestResultOlderThanAppliedIsIgnored(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	f.widget.Show("")
	f.widget.FocusInput()

	stale := f.widget.SetQuery("ab")
	fresh := f.widget.SetQuery("")

	f.run(fresh)
	require.Len(t, engine.applied, 1)

	f.run(stale)
	assert.Len(t, engine.applied, 1)
	idx, count := f.widget.Results()
	assert.Equal(t, -1, idx)
	assert.Zero(t, count, "count matches the shown query")
	assert.Equal(t, "", f.widget.Query())
	_, engineCount := engine.Results()
	assert.Zero(t, engineCount)
}

func TestResultFromBeforeHideIsIgnoredAfterShow(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	f.widget.Show("")

	stale := f.widget.SetQuery("abc")
	f.widget.Hide()
	f.widget.Show("")
	f.run(stale)

	assert.Empty(t, engine.applied)
	_, count := f.widget.Results()
	assert.Zero(t, count)
}

func TestResultAfterHideIsDropped(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	f.widget.Show("")

	cmd := f.widget.SetQuery("abc")
	f.widget.Hide()
	f.run(cmd)

	assert.Empty(t, engine.applied)
	_, count := f.widget.Results()
	assert.Zero(t, count)
}

func TestSelectionChangeClearsActiveDecorationOnce(t *testing.T) {
	f := newFixture(t, nil)
	engine := search.New(f.surface, 0)
	f.widget.Attach(f.surface, engine)
	f.widget.Show("")

	f.run(f.widget.SetQuery("alpha"))
	_, ok := engine.Active()
	require.True(t, ok, "the engine's own selection does not clear the new decoration")

	f.surface.Select(sel(2, 0, 5))
	_, ok = engine.Active()
	assert.False(t, ok)
	assert.Len(t, engine.Decorations(), 3)

	// The listener is gone: a new search keeps its decoration until the
	// next user selection.
	f.run(f.widget.Find(false, false))
	_, ok = engine.Active()
	require.True(t, ok)
	f.surface.Select(sel(0, 0, 1))
	_, ok = engine.Active()
	assert.False(t, ok)
}

func TestTogglesSearchIncrementally(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	f.widget.Show("q")

	f.run(f.widget.ToggleRegex())
	f.run(f.widget.ToggleWholeWord())
	f.run(f.widget.ToggleCaseSensitive())
	f.run(f.widget.Find(false, false))
	f.run(f.widget.ToggleRegex())

	require.Len(t, engine.calls, 5)
	assert.Equal(t, search.Options{Regex: true, Incremental: true}, engine.calls[0].opts)
	assert.Equal(t, search.Options{Regex: true, WholeWord: true, Incremental: true}, engine.calls[1].opts)
	assert.Equal(t, search.Options{Regex: true, WholeWord: true, CaseSensitive: true, Incremental: true}, engine.calls[2].opts)
	assert.Equal(t, search.Options{Regex: true, WholeWord: true, CaseSensitive: true}, engine.calls[3].opts)
	assert.False(t, engine.calls[4].previous, "toggles follow the last direction")
	assert.True(t, engine.calls[4].opts.Incremental)
}

func TestUnattachedIsNoop(t *testing.T) {
	w := find.New(find.Options{})
	w.Show("x")
	assert.Nil(t, w.Find(true, true))
	assert.Nil(t, w.SetQuery("y"))
	w.FocusInput()
	w.Hide()
	assert.Equal(t, find.Hidden, w.State())
}

// =============================================================================
// Configuration and paste events
// =============================================================================

func TestThemeChangeRerunsSearchWhileVisible(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)

	f.store.Set(config.KeyTheme, "nord")
	assert.Nil(t, f.widget.Flush(), "hidden widget ignores theme changes")

	f.widget.Show("abc")
	f.run(f.widget.Find(false, false))
	f.store.Set(config.KeyTheme, "dracula")
	f.flush()

	require.Len(t, engine.calls, 2)
	assert.Equal(t, engineCall{previous: false, query: "abc", opts: search.Options{Incremental: true}}, engine.calls[1])

	f.store.Set(config.KeyRightClickBehavior, config.RightClickPaste)
	assert.Nil(t, f.widget.Flush())
}

func TestPasteWhileVisibleHoldsOverride(t *testing.T) {
	f := newFixture(t, &fakeEngine{})
	f.widget.Show("")

	var during string
	f.clip.OnWillPaste(func(clipboard.WillPasteEvent) { during = overrideState(f.clip) })

	f.run(f.clip.Paste())
	assert.Equal(t, "pasted", f.input.String())
	assert.Equal(t, "false", during)
	assert.Equal(t, "unset", overrideState(f.clip))
}

func TestPasteWhileInputFocusedKeepsInputOverride(t *testing.T) {
	f := newFixture(t, &fakeEngine{})
	f.widget.Show("")
	f.widget.FocusInput()

	f.run(f.clip.Paste())
	assert.Equal(t, "false", overrideState(f.clip))

	f.widget.BlurInput()
	assert.Equal(t, "unset", overrideState(f.clip))
}

func TestSelectionPasteWhileVisible(t *testing.T) {
	f := newFixture(t, &fakeEngine{})
	f.widget.Show("")

	f.run(f.clip.PasteFromSelectionClipboard())
	assert.Equal(t, "pasted", f.input.String())
	assert.Equal(t, "unset", overrideState(f.clip))
}
