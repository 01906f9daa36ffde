// Package find implements the terminal find widget: it drives incremental
// searches against the search engine and keeps its visibility and focus
// flags consistent while muting copy-on-selection during engine-driven
// reselection.
package find

import (
	"errors"
	"io"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/clipfind/internal/clipboard"
	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/event"
	"github.com/Gaurav-Gosain/clipfind/internal/search"
)

// State is the widget lifecycle state.
type State int

const (
	Hidden State = iota
	Visible
	VisibleWithInputFocus
)

func (s State) String() string {
	switch s {
	case Visible:
		return "visible"
	case VisibleWithInputFocus:
		return "visible+input"
	default:
		return "hidden"
	}
}

// ContextKey names an observable widget flag.
type ContextKey string

const (
	FindInputFocused  ContextKey = "terminalFindInputFocused"
	FindWidgetFocused ContextKey = "terminalFindFocused"
	FindWidgetVisible ContextKey = "terminalFindVisible"
)

// ContextChange is emitted when a flag flips.
type ContextChange struct {
	Key   ContextKey
	Value bool
}

// Terminal is the part of the terminal surface the widget needs.
type Terminal interface {
	HasSelection() bool
	SelectionText() string
	Focus()
	Blur()
	OnSelectionChange(fn func()) func()
}

// Engine is the search and highlight engine.
type Engine interface {
	FindNext(query string, opts search.Options) tea.Cmd
	FindPrevious(query string, opts search.Options) tea.Cmd
	Apply(res search.ResultMsg) bool
	ClearActiveDecoration()
	ClearDecorations()
	Results() (index, count int)
}

// Clipboard is the clipboard coordinator's override and paste events.
type Clipboard interface {
	OverrideCopyOnSelection(value bool) (clipboard.Release, error)
	OnWillPaste(fn func(clipboard.WillPasteEvent)) func()
	OnDidPaste(fn func(clipboard.DidPasteEvent)) func()
}

// Settings notifies about configuration changes.
type Settings interface {
	OnDidChange(fn func(config.ChangeEvent)) func()
}

// Options configures a Widget. Terminal and Engine may be attached later.
type Options struct {
	Terminal  Terminal
	Engine    Engine
	Clipboard Clipboard
	Settings  Settings
	Logger    *log.Logger
}

// Widget is the find widget. All methods must be called from the
// program's update loop.
type Widget struct {
	term     Terminal
	engine   Engine
	clip     Clipboard
	logger   *log.Logger
	unsubs   []func()
	settings func()

	state State
	flags map[ContextKey]bool
	ctx   event.Emitter[ContextChange]

	query    string
	opts     search.Options
	previous bool

	resultIndex int
	resultCount int
	navEnabled  bool
	err         error

	// gen numbers issued searches; appliedGen is the newest one applied.
	gen            uint64
	appliedGen     uint64
	inputRelease   clipboard.Release
	pasteRelease   clipboard.Release
	unsubClearOnce func()

	pending []tea.Cmd
}

type resultMsg struct {
	gen uint64
	res search.ResultMsg
}

// New creates a hidden widget.
func New(opts Options) *Widget {
	w := &Widget{
		clip:        opts.Clipboard,
		logger:      opts.Logger,
		flags:       make(map[ContextKey]bool),
		previous:    true,
		resultIndex: -1,
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	if opts.Terminal != nil && opts.Engine != nil {
		w.Attach(opts.Terminal, opts.Engine)
	}
	if w.clip != nil {
		w.unsubs = append(w.unsubs,
			w.clip.OnWillPaste(w.handleWillPaste),
			w.clip.OnDidPaste(w.handleDidPaste),
		)
	}
	if opts.Settings != nil {
		w.settings = opts.Settings.OnDidChange(w.handleConfigChange)
	}
	return w
}

// Attach binds the widget to a terminal and its search engine.
func (w *Widget) Attach(term Terminal, engine Engine) {
	w.dropClearOnce()
	w.term = term
	w.engine = engine
}

// Close releases held overrides and drops every subscription.
func (w *Widget) Close() {
	w.releaseOverrides()
	w.dropClearOnce()
	for _, unsub := range w.unsubs {
		unsub()
	}
	w.unsubs = nil
	if w.settings != nil {
		w.settings()
		w.settings = nil
	}
}

// State returns the lifecycle state.
func (w *Widget) State() State { return w.state }

// Visible reports whether the widget is shown.
func (w *Widget) Visible() bool { return w.state != Hidden }

// InputFocused reports whether the find input has focus.
func (w *Widget) InputFocused() bool { return w.state == VisibleWithInputFocus }

// Context returns the value of a context flag.
func (w *Widget) Context(key ContextKey) bool { return w.flags[key] }

// OnContextChange subscribes to context flag changes.
func (w *Widget) OnContextChange(fn func(ContextChange)) func() {
	return w.ctx.Subscribe(fn)
}

func (w *Widget) setContext(key ContextKey, value bool) {
	if w.flags[key] == value {
		return
	}
	w.flags[key] = value
	w.ctx.Emit(ContextChange{Key: key, Value: value})
}

// Query returns the current input.
func (w *Widget) Query() string { return w.query }

// SearchOptions returns the active toggles.
func (w *Widget) SearchOptions() search.Options { return w.opts }

// Results returns the active match index and the match count of the latest
// search. The index is -1 without an active match.
func (w *Widget) Results() (index, count int) { return w.resultIndex, w.resultCount }

// NavigationEnabled reports whether next/previous navigation is useful.
func (w *Widget) NavigationEnabled() bool { return w.navEnabled }

// Err returns the error of the latest search, such as an invalid pattern.
func (w *Widget) Err() error { return w.err }

// Show makes the widget visible. The input is seeded with initialInput,
// else with the current selection when it is a single line, else it keeps
// the previous input.
func (w *Widget) Show(initialInput string) {
	switch {
	case initialInput != "":
		w.query = initialInput
	case w.term != nil && w.term.HasSelection():
		if sel := w.term.SelectionText(); sel != "" && !strings.ContainsAny(sel, "\r\n") {
			w.query = sel
		}
	}
	if w.state == Hidden {
		w.state = Visible
	}
	w.setContext(FindWidgetVisible, true)
}

// Reveal shows the widget, focuses the input and, when there is a query,
// highlights the matches before the cursor right away.
func (w *Widget) Reveal(initialInput string) tea.Cmd {
	w.Show(initialInput)
	w.FocusInput()
	if w.query == "" {
		w.navEnabled = false
		return nil
	}
	return w.Find(true, true)
}

// Hide hides the widget, gives focus back to the terminal and removes every
// decoration. Results still in flight are discarded.
func (w *Widget) Hide() {
	if w.state == Hidden {
		return
	}
	w.state = Hidden
	w.gen++
	w.appliedGen = w.gen
	w.releaseOverrides()
	w.dropClearOnce()

	w.setContext(FindInputFocused, false)
	w.setContext(FindWidgetFocused, false)
	w.setContext(FindWidgetVisible, false)

	w.resultIndex, w.resultCount = -1, 0
	w.navEnabled = false
	w.err = nil

	if w.term != nil {
		w.term.Focus()
	}
	if w.engine != nil {
		w.engine.ClearDecorations()
	}
}

// FocusInput moves focus into the find input and mutes copy-on-selection
// while it is held, if nobody else holds the override.
func (w *Widget) FocusInput() {
	if w.state != Visible {
		return
	}
	w.state = VisibleWithInputFocus

	if w.pasteRelease != nil {
		w.inputRelease, w.pasteRelease = w.pasteRelease, nil
	} else if w.inputRelease == nil && w.clip != nil {
		release, err := w.clip.OverrideCopyOnSelection(false)
		if err != nil {
			w.logger.Debug("copy on selection override not obtainable", "err", err)
		}
		w.inputRelease = release
	}

	if w.term != nil {
		w.term.Blur()
	}
	w.setContext(FindInputFocused, true)
	w.setContext(FindWidgetFocused, true)
}

// BlurInput moves focus out of the find input to the rest of the widget.
func (w *Widget) BlurInput() {
	if w.state != VisibleWithInputFocus {
		return
	}
	w.state = Visible
	if w.inputRelease != nil {
		w.inputRelease()
		w.inputRelease = nil
	}
	w.setContext(FindInputFocused, false)
}

// Blur moves focus out of the widget entirely.
func (w *Widget) Blur() {
	w.BlurInput()
	w.setContext(FindWidgetFocused, false)
}

// FocusWidget marks the widget focused without focusing the input.
func (w *Widget) FocusWidget() {
	if w.state == Hidden {
		return
	}
	w.setContext(FindWidgetFocused, true)
}

// SetQuery replaces the input and searches incrementally.
func (w *Widget) SetQuery(query string) tea.Cmd {
	if query == w.query {
		return nil
	}
	w.query = query
	return w.Find(w.previous, true)
}

// ToggleRegex flips regex matching and searches again.
func (w *Widget) ToggleRegex() tea.Cmd {
	w.opts.Regex = !w.opts.Regex
	return w.Find(w.previous, true)
}

// ToggleWholeWord flips whole word matching and searches again.
func (w *Widget) ToggleWholeWord() tea.Cmd {
	w.opts.WholeWord = !w.opts.WholeWord
	return w.Find(w.previous, true)
}

// ToggleCaseSensitive flips case sensitivity and searches again.
func (w *Widget) ToggleCaseSensitive() tea.Cmd {
	w.opts.CaseSensitive = !w.opts.CaseSensitive
	return w.Find(w.previous, true)
}

// Find searches from the current selection. An empty query still runs so
// that decorations left by an earlier search are cleared.
func (w *Widget) Find(previous, incremental bool) tea.Cmd {
	if w.term == nil || w.engine == nil {
		return nil
	}
	w.previous = previous
	w.gen++
	gen := w.gen

	opts := w.opts
	opts.Incremental = incremental

	var cmd tea.Cmd
	if previous {
		cmd = w.engine.FindPrevious(w.query, opts)
	} else {
		cmd = w.engine.FindNext(w.query, opts)
	}
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		res, _ := cmd().(search.ResultMsg)
		return resultMsg{gen: gen, res: res}
	}
}

// Update applies search results. Unrelated messages are ignored.
func (w *Widget) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(resultMsg); ok {
		w.handleResult(msg)
	}
	return nil
}

func (w *Widget) handleResult(msg resultMsg) {
	if w.state == Hidden || w.engine == nil || w.term == nil {
		return
	}
	if msg.gen <= w.appliedGen {
		// Older than what is already shown.
		return
	}
	if msg.gen != w.gen {
		// Superseded, but nothing newer has landed yet: refresh the count only.
		w.resultCount = len(msg.res.Matches)
		return
	}

	w.appliedGen = msg.gen
	w.dropClearOnce()
	w.engine.Apply(msg.res)
	w.resultIndex, w.resultCount = w.engine.Results()
	w.navEnabled = w.resultCount > 0
	w.err = msg.res.Err
	if w.err != nil {
		w.logger.Debug("search failed", "query", msg.res.Query, "err", w.err)
	}

	engine := w.engine
	var unsub func()
	fired := false
	unsub = w.term.OnSelectionChange(func() {
		if fired {
			return
		}
		fired = true
		unsub()
		engine.ClearActiveDecoration()
	})
	w.unsubClearOnce = unsub
}

func (w *Widget) dropClearOnce() {
	if w.unsubClearOnce != nil {
		w.unsubClearOnce()
		w.unsubClearOnce = nil
	}
}

func (w *Widget) releaseOverrides() {
	if w.inputRelease != nil {
		w.inputRelease()
		w.inputRelease = nil
	}
	if w.pasteRelease != nil {
		w.pasteRelease()
		w.pasteRelease = nil
	}
}

func (w *Widget) handleWillPaste(clipboard.WillPasteEvent) {
	if w.state == Hidden || w.inputRelease != nil || w.pasteRelease != nil || w.clip == nil {
		return
	}
	release, err := w.clip.OverrideCopyOnSelection(false)
	if err != nil {
		if !errors.Is(err, clipboard.ErrIllegalState) {
			w.logger.Warn("copy on selection override failed", "err", err)
		}
		return
	}
	w.pasteRelease = release
}

func (w *Widget) handleDidPaste(clipboard.DidPasteEvent) {
	if w.pasteRelease != nil {
		w.pasteRelease()
		w.pasteRelease = nil
	}
}

func (w *Widget) handleConfigChange(ev config.ChangeEvent) {
	if w.state == Hidden {
		return
	}
	refresh := ev.Affects(config.KeyTheme)
	for _, key := range ev.Keys {
		if strings.HasPrefix(key, "search.") {
			refresh = true
		}
	}
	if refresh {
		w.queue(w.Find(w.previous, true))
	}
}

func (w *Widget) queue(cmd tea.Cmd) {
	if cmd != nil {
		w.pending = append(w.pending, cmd)
	}
}

// Flush returns the commands queued by event handlers since the last call.
func (w *Widget) Flush() tea.Cmd {
	if len(w.pending) == 0 {
		return nil
	}
	cmds := w.pending
	w.pending = nil
	return tea.Batch(cmds...)
}
