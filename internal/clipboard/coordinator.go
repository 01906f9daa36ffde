// Package clipboard arbitrates copy and paste between a terminal surface and
// the system clipboard. It decides when a selection is copied automatically,
// preprocesses pasted text through a guard, and lets other components mute
// copy-on-selection through an exclusive override.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/event"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
)

// ErrUnavailable reports that the host has no usable clipboard.
var ErrUnavailable = errors.New("clipboard unavailable")

// Channel selects the clipboard buffer to read from.
type Channel string

const (
	// ChannelDefault is the regular copy/paste buffer.
	ChannelDefault Channel = "default"
	// ChannelSelection is the buffer filled by selecting text (X11 PRIMARY).
	ChannelSelection Channel = "selection"
)

// Notification kinds passed to Notifier.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

const defaultTimeout = 5 * time.Second

// Terminal is the part of the terminal surface the coordinator drives.
type Terminal interface {
	HasSelection() bool
	Selection() (terminal.Range, bool)
	SelectionText() string
	SelectionHTML() string
	ClearSelection()
	Focus()
	BracketedPasteMode() bool
	Paste(text string) error
	OnSelectionChange(fn func()) func()
	OnCopyAsHTMLRequest(fn func()) func()
}

// Service reads and writes the system clipboard.
type Service interface {
	ReadText(ctx context.Context, ch Channel) (string, error)
	WriteText(ctx context.Context, text string) error
}

// Verdict is a paste guard decision.
type Verdict struct {
	Allow bool
	Text  string
}

// Approve allows a paste of text.
func Approve(text string) Verdict { return Verdict{Allow: true, Text: text} }

// Reject declines a paste.
func Reject() Verdict { return Verdict{} }

// Guard inspects clipboard text before it is pasted.
type Guard interface {
	Check(ctx context.Context, text string, bracketed bool) (Verdict, error)
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(ctx context.Context, text string, bracketed bool) (Verdict, error)

// Check calls f.
func (f GuardFunc) Check(ctx context.Context, text string, bracketed bool) (Verdict, error) {
	return f(ctx, text, bracketed)
}

// Settings answers configuration lookups by dotted key.
type Settings interface {
	Bool(key string) bool
	String(key string) string
}

// Notifier shows short user-visible notices.
type Notifier interface {
	Notify(kind, message string)
}

// WillPasteEvent fires right before pasted text is written to the terminal.
type WillPasteEvent struct {
	ID      string
	Channel Channel
}

// DidPasteEvent fires after pasted text was written to the terminal.
type DidPasteEvent struct {
	ID      string
	Channel Channel
	Text    string
}

// Options configures a Coordinator.
type Options struct {
	Service  Service
	Guard    Guard // nil approves every paste unchanged
	Settings Settings
	Notifier Notifier
	Logger   *log.Logger
	Context  context.Context
	Timeout  time.Duration
	GOOS     string // defaults to runtime.GOOS
}

// Coordinator owns copy-on-selection and paste preprocessing for one
// terminal. All methods must be called from the program's update loop.
type Coordinator struct {
	service  Service
	guard    Guard
	settings Settings
	notifier Notifier
	logger   *log.Logger
	ctx      context.Context
	timeout  time.Duration
	goos     string

	term   Terminal
	unsubs []func()

	lock    overrideLock
	last    *snapshot
	pending []tea.Cmd

	willPaste event.Emitter[WillPasteEvent]
	didPaste  event.Emitter[DidPasteEvent]
}

type snapshot struct {
	text string
	rng  terminal.Range
}

type copiedMsg struct {
	source     string
	chars      int
	automatic  bool
	clearAfter bool
	err        error
}

type pasteReadyMsg struct {
	id      string
	channel Channel
	verdict Verdict
	release Release
	err     error
}

type clearSelectionMsg struct{}

// New creates a coordinator. Attach it to a terminal before use.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		service:  opts.Service,
		guard:    opts.Guard,
		settings: opts.Settings,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		ctx:      opts.Context,
		timeout:  opts.Timeout,
		goos:     opts.GOOS,
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.goos == "" {
		c.goos = runtime.GOOS
	}
	return c
}

// Attach binds the coordinator to term and subscribes to its events.
// A previously attached terminal is detached first.
func (c *Coordinator) Attach(term Terminal) {
	c.Detach()
	c.term = term
	c.unsubs = append(c.unsubs,
		term.OnSelectionChange(c.handleSelectionChange),
		term.OnCopyAsHTMLRequest(func() {
			c.queue(c.CopySelection(true, "request"))
		}),
	)
}

// Detach drops the terminal and its subscriptions.
func (c *Coordinator) Detach() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
	c.term = nil
	c.last = nil
}

// OverrideCopyOnSelection mutes (false) or forces (true) copy-on-selection
// until the returned Release is called. Only one holder is allowed at a time;
// acquiring while held fails with ErrIllegalState.
func (c *Coordinator) OverrideCopyOnSelection(value bool) (Release, error) {
	return c.lock.acquire(value)
}

// CopyOnSelectionOverride returns the override value and whether it is held.
func (c *Coordinator) CopyOnSelectionOverride() (value, held bool) {
	return c.lock.get()
}

// OnWillPaste subscribes to pastes about to be written.
func (c *Coordinator) OnWillPaste(fn func(WillPasteEvent)) func() {
	return c.willPaste.Subscribe(fn)
}

// OnDidPaste subscribes to completed pastes.
func (c *Coordinator) OnDidPaste(fn func(DidPasteEvent)) func() {
	return c.didPaste.Subscribe(fn)
}

// Flush returns the commands queued by event handlers since the last call.
func (c *Coordinator) Flush() tea.Cmd {
	if len(c.pending) == 0 {
		return nil
	}
	cmds := c.pending
	c.pending = nil
	return tea.Batch(cmds...)
}

func (c *Coordinator) queue(cmd tea.Cmd) {
	if cmd != nil {
		c.pending = append(c.pending, cmd)
	}
}

func (c *Coordinator) handleSelectionChange() {
	if c.term == nil || c.settings == nil || !c.settings.Bool(config.KeyCopyOnSelection) {
		return
	}
	if value, held := c.lock.get(); held && !value {
		return
	}
	rng, ok := c.term.Selection()
	if !ok {
		return
	}
	text := c.term.SelectionText()
	if c.last != nil && c.last.text == text && c.last.rng == rng {
		return
	}
	c.last = &snapshot{text: text, rng: rng}
	c.queue(c.write(text, "selection", true, false))
}

// CopySelection copies the current selection as plain text or HTML.
// Nothing happens when the terminal has no selection.
func (c *Coordinator) CopySelection(asHTML bool, source string) tea.Cmd {
	return c.copySelection(asHTML, source, false)
}

func (c *Coordinator) copySelection(asHTML bool, source string, clearAfter bool) tea.Cmd {
	if c.term == nil || !c.term.HasSelection() {
		return nil
	}
	text := c.term.SelectionText()
	if asHTML {
		text = c.term.SelectionHTML()
	}
	return c.write(text, source, false, clearAfter)
}

func (c *Coordinator) write(text, source string, automatic, clearAfter bool) tea.Cmd {
	if c.service == nil {
		return nil
	}
	service, base, timeout := c.service, c.ctx, c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		err := service.WriteText(ctx, text)
		if err != nil {
			err = fmt.Errorf("failed to write clipboard: %w", err)
		}
		return copiedMsg{
			source:     source,
			chars:      utf8.RuneCountInString(text),
			automatic:  automatic,
			clearAfter: clearAfter,
			err:        err,
		}
	}
}

// Paste reads the default clipboard and pastes it into the terminal.
func (c *Coordinator) Paste() tea.Cmd {
	return c.paste(ChannelDefault, nil)
}

// PasteFromSelectionClipboard pastes the selection clipboard. The override
// is held with false until the paste resolves. When another caller already
// holds the override the paste runs under that holder.
func (c *Coordinator) PasteFromSelectionClipboard() tea.Cmd {
	if c.term == nil {
		return nil
	}
	release, err := c.lock.acquire(false)
	if err != nil {
		c.logger.Debug("selection paste runs under existing override", "err", err)
		release = nil
	}
	cmd := c.paste(ChannelSelection, release)
	if cmd == nil && release != nil {
		release()
	}
	return cmd
}

func (c *Coordinator) paste(ch Channel, release Release) tea.Cmd {
	if c.term == nil || c.service == nil {
		return nil
	}
	service, guard, base, timeout := c.service, c.guard, c.ctx, c.timeout
	bracketed := c.term.BracketedPasteMode()
	id := uuid.NewString()

	return func() tea.Msg {
		msg := pasteReadyMsg{id: id, channel: ch, release: release}

		readCtx, cancel := context.WithTimeout(base, timeout)
		text, err := service.ReadText(readCtx, ch)
		cancel()
		if err != nil {
			msg.err = fmt.Errorf("failed to read clipboard: %w", err)
			return msg
		}

		if guard == nil {
			msg.verdict = Approve(text)
			return msg
		}
		// The guard may wait on the user, so it only gets the base context.
		verdict, err := guard.Check(base, text, bracketed)
		if err != nil {
			msg.err = fmt.Errorf("paste guard failed: %w", err)
			return msg
		}
		msg.verdict = verdict
		return msg
	}
}

// Update handles the coordinator's own messages and returns follow-up
// commands. Unrelated messages are ignored.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case copiedMsg:
		return c.handleCopied(msg)
	case pasteReadyMsg:
		c.handlePaste(msg)
	case clearSelectionMsg:
		if c.term != nil {
			c.term.ClearSelection()
		}
	}
	return nil
}

func (c *Coordinator) handleCopied(msg copiedMsg) tea.Cmd {
	if msg.err != nil {
		c.logger.Error("copy failed", "source", msg.source, "err", msg.err)
		c.notifyFailure("copy", msg.err)
		return nil
	}
	c.logger.Debug("copied selection", "source", msg.source, "chars", msg.chars, "automatic", msg.automatic)
	if !msg.automatic {
		c.notify(NotifySuccess, fmt.Sprintf("Copied %d characters", msg.chars))
	}
	if !msg.clearAfter || c.term == nil {
		return nil
	}
	// Clearing in the same turn races the native selection on macOS.
	if c.goos == "darwin" {
		return func() tea.Msg { return clearSelectionMsg{} }
	}
	c.term.ClearSelection()
	return nil
}

func (c *Coordinator) handlePaste(msg pasteReadyMsg) {
	if msg.release != nil {
		defer msg.release()
	}
	if msg.err != nil {
		c.logger.Error("paste failed", "channel", msg.channel, "err", msg.err)
		c.notifyFailure("paste", msg.err)
		return
	}
	if !msg.verdict.Allow {
		c.logger.Debug("paste rejected by guard", "id", msg.id)
		return
	}
	if c.term == nil {
		return
	}

	c.term.Focus()
	c.willPaste.Emit(WillPasteEvent{ID: msg.id, Channel: msg.channel})
	if err := c.term.Paste(msg.verdict.Text); err != nil {
		c.logger.Error("paste failed", "id", msg.id, "err", err)
		c.notify(NotifyError, "Paste failed")
	}
	c.didPaste.Emit(DidPasteEvent{ID: msg.id, Channel: msg.channel, Text: msg.verdict.Text})
}

// HandleMouseClick applies the configured middle and right click behavior.
// A single click never both copies and pastes.
func (c *Coordinator) HandleMouseClick(button tea.MouseButton) tea.Cmd {
	if c.term == nil || c.settings == nil {
		return nil
	}
	switch button {
	case tea.MouseMiddle:
		if c.settings.String(config.KeyMiddleClickBehavior) != config.MiddleClickPaste {
			return nil
		}
		if c.goos == "linux" {
			return c.PasteFromSelectionClipboard()
		}
		return c.Paste()
	case tea.MouseRight:
		switch c.settings.String(config.KeyRightClickBehavior) {
		case config.RightClickCopyPaste:
			if c.term.HasSelection() {
				return c.copySelection(false, "mouse", true)
			}
			return c.Paste()
		case config.RightClickPaste:
			return c.Paste()
		}
	}
	return nil
}

func (c *Coordinator) notify(kind, message string) {
	if c.notifier != nil {
		c.notifier.Notify(kind, message)
	}
}

func (c *Coordinator) notifyFailure(op string, err error) {
	if errors.Is(err, ErrUnavailable) {
		c.notify(NotifyError, "Clipboard is not available on this system")
		return
	}
	c.notify(NotifyError, fmt.Sprintf("Clipboard %s failed", op))
}
