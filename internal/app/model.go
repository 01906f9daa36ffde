// Package app hosts the clipfind viewer: a Bubble Tea program that shows a
// terminal surface with the find bar, routes keys and mouse events to the
// clipboard coordinator and the find widget, and renders notifications and
// the paste confirmation prompt.
package app

import (
	"context"
	"io"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/clipfind/internal/clipboard"
	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/find"
	"github.com/Gaurav-Gosain/clipfind/internal/pasteguard"
	"github.com/Gaurav-Gosain/clipfind/internal/search"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
	"github.com/Gaurav-Gosain/clipfind/internal/theme"
)

// Options configures a Model.
type Options struct {
	Title   string
	Content string
	Store   *config.Store
	Service clipboard.Service
	Logger  *log.Logger
	// ConfigUpdates delivers configurations reloaded from disk.
	ConfigUpdates <-chan *config.UserConfig
	Context       context.Context
	GOOS          string
	// InitialQuery opens the find bar on start when set.
	InitialQuery string
}

// Model is the viewer's Bubble Tea model.
type Model struct {
	Title  string
	Width  int
	Height int

	Surface *terminal.Surface
	Engine  *search.Engine
	Clip    *clipboard.Coordinator
	Find    *find.Widget
	Store   *config.Store

	Notifications []Notification
	ShowHelp      bool
	Prompt        *PromptRequest

	service       clipboard.Service
	prompter      *Prompter
	input         *inputLog
	configUpdates <-chan *config.UserConfig
	ctx           context.Context
	initialQuery  string
	logger        *log.Logger
	dispatcher    *ActionDispatcher

	scroll   int
	dragging bool
	pending  []tea.Cmd
	unsubs   []func()
	now      func() time.Time
}

// inputLog is the surface's input sink. Without a child process attached
// it records what was pasted so the status line can show it.
type inputLog struct {
	last  []byte
	total int
}

func (l *inputLog) Write(p []byte) (int, error) {
	l.last = append(l.last[:0], p...)
	l.total += len(p)
	return len(p), nil
}

// New creates the viewer model and wires its components together.
func New(opts Options) *Model {
	store := opts.Store
	if store == nil {
		store = config.NewStore(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	m := &Model{
		Title:         opts.Title,
		Store:         store,
		service:       opts.Service,
		prompter:      NewPrompter(),
		input:         &inputLog{},
		configUpdates: opts.ConfigUpdates,
		ctx:           ctx,
		initialQuery:  opts.InitialQuery,
		logger:        logger,
		dispatcher:    NewActionDispatcher(),
		now:           time.Now,
	}

	m.Surface = terminal.New(m.input)
	m.Surface.SetContent(opts.Content)
	m.Surface.Focus()
	m.Engine = search.New(m.Surface, store.Config().Search.MaxMatches)

	m.Clip = clipboard.New(clipboard.Options{
		Service:  opts.Service,
		Guard:    pasteguard.New(store, m.prompter),
		Settings: store,
		Notifier: m,
		Logger:   logger.WithPrefix("clipboard"),
		Context:  ctx,
		GOOS:     opts.GOOS,
	})
	m.Clip.Attach(m.Surface)

	// Subscribed before the find widget so engine limits are current when
	// a config change reruns the search.
	m.unsubs = append(m.unsubs, store.OnDidChange(m.handleConfigChange))

	m.Find = find.New(find.Options{
		Terminal:  m.Surface,
		Engine:    m.Engine,
		Clipboard: m.Clip,
		Settings:  store,
		Logger:    logger.WithPrefix("find"),
	})

	return m
}

// Close detaches every component.
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.Find.Close()
	m.Clip.Detach()
}

// Init starts listening for paste prompts and configuration reloads.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		WaitForPromptCmd(m.ctx, m.prompter.Requests()),
		ListenForConfigCmd(m.configUpdates),
	}
	if m.initialQuery != "" {
		cmds = append(cmds, m.Find.Reveal(m.initialQuery), m.Find.Flush())
	}
	return tea.Batch(cmds...)
}

// Update routes msg to the clipboard coordinator, the find widget and the
// viewer itself, then collects the commands their event handlers queued.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{
		m.Clip.Update(msg),
		m.Find.Update(msg),
		m.update(msg),
	}
	cmds = append(cmds, m.Clip.Flush(), m.Find.Flush(), m.flush())
	return m, tea.Batch(cmds...)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.clampScroll()
		return nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.PasteMsg:
		return m.handleHostPaste(msg.Content)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		m.handleMouseMotion(msg)
		return nil

	case tea.MouseReleaseMsg:
		m.handleMouseRelease(msg)
		return nil

	case tea.MouseWheelMsg:
		m.handleMouseWheel(msg)
		return nil

	case PromptMsg:
		if m.Prompt != nil {
			// One prompt at a time; the guard of an older paste loses.
			m.Prompt.Answer(pasteguard.ChoiceCancel)
		}
		m.Prompt = msg.Request
		return WaitForPromptCmd(m.ctx, m.prompter.Requests())

	case ConfigReloadMsg:
		m.logger.Info("configuration reloaded")
		m.Store.Replace(msg.Config)
		return ListenForConfigCmd(m.configUpdates)

	case NotificationExpiredMsg:
		m.CleanupNotifications()
		return nil

	case findPasteMsg:
		if msg.err != nil {
			m.Notify(clipboard.NotifyError, "Clipboard paste failed")
			return nil
		}
		if !m.Find.InputFocused() {
			return nil
		}
		return m.Find.SetQuery(m.Find.Query() + pasteguard.SingleLine(pasteguard.Sanitize(msg.text)))
	}
	return nil
}

func (m *Model) handleConfigChange(ev config.ChangeEvent) {
	cfg := m.Store.Config()
	if ev.Affects(config.KeyTheme) {
		if err := theme.Initialize(cfg.Appearance.Theme); err != nil {
			m.Notify(clipboard.NotifyWarning, err.Error())
		}
	}
	if ev.Affects(config.KeySearchMaxMatches) {
		m.Engine.SetMaxMatches(cfg.Search.MaxMatches)
	}
	if ev.Affects(config.KeyLogLevel) {
		if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
			m.logger.SetLevel(level)
		}
	}
}

func (m *Model) handleHostPaste(content string) tea.Cmd {
	if m.Find.InputFocused() {
		return m.Find.SetQuery(m.Find.Query() + pasteguard.SingleLine(pasteguard.Sanitize(content)))
	}
	if err := m.Surface.Paste(pasteguard.Sanitize(content)); err != nil {
		m.logger.Error("paste failed", "err", err)
	}
	return nil
}

// pasteIntoFind reads the clipboard for the find input.
func (m *Model) pasteIntoFind() tea.Cmd {
	if m.service == nil {
		return nil
	}
	service, ctx := m.service, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		text, err := service.ReadText(ctx, clipboard.ChannelDefault)
		return findPasteMsg{text: text, err: err}
	}
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

func (m *Model) flush() tea.Cmd {
	if len(m.pending) == 0 {
		return nil
	}
	cmds := m.pending
	m.pending = nil
	return tea.Batch(cmds...)
}

// LastPaste returns the most recent payload written to the surface input.
func (m *Model) LastPaste() string {
	return string(m.input.last)
}
