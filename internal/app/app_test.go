package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gaurav-Gosain/clipfind/internal/clipboard"
	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/pasteguard"
	"github.com/Gaurav-Gosain/clipfind/internal/sysclip"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
)

type fakeService struct {
	writes []string
	text   string
	err    error
}

func (f *fakeService) ReadText(context.Context, clipboard.Channel) (string, error) {
	return f.text, f.err
}

func (f *fakeService) WriteText(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, text)
	return nil
}

const sample = "foo bar foo\nbaz foo\nqux"

func newTestModel(t *testing.T) (*Model, *fakeService) {
	t.Helper()
	service := &fakeService{text: "pasted"}
	m := New(Options{
		Title:   "sample.txt",
		Content: sample,
		Service: service,
		GOOS:    "linux",
	})
	t.Cleanup(m.Close)
	send(m, tea.WindowSizeMsg{Width: 80, Height: 10})
	return m, service
}

// execute runs cmd and gives up on commands that wait on timers or
// channels.
func execute(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// send delivers msg to m and runs every resulting command to completion.
func send(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	drain(m, cmd)
}

func drain(m *Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := execute(next).(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, cmd := m.Update(msg)
			queue = append(queue, cmd)
		}
	}
}

func press(m *Model, keys ...tea.KeyPressMsg) {
	for _, k := range keys {
		send(m, k)
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		send(m, tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

var (
	keyCtrlF  = tea.KeyPressMsg{Code: 'f', Mod: tea.ModCtrl}
	keyCtrlV  = tea.KeyPressMsg{Code: 'v', Mod: tea.ModCtrl}
	keyEnter  = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyEsc    = tea.KeyPressMsg{Code: tea.KeyEscape}
	keyTab    = tea.KeyPressMsg{Code: tea.KeyTab}
	keyBack   = tea.KeyPressMsg{Code: tea.KeyBackspace}
	keyAltC   = tea.KeyPressMsg{Code: 'c', Mod: tea.ModAlt}
	keyHelp   = tea.KeyPressMsg{Code: '?', Text: "?"}
	keyCopy   = tea.KeyPressMsg{Code: 'y', Text: "y"}
	keySelect = tea.KeyPressMsg{Code: 's', Text: "s"}
)

func TestFindFromKeyboard(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, keyCtrlF)
	require.True(t, m.Find.Visible())
	require.True(t, m.Find.InputFocused())
	assert.False(t, m.Surface.Focused())

	typeText(m, "foo")
	assert.Equal(t, "foo", m.Find.Query())
	_, count := m.Find.Results()
	assert.Equal(t, 3, count)
	assert.Len(t, m.Engine.Decorations(), 3)

	press(m, keyBack)
	assert.Equal(t, "fo", m.Find.Query())

	press(m, keyEsc)
	assert.False(t, m.Find.Visible())
	assert.Empty(t, m.Engine.Decorations())
	assert.True(t, m.Surface.Focused())
}

func TestInitialQueryRevealsFind(t *testing.T) {
	m := New(Options{Content: sample, InitialQuery: "baz"})
	t.Cleanup(m.Close)

	drain(m, m.Init())
	assert.True(t, m.Find.InputFocused())
	assert.Equal(t, "baz", m.Find.Query())
	assert.Equal(t, "baz", m.Surface.SelectionText())
}

func TestFindNavigationMovesSelection(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, keyCtrlF)
	typeText(m, "foo")

	seen := map[terminal.Position]bool{}
	for range 3 {
		press(m, keyEnter)
		sel, ok := m.Surface.Selection()
		require.True(t, ok)
		assert.Equal(t, "foo", m.Surface.SelectionText())
		seen[sel.Start] = true
	}
	assert.Len(t, seen, 3, "enter visits every match")
}

func TestFindToggleCaseReruns(t *testing.T) {
	m, _ := newTestModel(t)
	m.Surface.SetContent("Foo foo FOO")
	press(m, keyCtrlF)
	typeText(m, "foo")
	_, count := m.Find.Results()
	require.Equal(t, 3, count)

	press(m, keyAltC)
	assert.True(t, m.Find.SearchOptions().CaseSensitive)
	_, count = m.Find.Results()
	assert.Equal(t, 1, count)
}

func TestTabMovesFocusOutOfFindInput(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, keyCtrlF)
	require.True(t, m.Find.InputFocused())

	press(m, keyTab)
	assert.True(t, m.Find.Visible())
	assert.False(t, m.Find.InputFocused())

	// Keys now reach the viewer instead of the query.
	typeText(m, "x")
	assert.Empty(t, m.Find.Query())

	press(m, keyTab)
	assert.True(t, m.Find.InputFocused())
}

func TestCopyKeyWritesSelection(t *testing.T) {
	m, service := newTestModel(t)
	m.Surface.Select(terminal.Range{
		Start: terminal.Position{Line: 0, Col: 4},
		End:   terminal.Position{Line: 0, Col: 7},
	})
	assert.Empty(t, service.writes, "copy on selection is off by default")

	press(m, keyCopy)
	assert.Equal(t, []string{"bar"}, service.writes)
	require.NotEmpty(t, m.Notifications)
	assert.Equal(t, clipboard.NotifySuccess, m.Notifications[len(m.Notifications)-1].Type)
}

func TestMouseDragCopiesOnSelection(t *testing.T) {
	m, service := newTestModel(t)
	m.Store.Set(config.KeyCopyOnSelection, true)

	send(m, tea.MouseClickMsg{X: 0, Y: 1, Button: tea.MouseLeft})
	send(m, tea.MouseMotionMsg{X: 2, Y: 1, Button: tea.MouseLeft})
	assert.Empty(t, service.writes, "nothing is copied while dragging")
	send(m, tea.MouseReleaseMsg{X: 2, Y: 1, Button: tea.MouseLeft})

	assert.Equal(t, "baz", m.Surface.SelectionText())
	assert.Equal(t, []string{"baz"}, service.writes)
}

func TestMouseDragBelowFindBar(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, keyCtrlF)

	// Row 0 is the find bar, so row 1 shows the first line.
	send(m, tea.MouseClickMsg{X: 4, Y: 1, Button: tea.MouseLeft})
	assert.False(t, m.Find.InputFocused(), "clicking the body leaves the input")
	assert.True(t, m.Surface.Focused())
	send(m, tea.MouseMotionMsg{X: 6, Y: 1, Button: tea.MouseLeft})
	send(m, tea.MouseReleaseMsg{X: 6, Y: 1, Button: tea.MouseLeft})
	assert.Equal(t, "bar", m.Surface.SelectionText())

	send(m, tea.MouseClickMsg{X: 10, Y: 0, Button: tea.MouseLeft})
	assert.True(t, m.Find.InputFocused())
}

func TestRightClickCopiesThenPastes(t *testing.T) {
	m, service := newTestModel(t)
	m.Surface.Select(terminal.Range{
		Start: terminal.Position{Line: 2, Col: 0},
		End:   terminal.Position{Line: 2, Col: 3},
	})

	send(m, tea.MouseClickMsg{X: 0, Y: 0, Button: tea.MouseRight})
	assert.Equal(t, []string{"qux"}, service.writes)
	assert.False(t, m.Surface.HasSelection())
	assert.Empty(t, m.LastPaste())

	send(m, tea.MouseClickMsg{X: 0, Y: 0, Button: tea.MouseRight})
	assert.Equal(t, "pasted", m.LastPaste())
}

func TestPasteKeyWritesClipboard(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, keyCtrlV)
	assert.Equal(t, "pasted", m.LastPaste())
}

func TestPasteFailureNotifies(t *testing.T) {
	m, service := newTestModel(t)
	service.err = clipboard.ErrUnavailable

	press(m, keyCtrlV)
	assert.Empty(t, m.LastPaste())
	require.NotEmpty(t, m.Notifications)
	assert.Equal(t, clipboard.NotifyError, m.Notifications[len(m.Notifications)-1].Type)
}

func TestPasteOverOSC52Notifies(t *testing.T) {
	var out strings.Builder
	m := New(Options{
		Content: sample,
		Service: sysclip.NewOSC52(&out, false),
		GOOS:    "linux",
	})
	t.Cleanup(m.Close)
	send(m, tea.WindowSizeMsg{Width: 80, Height: 10})

	m.Surface.Select(terminal.Range{End: terminal.Position{Col: 3}})
	press(m, keyCopy)
	require.Contains(t, out.String(), "52;c;")

	press(m, keyCtrlV)
	assert.Empty(t, m.LastPaste(), "earlier copies are not pasted back")
	require.NotEmpty(t, m.Notifications)
	last := m.Notifications[len(m.Notifications)-1]
	assert.Equal(t, clipboard.NotifyError, last.Type)
	assert.Contains(t, last.Message, "not available")
}

func TestCtrlVInFindInputEditsQuery(t *testing.T) {
	m, service := newTestModel(t)
	service.text = "ba\nz"
	press(m, keyCtrlF)

	press(m, keyCtrlV)
	assert.Equal(t, "ba z", m.Find.Query())
	assert.Empty(t, m.LastPaste(), "the surface does not receive the paste")
}

func TestHostPaste(t *testing.T) {
	tests := []struct {
		name       string
		openFind   bool
		content    string
		wantQuery  string
		wantOutput string
	}{
		{"surface", false, "echo hi\n", "", "echo hi\r"},
		{"surface strips controls", false, "a\x1b[31mb\x07", "", "ab"},
		{"find input", true, "foo\nbar", "foo bar", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			if tt.openFind {
				press(m, keyCtrlF)
			}
			send(m, tea.PasteMsg{Content: tt.content})
			assert.Equal(t, tt.wantQuery, m.Find.Query())
			assert.Equal(t, tt.wantOutput, m.LastPaste())
		})
	}
}

func TestPromptKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyPressMsg
		want pasteguard.Choice
	}{
		{keyCopy, pasteguard.ChoicePaste},
		{keyEnter, pasteguard.ChoicePaste},
		{keySelect, pasteguard.ChoiceSingleLine},
		{keyEsc, pasteguard.ChoiceCancel},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m, _ := newTestModel(t)
			req := &PromptRequest{
				Prompt: pasteguard.Prompt{Lines: 2, Preview: "a\nb"},
				reply:  make(chan pasteguard.Choice, 1),
			}
			_, _ = m.Update(PromptMsg{Request: req})
			require.NotNil(t, m.Prompt)
			assert.Contains(t, m.render(), "Paste 2 lines?")

			_, _ = m.Update(tt.key)
			assert.Nil(t, m.Prompt)
			assert.Equal(t, tt.want, <-req.reply)
		})
	}
}

func TestPromptReplacesOlderPrompt(t *testing.T) {
	m, _ := newTestModel(t)
	first := &PromptRequest{reply: make(chan pasteguard.Choice, 1)}
	second := &PromptRequest{reply: make(chan pasteguard.Choice, 1)}

	_, _ = m.Update(PromptMsg{Request: first})
	_, _ = m.Update(PromptMsg{Request: second})

	assert.Equal(t, pasteguard.ChoiceCancel, <-first.reply)
	assert.Same(t, second, m.Prompt)
}

func TestPrompterConfirm(t *testing.T) {
	p := NewPrompter()

	done := make(chan pasteguard.Choice, 1)
	go func() {
		choice, err := p.Confirm(context.Background(), pasteguard.Prompt{Lines: 3})
		assert.NoError(t, err)
		done <- choice
	}()

	req := <-p.Requests()
	assert.Equal(t, 3, req.Prompt.Lines)
	req.Answer(pasteguard.ChoiceSingleLine)
	req.Answer(pasteguard.ChoicePaste)

	assert.Equal(t, pasteguard.ChoiceSingleLine, <-done)
}

func TestPrompterConfirmCanceled(t *testing.T) {
	p := NewPrompter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	choice, err := p.Confirm(ctx, pasteguard.Prompt{Lines: 2})
	assert.Equal(t, pasteguard.ChoiceCancel, choice)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNotificationsExpire(t *testing.T) {
	m, _ := newTestModel(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := range 5 {
		m.ShowNotification(strings.Repeat("x", i+1), clipboard.NotifyInfo, time.Second)
	}
	require.Len(t, m.Notifications, maxNotifications)
	assert.Equal(t, "xxxxx", m.Notifications[maxNotifications-1].Message)

	now = now.Add(500 * time.Millisecond)
	_, _ = m.Update(NotificationExpiredMsg{})
	assert.Len(t, m.Notifications, maxNotifications)

	now = now.Add(time.Second)
	_, _ = m.Update(NotificationExpiredMsg{})
	assert.Empty(t, m.Notifications)
}

func TestConfigReloadRerunsVisibleFind(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, keyCtrlF)
	typeText(m, "foo")
	_, count := m.Find.Results()
	require.Equal(t, 3, count)

	m.Surface.SetContent("foo foo")
	cfg := *m.Store.Config()
	cfg.Appearance.Theme = "dracula"
	send(m, ConfigReloadMsg{Config: &cfg})

	assert.Equal(t, "dracula", m.Store.String(config.KeyTheme))
	_, count = m.Find.Results()
	assert.Equal(t, 2, count)
}

func TestConfigReloadUpdatesMaxMatches(t *testing.T) {
	m, _ := newTestModel(t)
	cfg := *m.Store.Config()
	cfg.Search.MaxMatches = 2
	send(m, ConfigReloadMsg{Config: &cfg})

	press(m, keyCtrlF)
	typeText(m, "foo")
	_, count := m.Find.Results()
	assert.Equal(t, 2, count)
}

func TestConfigReloadRerunUsesNewMaxMatches(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, keyCtrlF)
	typeText(m, "foo")
	_, count := m.Find.Results()
	require.Equal(t, 3, count)

	cfg := *m.Store.Config()
	cfg.Search.MaxMatches = 1
	send(m, ConfigReloadMsg{Config: &cfg})

	_, count = m.Find.Results()
	assert.Equal(t, 1, count, "the rerun sees the new limit")
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)

	press(m, keyHelp)
	require.True(t, m.ShowHelp)
	assert.Contains(t, m.render(), "Copy selection")
	assert.NotContains(t, m.render(), "Toggle regex", "find bindings need the find bar")

	press(m, keyCopy)
	assert.False(t, m.ShowHelp, "any key closes help")
}

func TestWheelScrollIsClamped(t *testing.T) {
	m := New(Options{Content: strings.Repeat("line\n", 50)})
	t.Cleanup(m.Close)
	send(m, tea.WindowSizeMsg{Width: 40, Height: 11})

	send(m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	assert.Equal(t, wheelLines, m.Scroll())

	for range 30 {
		send(m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	}
	assert.Equal(t, m.Surface.LineCount()-10, m.Scroll())

	for range 30 {
		send(m, tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	}
	assert.Equal(t, 0, m.Scroll())
}

func TestFindBarStatus(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, keyCtrlF)
	typeText(m, "zzz")
	assert.Contains(t, m.render(), "No results")

	press(m, tea.KeyPressMsg{Code: 'u', Mod: tea.ModCtrl})
	typeText(m, "baz")
	assert.Contains(t, m.render(), "1 of 1")
}

func TestColumnAt(t *testing.T) {
	tests := []struct {
		line string
		x    int
		want int
	}{
		{"hello", 0, 0},
		{"hello", 3, 3},
		{"hello", 9, 5},
		{"日本語", 2, 1},
		{"日本語", 3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columnAt(tt.line, tt.x), "%q at %d", tt.line, tt.x)
	}
}

func TestDispatcherActions(t *testing.T) {
	d := NewActionDispatcher()
	for _, action := range viewerKeys {
		assert.True(t, d.HasAction(action), action)
	}
	for _, action := range findInputKeys {
		assert.True(t, d.HasAction(action), action)
	}
	assert.False(t, d.HasAction("missing"))
}
