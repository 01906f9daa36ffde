package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/Gaurav-Gosain/clipfind/internal/config"
)

// ConfigReloadMsg carries a configuration reloaded from disk.
type ConfigReloadMsg struct {
	Config *config.UserConfig
}

// PromptMsg asks the user to confirm a multi-line paste.
type PromptMsg struct {
	Request *PromptRequest
}

// NotificationExpiredMsg is sent when a notification may have expired.
type NotificationExpiredMsg struct{}

// findPasteMsg carries clipboard text read for the find input.
type findPasteMsg struct {
	text string
	err  error
}

// WaitForPromptCmd creates a command that waits for the next paste prompt.
// It is re-armed after every prompt and stops when ctx is done.
func WaitForPromptCmd(ctx context.Context, ch <-chan *PromptRequest) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case req, ok := <-ch:
			if !ok {
				// Channel closed, return nil to stop listening
				return nil
			}
			return PromptMsg{Request: req}
		case <-ctx.Done():
			return nil
		}
	}
}

// ListenForConfigCmd creates a command that waits for the next reloaded
// configuration.
func ListenForConfigCmd(ch <-chan *config.UserConfig) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return ConfigReloadMsg{Config: cfg}
	}
}

// NotificationExpiryCmd fires once a notification shown now has expired.
func NotificationExpiryCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return NotificationExpiredMsg{}
	})
}
