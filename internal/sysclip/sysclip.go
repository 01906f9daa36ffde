// Package sysclip provides clipboard services for the clipboard
// coordinator: the host clipboard through atotto/clipboard, and OSC 52 for
// sessions where the host clipboard is out of reach.
package sysclip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"

	clip "github.com/Gaurav-Gosain/clipfind/internal/clipboard"
)

// ErrUnavailable reports that no clipboard tool exists on the host.
var ErrUnavailable = clip.ErrUnavailable

// System reads and writes the host clipboard. On X11 and Wayland the
// selection channel maps to the PRIMARY selection; elsewhere it falls back
// to the regular clipboard.
type System struct {
	mu sync.Mutex
}

// NewSystem returns the host clipboard service.
func NewSystem() *System {
	return &System{}
}

// Available reports whether a clipboard tool was found.
func (s *System) Available() bool {
	return !clipboard.Unsupported
}

// ReadText reads ch.
func (s *System) ReadText(ctx context.Context, ch clip.Channel) (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnavailable
	}
	return run(ctx, func() (string, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		restore := usePrimary(ch == clip.ChannelSelection)
		defer restore()
		return clipboard.ReadAll()
	})
}

// WriteText writes text to the regular clipboard.
func (s *System) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	_, err := run(ctx, func() (string, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return "", clipboard.WriteAll(text)
	})
	return err
}

// run calls fn on its own goroutine so a hung clipboard tool cannot outlive ctx.
func run(ctx context.Context, fn func() (string, error)) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := fn()
		done <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("clipboard tool did not respond: %w", ctx.Err())
	case r := <-done:
		return r.text, r.err
	}
}

// OSC52 writes the clipboard through the terminal with OSC 52 escape
// sequences. It is write-only: terminals rarely answer OSC 52 queries, so
// reads report ErrUnavailable.
type OSC52 struct {
	mu   sync.Mutex
	w    io.Writer
	tmux bool
}

// NewOSC52 returns a service writing sequences to w. tmux wraps them in
// the tmux passthrough envelope.
func NewOSC52(w io.Writer, tmux bool) *OSC52 {
	return &OSC52{w: w, tmux: tmux}
}

// InTmux reports whether environ describes a tmux or screen session.
func InTmux(environ []string) bool {
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case key == "TMUX" && value != "":
			return true
		case key == "TERM" && (strings.HasPrefix(value, "tmux") || strings.HasPrefix(value, "screen")):
			return true
		}
	}
	return false
}

// ReadText always fails with ErrUnavailable.
func (o *OSC52) ReadText(_ context.Context, ch clip.Channel) (string, error) {
	return "", fmt.Errorf("osc52 cannot read the %s clipboard: %w", ch, ErrUnavailable)
}

// WriteText sets both the clipboard and the primary selection.
func (o *OSC52) WriteText(_ context.Context, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, seq := range []osc52.Sequence{osc52.New(text), osc52.New(text).Primary()} {
		if o.tmux {
			seq = seq.Tmux()
		}
		if _, err := seq.WriteTo(o.w); err != nil {
			return fmt.Errorf("failed to write osc52 sequence: %w", err)
		}
	}
	return nil
}

// Fallback uses Primary and switches writes to Secondary for good once
// Primary reports ErrUnavailable. Reads never fall back: an unavailable
// clipboard is reported to the caller.
type Fallback struct {
	Primary   clip.Service
	Secondary clip.Service

	mu       sync.Mutex
	degraded bool
}

// Local returns the service used by the local viewer: the host clipboard,
// falling back to OSC 52 on stderr when no clipboard tool is installed.
func Local() *Fallback {
	return &Fallback{
		Primary:   NewSystem(),
		Secondary: NewOSC52(os.Stderr, InTmux(os.Environ())),
	}
}

func (f *Fallback) current() clip.Service {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return f.Secondary
	}
	return f.Primary
}

func (f *Fallback) degrade(err error) bool {
	if !errors.Is(err, ErrUnavailable) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded = true
	return true
}

// ReadText reads from Primary.
func (f *Fallback) ReadText(ctx context.Context, ch clip.Channel) (string, error) {
	text, err := f.Primary.ReadText(ctx, ch)
	if err != nil {
		f.degrade(err)
		return "", err
	}
	return text, nil
}

// WriteText writes to the active service.
func (f *Fallback) WriteText(ctx context.Context, text string) error {
	err := f.current().WriteText(ctx, text)
	if err != nil && f.degrade(err) {
		return f.Secondary.WriteText(ctx, text)
	}
	return err
}
