// Package server serves the viewer over SSH. Every session gets its own
// viewer on the shared content; the clipboard is the client's, reached
// through OSC 52.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/wish/v2"
	"charm.land/wish/v2/bubbletea"
	"charm.land/wish/v2/logging"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"

	"github.com/Gaurav-Gosain/clipfind/internal/app"
	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/sysclip"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	Host    string
	Port    string
	KeyPath string

	Title   string
	Content string
	// Config is copied into a fresh store for every session.
	Config *config.UserConfig
	Logger *log.Logger
}

// StartSSHServer runs the SSH server until ctx is canceled.
func StartSSHServer(ctx context.Context, cfg *SSHServerConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	hostKeyPath, err := resolveHostKeyPath(cfg.KeyPath)
	if err != nil {
		return err
	}

	server, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			// Bubble Tea middleware for interactive sessions
			bubbletea.Middleware(newTeaHandler(cfg, logger)),
			// Logging middleware for connection tracking
			logging.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting SSH server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("SSH server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func resolveHostKeyPath(keyPath string) (string, error) {
	if keyPath != "" {
		return keyPath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ssh", "clipfind_host_key"), nil
}

// newTeaHandler creates a viewer for each SSH session.
func newTeaHandler(cfg *SSHServerConfig, logger *log.Logger) bubbletea.Handler {
	return func(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
		if _, _, active := sess.Pty(); !active {
			fmt.Fprintln(sess.Stderr(), "clipfind requires a terminal, connect with ssh -t")
			return nil, nil
		}

		sessionLogger := logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())
		m := app.New(app.Options{
			Title:        sessionTitle(cfg.Title, sess.User()),
			Content:      cfg.Content,
			Store:        config.NewStore(cloneConfig(cfg.Config)),
			Service:      sysclip.NewOSC52(sess, false),
			Logger:       sessionLogger,
			Context:      sess.Context(),
			InitialQuery: parseSSHCommand(sess.Command()),
		})
		sessionLogger.Info("session started")
		return m, nil
	}
}

func cloneConfig(cfg *config.UserConfig) *config.UserConfig {
	if cfg == nil {
		return config.DefaultConfig()
	}
	c := *cfg
	if cfg.Terminal.CopyOnSelection != nil {
		v := *cfg.Terminal.CopyOnSelection
		c.Terminal.CopyOnSelection = &v
	}
	return &c
}

func sessionTitle(title, user string) string {
	if user == "" {
		return title
	}
	if title == "" {
		return "@" + user
	}
	return title + " @" + user
}

// parseSSHCommand returns the initial find query of "ssh -t host find <query>".
func parseSSHCommand(cmd []string) string {
	if len(cmd) < 2 || cmd[0] != "find" {
		return ""
	}
	return strings.Join(cmd[1:], " ")
}
