package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/Gaurav-Gosain/clipfind/internal/app"
	"github.com/Gaurav-Gosain/clipfind/internal/config"
	"github.com/Gaurav-Gosain/clipfind/internal/logging"
	"github.com/Gaurav-Gosain/clipfind/internal/server"
	"github.com/Gaurav-Gosain/clipfind/internal/sysclip"
	"github.com/Gaurav-Gosain/clipfind/internal/terminal"
	"github.com/Gaurav-Gosain/clipfind/internal/theme"
)

// maxContentSize bounds what is read from a file or a pipe.
const maxContentSize = 64 << 20

// filterMouseMotion drops motion events unless a selection is being dragged.
func filterMouseMotion(model tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.MouseMotionMsg); !ok {
		return msg
	}
	m, ok := model.(*app.Model)
	if !ok {
		return msg
	}
	if m.Surface.Selecting() {
		return msg
	}
	return nil
}

func overrides() config.Overrides {
	return config.Overrides{
		ThemeName:       themeName,
		CopyOnSelect:    copyOnSelect,
		NoCopyOnSelect:  noCopyOnSelect,
		PasteWarning:    pasteWarning,
		MiddleClickMode: middleClickMode,
	}
}

// loadConfig loads the user configuration with the command-line overrides
// applied. A broken file falls back to the defaults.
func loadConfig() *config.UserConfig {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		log.Warn("failed to load config, using defaults", "err", err)
		userConfig = config.DefaultConfig()
	}
	config.ApplyOverrides(userConfig, overrides())
	return userConfig
}

func logLevel(cfg *config.UserConfig) log.Level {
	if debugMode {
		return log.DebugLevel
	}
	return logging.ParseLevel(cfg.Log.Level)
}

// readContent reads the named file, or standard input when no file is given
// and input is piped.
func readContent(args []string, stdin *os.File) (name, content string, err error) {
	var r io.Reader
	switch {
	case len(args) > 0 && args[0] != "-":
		// #nosec G304 - viewing the file named on the command line is the point
		f, err := os.Open(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		name, r = filepath.Base(args[0]), f
	case term.IsTerminal(int(stdin.Fd())):
		return "", "", fmt.Errorf("no input: pass a file or pipe text into clipfind")
	default:
		name, r = "stdin", stdin
	}

	data, err := io.ReadAll(io.LimitReader(r, maxContentSize))
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return name, string(data), nil
}

// openTTY returns the controlling terminal for keyboard input when standard
// input carries the content.
func openTTY() (*os.File, error) {
	path := "/dev/tty"
	if runtime.GOOS == "windows" {
		path = "CONIN$"
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return f, nil
}

// forwardReloads applies the command-line overrides to every reloaded
// configuration so flags keep winning over the file.
func forwardReloads(ctx context.Context, in <-chan *config.UserConfig) <-chan *config.UserConfig {
	out := make(chan *config.UserConfig)
	go func() {
		defer close(out)
		for cfg := range in {
			config.ApplyOverrides(cfg, overrides())
			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func runLocal(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	name, content, err := readContent(args, os.Stdin)
	if err != nil {
		return err
	}
	if title != "" {
		name = title
	}

	userConfig := loadConfig()

	// The viewer owns the screen, so logs go to a file.
	logFile, err := logging.OpenFile()
	if err != nil {
		logging.Setup(io.Discard, logLevel(userConfig), logging.ParseFormat(logFormat))
	} else {
		defer func() { _ = logFile.Close() }()
		logging.Setup(logFile, logLevel(userConfig), logging.ParseFormat(logFormat))
	}
	logger := logging.New("app")

	if err := theme.Initialize(userConfig.Appearance.Theme); err != nil {
		logger.Warn("theme", "err", err)
	}

	var updates <-chan *config.UserConfig
	if configPath, err := config.GetConfigPath(); err == nil {
		if ch, err := config.Watch(ctx, configPath, logging.New("config")); err != nil {
			logger.Warn("config changes will not be picked up", "err", err)
		} else {
			updates = forwardReloads(ctx, ch)
		}
		logger.Debug("configuration", "path", configPath)
	}

	model := app.New(app.Options{
		Title:         name,
		Content:       content,
		Store:         config.NewStore(userConfig),
		Service:       sysclip.Local(),
		Logger:        logger,
		ConfigUpdates: updates,
		Context:       ctx,
		GOOS:          runtime.GOOS,
		InitialQuery:  initialQuery,
	})

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
		tea.WithFilter(filterMouseMotion),
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		tty, err := openTTY()
		if err != nil {
			return err
		}
		defer func() { _ = tty.Close() }()
		opts = append(opts, tea.WithInput(tty))
	}

	p := tea.NewProgram(model, opts...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			p.Send(tea.QuitMsg{})
		case <-ctx.Done():
		}
	}()

	_, err = p.Run()
	model.Close()
	if err != nil {
		_ = terminal.RestoreHost(os.Stdout)
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func runSSHServer(ctx context.Context, sshHost, sshPort, sshKeyPath string, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	name, content, err := readContent(args, os.Stdin)
	if err != nil {
		return err
	}
	if title != "" {
		name = title
	}

	userConfig := loadConfig()
	logging.Setup(os.Stderr, logLevel(userConfig), logging.ParseFormat(logFormat))
	logger := logging.New("ssh")

	if err := theme.Initialize(userConfig.Appearance.Theme); err != nil {
		logger.Warn("theme", "err", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := &server.SSHServerConfig{
		Host:    sshHost,
		Port:    sshPort,
		KeyPath: sshKeyPath,
		Title:   name,
		Content: content,
		Config:  userConfig,
		Logger:  logger,
	}
	if err := server.StartSSHServer(ctx, cfg); err != nil {
		return fmt.Errorf("SSH server error: %w", err)
	}
	return nil
}
