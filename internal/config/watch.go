package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file at path whenever it changes and sends each
// successfully parsed configuration on the returned channel. The directory
// is watched so editors that replace the file atomically are handled.
// The channel is closed when ctx is done. Reload problems are reported
// through logger; nil uses the default logger.
func Watch(ctx context.Context, path string, logger *log.Logger) (<-chan *UserConfig, error) {
	if logger == nil {
		logger = log.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	out := make(chan *UserConfig)
	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					debounce = time.After(ConfigReloadDebounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "err", err)
			case <-debounce:
				debounce = nil
				cfg, err := loadFile(path, logger)
				if err != nil {
					logger.Warn("config reload failed, keeping previous settings", "err", err)
					continue
				}
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
