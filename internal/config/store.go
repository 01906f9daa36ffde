package config

import (
	"slices"
	"sync"

	"github.com/Gaurav-Gosain/clipfind/internal/event"
)

// ChangeEvent lists the dotted keys whose effective value changed.
type ChangeEvent struct {
	Keys []string
}

// Affects reports whether key changed.
func (e ChangeEvent) Affects(key string) bool {
	return slices.Contains(e.Keys, key)
}

// Store holds the live configuration and answers lookups by dotted key.
type Store struct {
	mu      sync.RWMutex
	cfg     *UserConfig
	changed event.Emitter[ChangeEvent]
}

// NewStore creates a store for cfg. A nil cfg uses DefaultConfig.
func NewStore(cfg *UserConfig) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{cfg: cfg}
}

// Config returns the current configuration. Callers must not modify it.
func (s *Store) Config() *UserConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Bool returns the boolean setting at key, false when unknown.
func (s *Store) Bool(key string) bool {
	v, _ := s.Value(key).(bool)
	return v
}

// String returns the string setting at key, "" when unknown.
func (s *Store) String(key string) string {
	v, _ := s.Value(key).(string)
	return v
}

// Value returns the setting at key, nil when unknown.
func (s *Store) Value(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.cfg, key)
}

// Set updates a single setting and emits a change event when the value
// actually changed. Unknown keys are ignored.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	next := *s.cfg
	if !assign(&next, key, value) || lookup(s.cfg, key) == lookup(&next, key) {
		s.mu.Unlock()
		return
	}
	s.cfg = &next
	s.mu.Unlock()

	s.changed.Emit(ChangeEvent{Keys: []string{key}})
}

// Replace swaps in cfg and emits a change event listing every key whose
// value differs from before. Nothing is emitted when nothing changed.
func (s *Store) Replace(cfg *UserConfig) {
	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	var keys []string
	for _, key := range allKeys {
		if lookup(prev, key) != lookup(cfg, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		s.changed.Emit(ChangeEvent{Keys: keys})
	}
}

// OnDidChange subscribes to configuration changes.
func (s *Store) OnDidChange(fn func(ChangeEvent)) func() {
	return s.changed.Subscribe(fn)
}

var allKeys = []string{
	KeyTheme,
	KeyCopyOnSelection,
	KeyMiddleClickBehavior,
	KeyRightClickBehavior,
	KeyMultiLinePasteWarning,
	KeySearchMaxMatches,
	KeyLogLevel,
}

func lookup(cfg *UserConfig, key string) any {
	switch key {
	case KeyTheme:
		return cfg.Appearance.Theme
	case KeyCopyOnSelection:
		return cfg.CopyOnSelectionEnabled()
	case KeyMiddleClickBehavior:
		return cfg.Terminal.MiddleClickBehavior
	case KeyRightClickBehavior:
		return cfg.Terminal.RightClickBehavior
	case KeyMultiLinePasteWarning:
		return cfg.Terminal.MultiLinePasteWarning
	case KeySearchMaxMatches:
		return cfg.Search.MaxMatches
	case KeyLogLevel:
		return cfg.Log.Level
	}
	return nil
}

func assign(cfg *UserConfig, key string, value any) bool {
	switch v := value.(type) {
	case bool:
		if key == KeyCopyOnSelection {
			cfg.Terminal.CopyOnSelection = &v
			return true
		}
	case int:
		if key == KeySearchMaxMatches {
			cfg.Search.MaxMatches = v
			return true
		}
	case string:
		switch key {
		case KeyTheme:
			cfg.Appearance.Theme = v
		case KeyMiddleClickBehavior:
			cfg.Terminal.MiddleClickBehavior = v
		case KeyRightClickBehavior:
			cfg.Terminal.RightClickBehavior = v
		case KeyMultiLinePasteWarning:
			cfg.Terminal.MultiLinePasteWarning = v
		case KeyLogLevel:
			cfg.Log.Level = v
		default:
			return false
		}
		return true
	}
	return false
}
