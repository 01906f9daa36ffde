package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

const configFileName = "clipfind/config.toml"

// UserConfig represents the user's custom configuration
type UserConfig struct {
	Appearance AppearanceConfig `toml:"appearance"`
	Terminal   TerminalConfig   `toml:"terminal"`
	Search     SearchConfig     `toml:"search"`
	Log        LogConfig        `toml:"log"`
}

// AppearanceConfig holds appearance-related settings
type AppearanceConfig struct {
	Theme string `toml:"theme"` // Color theme name (e.g., dracula, nord). Empty uses standard terminal colors.
}

// TerminalConfig holds clipboard and mouse behavior of the terminal surface
type TerminalConfig struct {
	CopyOnSelection       *bool  `toml:"copy_on_selection"`        // Copy the selection automatically when it changes (default: false)
	MiddleClickBehavior   string `toml:"middle_click_behavior"`    // default, paste
	RightClickBehavior    string `toml:"right_click_behavior"`     // default, copyPaste, paste, nothing
	MultiLinePasteWarning string `toml:"multi_line_paste_warning"` // auto, always, never
}

// SearchConfig holds find widget settings
type SearchConfig struct {
	MaxMatches int `toml:"max_matches"` // Maximum highlighted matches (default: 1000, min: 1, max: 100000)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error (default: info)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *UserConfig {
	copyOnSelection := false
	return &UserConfig{
		Appearance: AppearanceConfig{
			Theme: "",
		},
		Terminal: TerminalConfig{
			CopyOnSelection:       &copyOnSelection,
			MiddleClickBehavior:   MiddleClickPaste,
			RightClickBehavior:    RightClickCopyPaste,
			MultiLinePasteWarning: PasteWarningAuto,
		},
		Search: SearchConfig{
			MaxMatches: DefaultSearchMaxMatches,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// CopyOnSelectionEnabled reports the effective copy-on-selection setting.
func (c *UserConfig) CopyOnSelectionEnabled() bool {
	return c.Terminal.CopyOnSelection != nil && *c.Terminal.CopyOnSelection
}

// LoadUserConfig loads the user configuration from XDG config directory
func LoadUserConfig() (*UserConfig, error) {
	configPath, err := xdg.SearchConfigFile(configFileName)
	if err != nil {
		// Config doesn't exist, create default
		return createDefaultConfig()
	}
	return LoadFile(configPath)
}

// LoadFile reads, fills and validates the configuration at path.
func LoadFile(path string) (*UserConfig, error) {
	return loadFile(path, log.Default())
}

func loadFile(path string, logger *log.Logger) (*UserConfig, error) {
	// #nosec G304 - reading the user's own config file is intentional
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parse(data, logger)
}

// Parse decodes TOML data into a filled and validated configuration.
func Parse(data []byte) (*UserConfig, error) {
	return parse(data, log.Default())
}

func parse(data []byte, logger *log.Logger) (*UserConfig, error) {
	var cfg UserConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	fillMissing(&cfg, DefaultConfig())

	validation := ValidateConfig(&cfg)
	if validation.HasErrors() {
		for _, e := range validation.Errors {
			logger.Error("config error", "section", e.Field, "key", e.Key, "message", e.Message)
		}
		return nil, fmt.Errorf("configuration has %d error(s), please fix and restart", len(validation.Errors))
	}
	for _, w := range validation.Warnings {
		logger.Warn("config warning", "section", w.Field, "key", w.Key, "message", w.Message)
	}

	return &cfg, nil
}

// createDefaultConfig creates a default config file in the user's config directory
func createDefaultConfig() (*UserConfig, error) {
	cfg := DefaultConfig()

	configPath, err := xdg.ConfigFile(configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	if err := WriteDefault(configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefault writes the default configuration with documentation comments to path.
func WriteDefault(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# clipfind configuration file\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + configPath + "\n")
	sb.WriteString("# Changes are picked up while clipfind is running.\n\n")
	sb.WriteString("# ============================================================================\n")
	sb.WriteString("# terminal.copy_on_selection: copy the selection as soon as it changes\n")
	sb.WriteString("#   Default: false\n")
	sb.WriteString("#\n")
	sb.WriteString("# terminal.middle_click_behavior: default, paste\n")
	sb.WriteString("#   paste reads the selection clipboard on Linux, the regular clipboard elsewhere\n")
	sb.WriteString("#\n")
	sb.WriteString("# terminal.right_click_behavior: default, copyPaste, paste, nothing\n")
	sb.WriteString("#   copyPaste copies and clears an active selection, pastes otherwise\n")
	sb.WriteString("#\n")
	sb.WriteString("# terminal.multi_line_paste_warning: auto, always, never\n")
	sb.WriteString("#   auto asks before multi-line pastes unless bracketed paste mode is on\n")
	sb.WriteString("#\n")
	sb.WriteString("# appearance.theme: color theme name (e.g., dracula, nord)\n")
	sb.WriteString("#   Default: (empty - standard terminal colors)\n")
	sb.WriteString("# ============================================================================\n\n")

	if _, err := sb.Write(data); err != nil {
		return fmt.Errorf("failed to write config data: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fillMissing fills in any missing settings with defaults
func fillMissing(cfg, defaultCfg *UserConfig) {
	if cfg.Terminal.CopyOnSelection == nil {
		cfg.Terminal.CopyOnSelection = defaultCfg.Terminal.CopyOnSelection
	}
	if cfg.Terminal.MiddleClickBehavior == "" {
		cfg.Terminal.MiddleClickBehavior = defaultCfg.Terminal.MiddleClickBehavior
	}
	if cfg.Terminal.RightClickBehavior == "" {
		cfg.Terminal.RightClickBehavior = defaultCfg.Terminal.RightClickBehavior
	}
	if cfg.Terminal.MultiLinePasteWarning == "" {
		cfg.Terminal.MultiLinePasteWarning = defaultCfg.Terminal.MultiLinePasteWarning
	}

	// Validate and set max matches (min: 1, max: 100000)
	if cfg.Search.MaxMatches <= 0 {
		cfg.Search.MaxMatches = defaultCfg.Search.MaxMatches
	} else if cfg.Search.MaxMatches > 100000 {
		cfg.Search.MaxMatches = 100000
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultCfg.Log.Level
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	path, err := xdg.SearchConfigFile(configFileName)
	if err != nil {
		// Return where it would be created
		return xdg.ConfigFile(configFileName)
	}
	return path, nil
}
