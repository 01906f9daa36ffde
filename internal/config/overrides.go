package config

// Overrides holds command-line overrides applied on top of the user config
type Overrides struct {
	ThemeName       string
	NoCopyOnSelect  bool
	CopyOnSelect    bool
	PasteWarning    string
	MiddleClickMode string
}

// ApplyOverrides applies command-line overrides to the config.
// CLI flags take precedence over config file values.
func ApplyOverrides(cfg *UserConfig, o Overrides) {
	if o.ThemeName != "" {
		cfg.Appearance.Theme = o.ThemeName
	}
	if o.CopyOnSelect {
		v := true
		cfg.Terminal.CopyOnSelection = &v
	}
	if o.NoCopyOnSelect {
		v := false
		cfg.Terminal.CopyOnSelection = &v
	}
	if o.PasteWarning != "" {
		cfg.Terminal.MultiLinePasteWarning = o.PasteWarning
	}
	if o.MiddleClickMode != "" {
		cfg.Terminal.MiddleClickBehavior = o.MiddleClickMode
	}
}
