package tui

import (
	"time"

	"github.com/Veraticus/ledgerflow/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme   themes.Theme
	Notices *Notices
	// Timeout bounds each store-backed action.
	Timeout time.Duration
	Width   int
	Height  int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:   themes.Default,
		Timeout: 30 * time.Second,
		Width:   120,
		Height:  30,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithNotices sets the queue the engine notifies into.
func WithNotices(notices *Notices) Option {
	return func(c *Config) {
		c.Notices = notices
	}
}

// WithTimeout bounds each store-backed action.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
