package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// DefaultDatabasePath is where the local store lives unless configured otherwise.
const DefaultDatabasePath = "$HOME/.local/share/ledgerflow/ledgerflow.db"

var (
	// ErrUnknownBackend is returned for store backends other than sqlite and http.
	ErrUnknownBackend = errors.New("unknown store backend")
	// ErrInvalidConcurrency is returned for a bulk concurrency below one.
	ErrInvalidConcurrency = errors.New("bulk concurrency must be at least 1")
)

// Config is the typed application configuration.
type Config struct {
	Database DatabaseConfig
	Store    StoreConfig
	API      APIConfig
	Logging  LoggingConfig
	Bulk     BulkConfig
	Locale   codec.Locale
}

// DatabaseConfig configures the local SQLite store.
type DatabaseConfig struct {
	Path string
}

// StoreConfig selects the transaction store.
type StoreConfig struct {
	Backend string
}

// APIConfig configures the HTTP store.
type APIConfig struct {
	BaseURL  string
	Token    string
	Retry    service.RetryOptions
	CacheTTL time.Duration
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// BulkConfig configures batch mutations.
type BulkConfig struct {
	Policy      bulk.Policy
	Concurrency int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("api.cache_ttl", 5*time.Minute)
	v.SetDefault("api.retry.max_attempts", 3)
	v.SetDefault("api.retry.initial_delay", 200*time.Millisecond)
	v.SetDefault("api.retry.max_delay", 5*time.Second)
	v.SetDefault("api.retry.multiplier", 2.0)
	v.SetDefault("locale", codec.LocalePtBR.Name)
	v.SetDefault("bulk.policy", string(bulk.AllOrNothing))
	v.SetDefault("bulk.concurrency", 4)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{Path: ExpandPath(v.GetString("database.path"))},
		Store:    StoreConfig{Backend: v.GetString("store.backend")},
		API: APIConfig{
			BaseURL:  v.GetString("api.base_url"),
			Token:    v.GetString("api.token"),
			CacheTTL: v.GetDuration("api.cache_ttl"),
			Retry: service.RetryOptions{
				MaxAttempts:  v.GetInt("api.retry.max_attempts"),
				InitialDelay: v.GetDuration("api.retry.initial_delay"),
				MaxDelay:     v.GetDuration("api.retry.max_delay"),
				Multiplier:   v.GetFloat64("api.retry.multiplier"),
			},
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Bulk: BulkConfig{Concurrency: v.GetInt("bulk.concurrency")},
	}

	switch cfg.Store.Backend {
	case BackendSQLite, BackendHTTP:
	default:
		return nil, common.NewConfigurationError("store.backend",
			fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Store.Backend))
	}
	if cfg.Store.Backend == BackendHTTP && cfg.API.BaseURL == "" {
		return nil, common.NewConfigurationError("api.base_url",
			errors.New("required when store.backend is http"))
	}

	locale, err := codec.LookupLocale(v.GetString("locale"))
	if err != nil {
		return nil, common.NewConfigurationError("locale", err)
	}
	cfg.Locale = locale

	policy, err := bulk.ParsePolicy(v.GetString("bulk.policy"))
	if err != nil {
		return nil, common.NewConfigurationError("bulk.policy", err)
	}
	cfg.Bulk.Policy = policy

	if cfg.Bulk.Concurrency < 1 {
		return nil, common.NewConfigurationError("bulk.concurrency",
			fmt.Errorf("%w: %d", ErrInvalidConcurrency, cfg.Bulk.Concurrency))
	}

	if _, err := common.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, common.NewConfigurationError("logging.level", err)
	}
	return cfg, nil
}

// Engine returns the engine settings carried by the configuration.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Policy:      c.Bulk.Policy,
		Locale:      c.Locale,
		Concurrency: c.Bulk.Concurrency,
	}
}
