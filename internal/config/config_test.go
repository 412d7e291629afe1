package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/bulk"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/common"
)

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/ledgerflow/ledgerflow.db", cfg.Database.Path)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, codec.LocalePtBR, cfg.Locale)
	assert.Equal(t, bulk.AllOrNothing, cfg.Bulk.Policy)
	assert.Equal(t, 4, cfg.Bulk.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.API.CacheTTL)
	assert.Equal(t, 3, cfg.API.Retry.MaxAttempts)

	ec := cfg.Engine()
	assert.Equal(t, bulk.AllOrNothing, ec.Policy)
	assert.Equal(t, 4, ec.Concurrency)
}

func TestFromViper_YAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
store:
  backend: http
api:
  base_url: https://ledger.example.com
  token: abc123
  cache_ttl: 30s
  retry:
    max_attempts: 5
locale: en-US
bulk:
  policy: apply-succeeded
  concurrency: 2
`)))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, BackendHTTP, cfg.Store.Backend)
	assert.Equal(t, "https://ledger.example.com", cfg.API.BaseURL)
	assert.Equal(t, "abc123", cfg.API.Token)
	assert.Equal(t, 30*time.Second, cfg.API.CacheTTL)
	assert.Equal(t, 5, cfg.API.Retry.MaxAttempts)
	assert.Equal(t, codec.LocaleEnUS, cfg.Locale)
	assert.Equal(t, bulk.ApplySucceeded, cfg.Bulk.Policy)
	assert.Equal(t, 2, cfg.Bulk.Concurrency)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown backend", "store.backend", "postgres"},
		{"http without url", "store.backend", "http"},
		{"unknown locale", "locale", "fr-FR"},
		{"unknown policy", "bulk.policy", "best-effort"},
		{"zero concurrency", "bulk.concurrency", 0},
		{"bad log level", "logging.level", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("LEDGER_DIR", "/srv/ledger")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/ledger.db", "/home/tester/ledger.db"},
		{"$LEDGER_DIR/ledger.db", "/srv/ledger/ledger.db"},
		{"/abs/ledger.db", "/abs/ledger.db"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
