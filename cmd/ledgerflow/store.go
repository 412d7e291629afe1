package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/ledgerflow/internal/api"
	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/codec"
	"github.com/Veraticus/ledgerflow/internal/config"
	"github.com/Veraticus/ledgerflow/internal/engine"
	"github.com/Veraticus/ledgerflow/internal/service"
	"github.com/Veraticus/ledgerflow/internal/storage"
)

// errSQLiteOnly is returned by commands that manage the local database.
var errSQLiteOnly = errors.New("this command needs store.backend = sqlite")

// openSQLite opens and migrates the local database.
func openSQLite(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// openStore opens the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendHTTP:
		client, err := api.NewClient(cfg.API.BaseURL, cfg.API.Token,
			api.WithRetryOptions(cfg.API.Retry),
			api.WithCacheTTL(cfg.API.CacheTTL),
		)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("Using HTTP store", "base_url", cfg.API.BaseURL)
		return client, func() {}, nil
	default:
		store, err := openSQLite(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("Using SQLite store", "path", store.Path())
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close database", "error", err)
			}
		}, nil
	}
}

// session bundles what the engine-driven commands share.
type session struct {
	cfg     *config.Config
	store   service.Store
	engine  *engine.Engine
	printer *cli.Printer
	close   func()
}

// openSession loads the configuration, opens the store and builds an engine.
// Notifications go to notifier, or are printed to out when it is nil. The
// engine is not loaded yet.
func openSession(ctx context.Context, out io.Writer, notifier engine.Notifier) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	printer := cli.NewPrinter(out, codec.NewCurrency(cfg.Locale))
	if notifier == nil {
		notifier = printer.Notifier()
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		store:   store,
		engine:  engine.NewWithConfig(store, notifier, cfg.Engine()),
		printer: printer,
		close:   closeStore,
	}, nil
}
