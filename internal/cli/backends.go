package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"taskflow/internal/backend/googlecalendar"
	"taskflow/internal/backend/googletasks"
	"taskflow/internal/backend/local"
	"taskflow/internal/cache"
	"taskflow/internal/config"
	"taskflow/internal/coordinator"
	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/storage"
)

// Backends opens the real providers. The demo workspace and the remote
// cache share one SQLite store, opened on first use.
type Backends struct {
	mu    sync.Mutex
	store *storage.SQLite
}

// Open builds the provider for mode. It satisfies commands.Opener.
func (b *Backends) Open(ctx context.Context, cfg *config.Config, mode session.Mode, logger *slog.Logger) (service.Service, error) {
	switch mode {
	case session.ModeDemo:
		store, err := b.storeFor(cfg)
		if err != nil {
			return nil, err
		}
		return local.New(ctx, store, local.WithLogger(logger))

	case session.ModeRemote:
		opts := []googletasks.Option{googletasks.WithLogger(logger)}
		if cfg.Settings.Cache {
			store, err := b.storeFor(cfg)
			if err != nil {
				return nil, err
			}
			opts = append(opts, googletasks.WithCache(cache.New(store)))
		}
		return googletasks.New(ctx, cfg, opts...)

	default:
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}
}

// Mirror builds the calendar mirror. It satisfies MirrorFactory.
func (b *Backends) Mirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) (coordinator.EventMirror, error) {
	return googlecalendar.New(ctx, cfg, googlecalendar.WithLogger(logger))
}

// Close releases the store, if it was opened.
func (b *Backends) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.store == nil {
		return nil
	}
	err := b.store.Close()
	b.store = nil
	return err
}

func (b *Backends) storeFor(cfg *config.Config) (*storage.SQLite, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.store != nil {
		return b.store, nil
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	store, err := storage.OpenSQLite(cfg.StorePath())
	if err != nil {
		return nil, err
	}
	b.store = store
	return store, nil
}
