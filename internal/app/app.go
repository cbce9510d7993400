// Package app assembles the MindfulTube agents, store and search provider
// from configuration. Both the daemon and the CLI start here.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/mindfultube/mindfultube/internal/agent"
	"github.com/mindfultube/mindfultube/internal/config"
	"github.com/mindfultube/mindfultube/internal/discovery"
	"github.com/mindfultube/mindfultube/internal/intent"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/metrics"
	"github.com/mindfultube/mindfultube/internal/preference"
	"github.com/mindfultube/mindfultube/internal/search"
	"github.com/mindfultube/mindfultube/internal/storage"
	"github.com/mindfultube/mindfultube/internal/usage"
)

// App holds the assembled components
type App struct {
	Config  *config.Config
	Store   storage.KV
	Metrics *metrics.Metrics // Nil when metrics are disabled

	Agent      *agent.Agent
	Preference *preference.Agent
	Usage      *usage.Agent
	Intent     *intent.Agent
	Discovery  *discovery.Agent
	Provider   search.Provider

	closers []io.Closer
	log     *logging.Logger
}

// Option adjusts assembly
type Option func(*options)

type options struct {
	provider search.Provider
}

// WithProvider overrides the provider chosen from config
func WithProvider(p search.Provider) Option {
	return func(o *options) { o.provider = p }
}

// Open builds every component and loads persisted agent state
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		log:    logging.Component("app"),
	}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	if cfg.Features.EnableMetrics {
		a.Metrics = metrics.New()
	}

	loc := cfg.Location()
	a.Preference = preference.New(preference.Config{Store: store})
	a.Usage = usage.New(usage.Config{
		Store: store,
		Goals: usage.Goals{
			DailyLimitMinutes:  cfg.Agents.DailyLimitMinutes,
			WeeklyLimitMinutes: cfg.Agents.WeeklyLimitMinutes,
		},
		Location: loc,
	})
	a.Intent = intent.New(intent.Config{Store: store})
	a.Discovery = discovery.New(discovery.Config{Store: store})

	a.Provider = o.provider
	if a.Provider == nil {
		a.Provider = a.newProvider(ctx)
	}

	a.Agent = agent.New(agent.Config{
		Preference:        a.Preference,
		Usage:             a.Usage,
		Intent:            a.Intent,
		Discovery:         a.Discovery,
		Provider:          a.Provider,
		Metrics:           a.Metrics,
		Store:             store,
		SearchFetchSize:   cfg.Agents.SearchFetchSize,
		MaxDisplayResults: cfg.Agents.MaxDisplayResults,
	})

	if err := a.Agent.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load agent state: %w", err)
	}

	return a, nil
}

// openStore opens the configured backend, sealed when a passphrase is set
func (a *App) openStore(ctx context.Context) (storage.KV, error) {
	cfg := a.Config

	var kv storage.KV
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rkv, err := storage.NewRedisKV(ctx, storage.RedisConfig{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rkv)
		kv = rkv
		a.log.Info("Using redis store at %s", cfg.Storage.Redis.Addr)

	default:
		db, err := storage.Open(storage.Config{Path: cfg.DBPath()})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		kv = storage.NewSQLiteKV(db)
		a.log.Info("Using sqlite store at %s", db.Path())
	}

	if cfg.Storage.Passphrase == "" {
		return kv, nil
	}

	sealed, err := storage.NewSealedKV(ctx, kv, cfg.Storage.Passphrase)
	if err != nil {
		return nil, err
	}
	a.log.Debug("Agent state is encrypted at rest")
	return sealed, nil
}

// newProvider prefers YouTube with placeholder fallback when credentials
// are configured
func (a *App) newProvider(ctx context.Context) search.Provider {
	placeholder := search.NewPlaceholder()

	yt := a.Config.YouTube
	if !yt.HasCredentials() {
		a.log.Info("No YouTube credentials, serving placeholder results")
		return placeholder
	}

	primary, err := search.NewYouTube(ctx, search.YouTubeConfig{
		APIKey:      yt.APIKey,
		AccessToken: yt.AccessToken,
		Endpoint:    yt.Endpoint,
		RateLimit:   yt.RateLimit,
		CacheTTL:    yt.CacheTTL,
	})
	if err != nil {
		a.log.WithError(err).Warn("YouTube provider unavailable, serving placeholder results")
		return placeholder
	}
	return search.NewFallback(primary, placeholder)
}

// Close releases the store
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
