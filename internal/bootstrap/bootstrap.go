// Package bootstrap wires configured adapters together for the server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phuslu/log"
	"github.com/simaogato/skinledger-backend/internal/adapter/cache"
	"github.com/simaogato/skinledger-backend/internal/adapter/pricesource/steam"
	"github.com/simaogato/skinledger-backend/internal/adapter/repository/memory"
	"github.com/simaogato/skinledger-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/skinledger-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/skinledger-backend/internal/config"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/usecase/refresh"
)

// Store bundles both repositories of one backend
type Store struct {
	Investments  domain.InvestmentRepository
	PriceHistory domain.PriceHistoryRepository

	closers []func() error
}

// Close releases the backend connection, if any
func (s *Store) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenStore opens the backend named by cfg.Driver and applies migrations when enabled
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *log.Logger) (*Store, error) {
	switch cfg.Driver {
	case "memory", "":
		store := memory.NewStore()
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return &Store{Investments: store.Investments(), PriceHistory: store.PriceHistory()}, nil

	case "sqlite":
		db, err := sqlite.NewDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return &Store{
			Investments:  sqlite.NewInvestmentRepository(db),
			PriceHistory: sqlite.NewPriceHistoryRepository(db),
			closers:      []func() error{db.Close},
		}, nil

	case "postgres":
		db, err := postgres.NewDB(cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		logger.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("using postgres store")
		return &Store{
			Investments:  postgres.NewInvestmentRepository(db),
			PriceHistory: postgres.NewPriceHistoryRepository(db),
			closers:      []func() error{db.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// PriceSource is the Steam client, optionally behind a quote cache
type PriceSource struct {
	domain.PriceSource

	closers []func() error
}

// Close releases the cache connection, if any
func (p *PriceSource) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewPriceSource builds the Steam client and wraps it with the configured cache
func NewPriceSource(ctx context.Context, steamCfg config.SteamConfig, cacheCfg config.CacheConfig, httpClient *http.Client, logger *log.Logger) (*PriceSource, error) {
	client := steam.NewClient(steam.Config{
		BaseURL:      steamCfg.BaseURL,
		AppID:        steamCfg.AppID,
		Currency:     steamCfg.Currency,
		CurrencyCode: steamCfg.CurrencyCode,
		Timeout:      steamCfg.Timeout,
		UserAgent:    steamCfg.UserAgent,
	}, httpClient, logger)

	if cacheCfg.TTL <= 0 {
		return &PriceSource{PriceSource: client}, nil
	}

	switch cacheCfg.Type {
	case "none", "":
		return &PriceSource{PriceSource: client}, nil

	case "memory":
		logger.Info().Dur("ttl", cacheCfg.TTL).Int("max_entries", cacheCfg.MaxEntries).Msg("quote cache enabled (memory)")
		return &PriceSource{
			PriceSource: cache.NewCachingSource(client, cache.NewMemoryCache(cacheCfg.TTL, cacheCfg.MaxEntries), logger),
		}, nil

	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cacheCfg.RedisAddr,
			Password:  cacheCfg.RedisPassword,
			DB:        cacheCfg.RedisDB,
			TTL:       cacheCfg.TTL,
			KeyPrefix: cacheCfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Dur("ttl", cacheCfg.TTL).Str("addr", cacheCfg.RedisAddr).Msg("quote cache enabled (redis)")
		return &PriceSource{
			PriceSource: cache.NewCachingSource(client, rc, logger),
			closers:     []func() error{rc.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported cache type %q", cacheCfg.Type)
	}
}

// OrchestratorConfig converts the refresh settings
func OrchestratorConfig(cfg config.RefreshConfig) refresh.Config {
	return refresh.Config{
		Cooldown:     cfg.Cooldown,
		CallInterval: cfg.CallInterval,
	}
}

// SchedulerConfig converts the scheduler settings
func SchedulerConfig(cfg config.RefreshConfig) refresh.SchedulerConfig {
	return refresh.SchedulerConfig{
		Interval:   cfg.ScheduleInterval,
		RunOnStart: cfg.RunOnStart,
		Retention:  cfg.Retention,
	}
}
