package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/phuslu/log"
	"github.com/simaogato/skinledger-backend/internal/bootstrap"
	"github.com/simaogato/skinledger-backend/internal/config"
	"github.com/simaogato/skinledger-backend/internal/logging"
	"github.com/simaogato/skinledger-backend/internal/usecase/investment"
	"github.com/simaogato/skinledger-backend/internal/usecase/portfolio"
)

// register adds the skinctl commands to c
func register(c *subcommands.Commander) {
	c.Register(&summaryCmd{}, "portfolio")
	c.Register(&listCmd{}, "portfolio")

	c.Register(&addCmd{}, "investments")
	c.Register(&importCmd{}, "investments")

	c.Register(&refreshCmd{}, "prices")
	c.Register(&pruneCmd{}, "prices")
}

// as a short lived CLI these are process-wide; tests swap them
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// app holds what one command needs, opened from the environment configuration
type app struct {
	cfg   *config.Config
	log   *log.Logger
	store *bootstrap.Store
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, stderr)

	store, err := bootstrap.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	return &app{cfg: cfg, log: logger, store: store}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	}
}

func (a *app) investments() *investment.InvestmentService {
	return investment.NewInvestmentService(a.store.Investments, a.store.PriceHistory)
}

func (a *app) portfolio() *portfolio.PortfolioService {
	return portfolio.NewPortfolioService(a.store.Investments, a.store.PriceHistory)
}

// withApp opens the app, runs fn and maps its error to an exit status
func withApp(ctx context.Context, fn func(a *app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(a); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
