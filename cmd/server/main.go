package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/simaogato/skinledger-backend/internal/adapter/grpc"
	"github.com/simaogato/skinledger-backend/internal/adapter/rest"
	"github.com/simaogato/skinledger-backend/internal/bootstrap"
	"github.com/simaogato/skinledger-backend/internal/config"
	"github.com/simaogato/skinledger-backend/internal/logging"
	"github.com/simaogato/skinledger-backend/internal/usecase/investment"
	"github.com/simaogato/skinledger-backend/internal/usecase/portfolio"
	"github.com/simaogato/skinledger-backend/internal/usecase/refresh"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	logger.Info().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("env", cfg.App.Environment).
		Msg("starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Setup store
	store, err := bootstrap.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}

	// 3. Price source, behind the quote cache when enabled
	source, err := bootstrap.NewPriceSource(ctx, cfg.Steam, cfg.Cache, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("cache", cfg.Cache.Type).Msg("failed to build price source")
	}

	// 4. Initialize services (use cases)
	orchestrator := refresh.NewOrchestrator(store.Investments, store.PriceHistory, source,
		bootstrap.OrchestratorConfig(cfg.Refresh), refresh.WithLogger(logger))
	investmentService := investment.NewInvestmentService(store.Investments, store.PriceHistory)
	portfolioService := portfolio.NewPortfolioService(store.Investments, store.PriceHistory)

	var scheduler *refresh.Scheduler
	if cfg.Refresh.SchedulerEnabled {
		scheduler = refresh.NewScheduler(orchestrator, store.PriceHistory, bootstrap.SchedulerConfig(cfg.Refresh), logger)
		scheduler.Start(ctx)
	}

	// 5. Start REST server
	handler := rest.NewHandler(investmentService, portfolioService, orchestrator, cfg.App.Version, logger)
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: rest.NewRouter(handler, rest.RouterConfig{
			APIToken:    cfg.Auth.APIToken,
			CORSOrigins: cfg.Server.CORSOrigins,
			Logger:      logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to serve http")
		}
	}()

	// 6. Start gRPC server
	grpcServer, healthServer := grpcadapter.NewGRPCServer(
		grpcadapter.NewServer(portfolioService, orchestrator), cfg.Auth.APIToken, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Server.GRPCAddr).Msg("failed to listen")
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.GRPCAddr).Msg("grpc server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal().Err(err).Msg("failed to serve grpc")
		}
	}()

	// Graceful shutdown
	waitForShutdown(logger, cfg.Server, httpServer, grpcServer, func() {
		healthServer.Shutdown()
		cancel()
		if scheduler != nil {
			scheduler.Stop()
		}
		if err := source.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close price source")
		}
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close store")
		}
	})
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(logger *log.Logger, cfg config.ServerConfig, httpServer *http.Server, grpcServer *grpclib.Server, cleanup func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	logger.Info().Msg("http server stopped")

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		grpcServer.Stop()
	}
	logger.Info().Msg("grpc server stopped")

	cleanup()
}
