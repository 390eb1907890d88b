// Package main is the entry point for the chainlens asset analysis service.
// It resolves a user query to a chain, protocol, token or exchange, aggregates
// data from several public providers, and serves validated reports plus a
// fuzzy search endpoint over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/chainlens/internal/aggregate"
	"github.com/aristath/chainlens/internal/classify"
	"github.com/aristath/chainlens/internal/clientdata"
	"github.com/aristath/chainlens/internal/clients/coingecko"
	"github.com/aristath/chainlens/internal/clients/defillama"
	"github.com/aristath/chainlens/internal/clients/llamascrape"
	"github.com/aristath/chainlens/internal/config"
	"github.com/aristath/chainlens/internal/database"
	"github.com/aristath/chainlens/internal/registry"
	"github.com/aristath/chainlens/internal/scheduler"
	"github.com/aristath/chainlens/internal/search"
	"github.com/aristath/chainlens/internal/server"
	"github.com/aristath/chainlens/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting chainlens")

	// Single SQLite database holding every provider cache table plus the
	// search index snapshot. Ephemeral by design, safe to delete on disk.
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	if err := cacheRepo.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache schema")
	}

	// Provider clients share the cache repository, each with its own tables.
	llamaClient := defillama.NewClient(cacheRepo, log)
	geckoClient := coingecko.NewClient(cacheRepo, log)
	scrapeClient := llamascrape.NewClient(cacheRepo, log)

	reg := registry.Load(log)
	classifier := classify.New(reg, log)

	aggregator := aggregate.New(
		cfg,
		reg,
		classifier,
		llamaClient,
		llamaClient,
		geckoClient,
		scrapeClient,
		log,
	)

	searchService := search.NewService(llamaClient, geckoClient, reg, cacheRepo, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.SearchRebuildSchedule, search.NewRebuildJob(searchService, cfg.AggregateTimeout)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule search index rebuild")
	}
	if err := sched.AddJob(cfg.CacheCleanupSchedule, clientdata.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache cleanup")
	}
	sched.Start()

	systemHandlers := server.NewSystemHandlers(log, cfg.DataDir, cacheDB, cacheRepo)

	srv := server.New(server.Config{
		Log:            log,
		Config:         cfg,
		Analyze:        aggregator,
		Search:         searchService,
		SystemHandlers: systemHandlers,
		Scheduler:      sched,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Warm the search index in the background so the first autocomplete
	// request does not pay the full rebuild cost.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.AggregateTimeout)
		defer cancel()
		if err := searchService.Rebuild(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial search index build failed, will retry on demand")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	sched.Stop()

	log.Info().Msg("chainlens stopped")
}
