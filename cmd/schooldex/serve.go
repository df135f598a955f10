package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/schooldex/internal/cache"
	"github.com/kailas-cloud/schooldex/internal/config"
	dbRedis "github.com/kailas-cloud/schooldex/internal/db/redis"
	"github.com/kailas-cloud/schooldex/internal/metrics"
	schoolrepo "github.com/kailas-cloud/schooldex/internal/repository/school"
	chiTransport "github.com/kailas-cloud/schooldex/internal/transport/chi"
	"github.com/kailas-cloud/schooldex/internal/usecase/facet"
	healthuc "github.com/kailas-cloud/schooldex/internal/usecase/health"
	queryuc "github.com/kailas-cloud/schooldex/internal/usecase/query"
	"github.com/kailas-cloud/schooldex/internal/usecase/suggest"
	"github.com/kailas-cloud/schooldex/internal/version"
)

// redisReadyTimeout bounds the wait for the redis cache backend at startup.
const redisReadyTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(env, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting schooldex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Database, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	logger.Info("Connected to entity store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	repo := schoolrepo.New(store, metrics.StoreQueryDuration)

	resultCache, cachePinger, closeCache, err := buildCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	querySvc := queryuc.New(
		repo,
		resultCache,
		facet.New(facet.Config{
			Limits:            cfg.Facets.Limits,
			PriorityLanguages: cfg.Facets.PriorityLanguages,
		}),
		suggest.New(suggest.Caps{
			Schools:         cfg.Suggestions.Schools,
			Locations:       cfg.Suggestions.Locations,
			Specializations: cfg.Suggestions.Specializations,
			Facilities:      cfg.Suggestions.Facilities,
		}),
		repo,
		queryuc.Config{
			FacetsTTL:      time.Duration(cfg.Cache.FacetsTTLSec) * time.Second,
			SuggestTTL:     time.Duration(cfg.Cache.SuggestTTLSec) * time.Second,
			ListTTL:        time.Duration(cfg.Cache.ListTTLSec) * time.Second,
			MinQueryLength: cfg.Suggestions.MinQueryLength,
			PopularWindow:  time.Duration(cfg.Facets.PopularDays) * 24 * time.Hour,
			PopularLimit:   cfg.Facets.PopularLimit,
		},
		queryuc.Metrics{
			CacheRequests:  metrics.CacheRequestsTotal,
			CacheSetErrors: metrics.CacheSetErrorsTotal,
			Invalidations:  metrics.CacheInvalidationsTotal,
			Requests:       metrics.QueryRequestsTotal,
		},
		logger,
	)

	healthSvc := healthuc.New(repo, cachePinger)

	server := chiTransport.NewServer(querySvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:        cfg.Auth.APIKeys,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildCache creates the configured result cache backend. The returned pinger is
// a nil interface (not a typed nil pointer) for in-process backends.
func buildCache(
	ctx context.Context, cfg config.CacheConfig, logger *zap.Logger,
) (queryuc.Cache, healthuc.Pinger, func(), error) {
	switch cfg.Backend {
	case "none":
		logger.Warn("Result cache disabled")
		return cache.Nop{}, nil, func() {}, nil
	case "redis":
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create redis cache: %w", err)
		}
		if err := rs.WaitForReady(ctx, redisReadyTimeout); err != nil {
			rs.Close()
			return nil, nil, nil, fmt.Errorf("redis cache not ready: %w", err)
		}
		logger.Info("Connected to redis cache", zap.Strings("addrs", cfg.Redis.Addrs))
		return cache.NewRedis(rs, cfg.Redis.KeyPrefix, cfg.MaxEntryBytes), rs, rs.Close, nil
	default:
		return cache.NewMemory(
			cache.WithMaxEntries(cfg.MaxEntries),
			cache.WithMaxEntryBytes(cfg.MaxEntryBytes),
		), nil, func() {}, nil
	}
}
