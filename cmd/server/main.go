package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adspy/internal/delivery"
	"adspy/internal/domain"
	"adspy/internal/infrastructure"
	"adspy/internal/normalize"
	"adspy/internal/usecase"
	"adspy/pkg/config"
	"adspy/pkg/logger"
	"adspy/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)

	var checks []delivery.HealthCheck

	// Search result store
	var store domain.SearchStore
	switch cfg.Store.Driver {
	case config.StoreRedis:
		client, err := infrastructure.NewRedisClient(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()

		store = infrastructure.NewRedisSearchStore(client, cfg.Search.ResultRetention, cfg.Search.HistoryLimit, log)
		checks = append(checks, delivery.HealthCheck{Name: "redis", Ping: redisPing(client)})
	default:
		store = infrastructure.NewMemorySearchStore(cfg.Search.HistoryLimit, log)
	}

	// Saved ad repository
	var savedRepo domain.SavedAdRepository
	if cfg.Store.DatabaseURL != "" {
		db, err := infrastructure.OpenPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		pgRepo := infrastructure.NewPostgresSavedAdRepository(db, log)
		if err := pgRepo.Migrate(ctx); err != nil {
			return err
		}
		savedRepo = pgRepo
		checks = append(checks, delivery.HealthCheck{Name: "postgres", Ping: dbPing(db)})
	} else {
		savedRepo = infrastructure.NewMemorySavedAdRepository(log)
	}

	backend := infrastructure.NewBackendClient(
		cfg.Backend.URL,
		cfg.Backend.Secret,
		cfg.Backend.RequestTimeout,
		cfg.Backend.RateLimitPerSecond,
		log,
		m,
	)

	searchService := usecase.NewSearchService(
		backend,
		store,
		normalize.New(),
		log,
		m,
		cfg.Search.WorkerPoolSize,
		cfg.Search.BatchSize,
		cfg.Search.CacheTTL,
	)
	savedAdService := usecase.NewSavedAdService(savedRepo, backend, log, m)
	dashboardService := usecase.NewDashboardService(store, savedRepo, log)

	handlers := delivery.NewHTTPHandlers(searchService, savedAdService, dashboardService, log, checks...)
	// two backend round trips fit in one request when platform is both
	router := delivery.NewHTTPRouter(handlers, log, m, prometheus.DefaultGatherer, 2*cfg.Backend.RequestTimeout).SetupRoutes()

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(map[string]any{
			"port":         cfg.Server.Port,
			"store":        cfg.Store.Driver,
			"saved_ads_db": cfg.Store.DatabaseURL != "",
			"backend":      cfg.Backend.URL,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func redisPing(client *goredis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func dbPing(db *sql.DB) func(context.Context) error {
	return db.PingContext
}
