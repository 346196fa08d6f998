package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/classifieds-dashboard/internal/adstore"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/api"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/config"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/state"
	"github.com/maltedev/classifieds-dashboard/internal/dashboard/views"
	"github.com/maltedev/classifieds-dashboard/internal/database"
	"github.com/maltedev/classifieds-dashboard/internal/export"
	"github.com/maltedev/classifieds-dashboard/internal/scraperclient"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logger := cfg.Logging.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var checks []namedCheck

	// Ad store
	var store adstore.Store
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = adstore.NewPostgresStore(db, cfg.Database.Table, logger)
		checks = append(checks, namedCheck{"postgres", db.Ping})

	case config.BackendCSV:
		store = adstore.NewCSVStore(cfg.Store.CSVPath, logger)

	default:
		rest, err := adstore.NewRESTStore(adstore.RESTConfig{
			BaseURL: cfg.Supabase.URL,
			APIKey:  cfg.Supabase.AnonKey,
			Table:   cfg.Supabase.Table,
		}, &http.Client{Timeout: 30 * time.Second}, logger)
		if err != nil {
			logger.Error("failed to create supabase store", "error", err)
			os.Exit(1)
		}
		store = rest
	}
	logger.Info("ad store ready", "backend", cfg.Store.Backend)

	// Optional Redis cache in front of the store
	var cache views.Invalidator
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}

		cached := adstore.NewCachedStore(store, redisClient, cfg.Redis.TTL, logger)
		store = cached
		cache = cached
		checks = append(checks, namedCheck{"redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
		logger.Info("ads cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// Scraper backend
	scraper, err := scraperclient.New(cfg.Scraper.URL, cfg.Scraper.Timeout, logger)
	if err != nil {
		logger.Error("failed to create scraper client", "error", err)
		os.Exit(1)
	}

	var exporter export.Exporter = scraper
	if cfg.Export.Source == config.ExportLocal {
		exporter = export.NewLocal(store, logger)
	}

	// Views
	st := state.NewStore()
	adsView := views.NewAdsView(views.AdsDeps{
		State:    st,
		Store:    store,
		Scraper:  scraper,
		Exporter: exporter,
		Cache:    cache,
	}, logger)
	dashboardView := views.NewDashboardView(st, store, logger)

	// Initialize API handlers
	handlers, err := api.NewHandlers(adsView, dashboardView, cfg.Server.AdBaseURL, logger)
	if err != nil {
		logger.Error("failed to initialize handlers", "error", err)
		os.Exit(1)
	}
	for _, c := range checks {
		handlers.AddHealthCheck(c.name, c.check)
	}

	// A scrape runs synchronously inside the request.
	requestTimeout := cfg.Scraper.Timeout + 30*time.Second

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handlers, requestTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: max(cfg.Server.WriteTimeout, requestTimeout+5*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting",
		"port", cfg.Server.Port,
		"scraper_url", cfg.Scraper.URL,
		"export_source", cfg.Export.Source,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

type namedCheck struct {
	name  string
	check func(ctx context.Context) error
}
