package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scwm-service/internal/api"
	"scwm-service/internal/app"
	"scwm-service/internal/config"
	"scwm-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		zap.L().Error("server exited", zap.Error(err))
		_ = zap.L().Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if _, statErr := os.Stat(cfg.Store.SeedPath); statErr == nil {
		n, err := store.SeedFromFile(ctx, cfg.Store.SeedPath, false)
		if err != nil {
			return err
		}
		if n > 0 {
			zap.L().Info("seeded recycling centers", zap.Int("count", n), zap.String("path", cfg.Store.SeedPath))
		}
	}

	centers, closeRedis, err := app.CachedCenters(ctx, cfg.Redis, store.Centers)
	if err != nil {
		return err
	}
	defer closeRedis()

	routes, geocoder, err := app.Routing(cfg, store)
	if err != nil {
		return err
	}
	classifier, advisor := app.Analysis(cfg)

	sessions := services.NewSessionManager(centers, routes, services.SessionConfig{
		FocusZoom:    cfg.Map.FocusZoom,
		IdleTTL:      cfg.Map.SessionTTL,
		RouteTimeout: cfg.Map.RouteTimeout,
	})

	router := api.NewRouter(api.Deps{
		Centers:        centers,
		Scans:          store.Scans,
		Store:          store.Pinger,
		StoreName:      store.Driver,
		Classifier:     classifier,
		Advisor:        advisor,
		Geocoder:       geocoder,
		Sessions:       sessions,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		AnalyzeLimit: api.RateLimitConfig{
			RequestsPerSecond: cfg.Analyze.RatePerSec,
			Burst:             cfg.Analyze.Burst,
		},
	})

	// Timeouts leave room for uploads and cold-cache routing calls.
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("server listening", zap.String("addr", srv.Addr), zap.String("store", store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
