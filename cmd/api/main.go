package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"

	server "hoteliq/internal/adapters/http_server"
	"hoteliq/internal/adapters/observability"
	redisad "hoteliq/internal/adapters/redis"
	"hoteliq/internal/app"
	"hoteliq/internal/domain"
	"hoteliq/internal/shared"
	"hoteliq/internal/storage"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	store, closer, err := storage.Open(ctx, cfg.StoreDriver, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store open failed")
	}
	defer closer.Close()

	// a nil interface, not a nil *Cache, disables caching
	var cache domain.Cache
	if cfg.Redis.Addr != "" {
		rc := redisad.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, continuing without cache")
			_ = rc.Close()
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	calc := app.NewMetricsCalculator(store)
	jobs := app.NewRecomputer(calc)

	// http
	srv := server.New(server.Options{IngestRPS: cfg.IngestRPS})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:    app.NewQueryService(store, cache, cfg.CacheTTL),
		C:    app.NewCommandService(store, cache),
		A:    app.NewAnalyticsService(store, cache, cfg.CacheTTL, cfg.Analytics.DefaultWindowDays),
		P:    app.NewPipeline(store, cfg.Pipeline.BatchSize),
		Calc: calc,
		Jobs: jobs,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sup := suture.New("hoteliq-api", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().Str("event", e.String()).Msg("supervisor event")
		},
		Timeout: 15 * time.Second,
	})
	sup.Add(server.NewService(httpSrv, 15*time.Second))
	sup.Add(jobs)

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
	if err := <-sup.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("supervisor stopped")
	}
	log.Info().Msg("API stopped")
}
