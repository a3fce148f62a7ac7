package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "shelterline/internal/adapters/http_server"
	"shelterline/internal/adapters/observability"
	redisad "shelterline/internal/adapters/redis"
	"shelterline/internal/adapters/telephony"
	"shelterline/internal/app"
	"shelterline/internal/domain"
	"shelterline/internal/shared"
	mysqlrepo "shelterline/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	notifier := redisad.NewNotifier(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	placer, err := telephony.New(cfg.TelephonyBase, cfg.TelephonyKey, cfg.TelephonyRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telephony client")
	}

	estimator := app.NewEstimator(repo, cache, cfg.Lookahead, cfg.PendingCacheTTL)
	queue := app.NewQueueBuilder(repo, cfg.BiweeklyCooldown)
	dispatcher := app.NewDispatcher(placer, repo, estimator, cfg.CallDelay)
	tracker := app.NewTracker(repo, repo, notifier)

	// provider event feed: redis stream -> tracker, many sessions in parallel
	feed := redisad.NewFeed(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	events := make(chan domain.CallEvent, 64)
	pump := app.NewFeedPump(tracker, 8)
	ctx := context.Background()
	go func() {
		if err := feed.Subscribe(ctx, events); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event feed subscription ended")
		}
	}()
	go pump.Run(ctx, events)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Queue:    queue,
		Disp:     dispatcher,
		Tracker:  tracker,
		Demand:   estimator,
		Hosts:    repo,
		BatchCap: cfg.BatchCap,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
