package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"shelterline/internal/adapters/observability"
	redisad "shelterline/internal/adapters/redis"
	"shelterline/internal/adapters/telephony"
	"shelterline/internal/app"
	"shelterline/internal/shared"
	mysqlrepo "shelterline/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("batch_cap", cfg.BatchCap).
		Dur("call_delay", cfg.CallDelay).
		Dur("cycle_interval", cfg.CycleInterval).
		Msg("scheduler starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	placer, err := telephony.New(cfg.TelephonyBase, cfg.TelephonyKey, cfg.TelephonyRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telephony client")
	}

	estimator := app.NewEstimator(repo, cache, cfg.Lookahead, cfg.PendingCacheTTL)
	queue := app.NewQueueBuilder(repo, cfg.BiweeklyCooldown)
	dispatcher := app.NewDispatcher(placer, repo, estimator, cfg.CallDelay)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCycle := func() {
		hosts, err := queue.BuildQueue(ctx, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("queue build failed, skipping cycle")
			return
		}
		rep, err := dispatcher.Dispatch(ctx, hosts, cfg.BatchCap)
		if err != nil {
			log.Error().Err(err).Msg("dispatch cycle failed")
			return
		}
		log.Info().Int("attempted", rep.Attempted).Int("succeeded", rep.Succeeded).Msg("cycle done")
	}

	runCycle()
	if cfg.CycleInterval <= 0 {
		return // one-shot
	}

	tick := time.NewTicker(cfg.CycleInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler stopping")
			return
		case <-tick.C:
			runCycle()
		}
	}
}
