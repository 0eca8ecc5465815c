package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pncp/internal/config"
	"pncp/internal/db"
	"pncp/internal/logging"
	"pncp/internal/routes"
	"pncp/internal/scheduler"
	"pncp/internal/store"
	"pncp/internal/tasks"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	conn, err := db.InitDB(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	logging.Info().Msg("worker connected to database")

	if err := db.Migrate(conn); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}
	if err := db.SeedDomainTables(context.Background(), conn); err != nil {
		logging.Fatal().Err(err).Msg("failed to seed domain tables")
	}

	taskProcessor := tasks.NewTaskProcessor(
		routes.NewUpstream(cfg),
		store.New(conn),
		cfg,
	)

	sched := scheduler.New(cfg.SyncInterval, func(ctx context.Context) {
		taskProcessor.RunBatch(ctx, tasks.BatchOptions{})
	})

	var srv *asynq.Server
	if cfg.RedisURL != "" {
		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to parse Redis URL")
		}

		srv = asynq.NewServer(
			redisOpt,
			asynq.Config{
				Queues: map[string]int{
					"default": 1,
				},
				// PNCP gets one request at a time from this process
				Concurrency: 1,
			},
		)

		mux := asynq.NewServeMux()
		mux.HandleFunc(tasks.TypeTaskSyncBatch, taskProcessor.HandleSyncBatchTask)
		mux.HandleFunc(tasks.TypeTaskSyncTarget, taskProcessor.HandleSyncTargetTask)

		logging.Info().Msg("starting asynq worker server")
		if err := srv.Start(mux); err != nil {
			logging.Fatal().Err(err).Msg("could not start asynq worker server")
		}
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go func() {
			logging.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	sched.Start(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logging.Info().Msg("shutdown signal received, shutting down gracefully...")

	sched.Stop()

	if srv != nil {
		srv.Shutdown()
		logging.Info().Msg("asynq worker server shut down")
	}

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(ctx)
		cancel()
	}

	if err := db.Close(conn); err != nil {
		logging.Error().Err(err).Msg("failed to close database")
	}

	logging.Info().Msg("worker process shut down complete")
}
