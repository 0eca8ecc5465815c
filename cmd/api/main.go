package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pncp/internal/config"
	"pncp/internal/controllers"
	"pncp/internal/db"
	"pncp/internal/logging"
	"pncp/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid config")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	gin.SetMode(gin.ReleaseMode)

	conn, err := db.InitDB(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	closers := []closer{{"database", func() error { return db.Close(conn) }}}

	if err := db.Migrate(conn); err != nil {
		closeAll(closers)
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}
	if err := db.SeedDomainTables(ctx, conn); err != nil {
		closeAll(closers)
		logging.Fatal().Err(err).Msg("failed to seed domain tables")
	}

	var queue controllers.Enqueuer
	if cfg.RedisURL != "" {
		redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			closeAll(closers)
			logging.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		asynqClient := asynq.NewClient(redisOpt)
		// the queue client goes before the database
		closers = append([]closer{{"asynq client", asynqClient.Close}}, closers...)
		queue = asynqClient
	}

	router := routes.SetupRouter(conn, cfg, queue)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutdown signal received, shutting down gracefully...")

	shutdown(srv, 30*time.Second, closers)
	logging.Info().Msg("api shut down complete")
}
