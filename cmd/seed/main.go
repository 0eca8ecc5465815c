package main

import (
	"context"

	"pncp/internal/config"
	"pncp/internal/db"
	"pncp/internal/logging"
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

	conn, err := db.InitDB(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close(conn)

	if err := db.Migrate(conn); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}

	if err := db.SeedDomainTables(context.Background(), conn); err != nil {
		logging.Fatal().Err(err).Msg("failed to seed domain tables")
	}

	logging.Info().Msg("domain tables seeded")
}
