package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pncp/internal/logging"
	"pncp/internal/mcp"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// stdout carries the protocol; logs go to stderr.
	logging.Init(logging.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(getEnv("PNCP_MIRROR_URL", "http://localhost:8080"), os.Stdin, os.Stdout)

	logging.Info().Msg("MCP server starting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ctx)
	}()

	// Serve blocks on stdin, so a signal does not wait for it.
	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logging.Fatal().Err(err).Msg("mcp server failed")
		}
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
