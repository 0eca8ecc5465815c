package main

import (
	"context"
	"net/http"
	"time"

	"pncp/internal/logging"
)

type closer struct {
	name  string
	close func() error
}

// shutdown drains the HTTP server, then releases closers in order.
func shutdown(srv *http.Server, timeout time.Duration, closers []closer) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("server shutdown failed")
	}

	closeAll(closers)
}

func closeAll(closers []closer) {
	for _, c := range closers {
		if err := c.close(); err != nil {
			logging.Error().Err(err).Str("resource", c.name).Msg("close failed")
			continue
		}
		logging.Info().Str("resource", c.name).Msg("closed")
	}
}
