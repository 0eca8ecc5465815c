package pncp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pncp/internal/apperrors"
	"pncp/internal/logging"
	"pncp/internal/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

const breakerName = "pncp-api"

const unavailableMessage = "API do PNCP temporariamente indisponível"

// Fetcher is anything that returns one page of a report.
type Fetcher interface {
	FetchPage(ctx context.Context, p Params) (*Page, error)
}

// BreakerClient stops calling PNCP after a run of transport failures or 5xx
// answers and rejects requests with 503 until cooldown has passed. Client
// errors (4xx) never count as failures.
type BreakerClient struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[*Page]
}

// NewBreakerClient wraps next. failures <= 0 returns next unwrapped.
func NewBreakerClient(next Fetcher, failures int, cooldown time.Duration) Fetcher {
	if failures <= 0 {
		return next
	}

	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Page](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var upstreamErr *apperrors.UpstreamError
			return errors.As(err, &upstreamErr) && upstreamErr.Status < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerClient{next: next, cb: cb}
}

func (b *BreakerClient) FetchPage(ctx context.Context, p Params) (*Page, error) {
	page, err := b.cb.Execute(func() (*Page, error) {
		return b.next.FetchPage(ctx, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &apperrors.UpstreamError{Status: http.StatusServiceUnavailable, Message: unavailableMessage, Err: err}
	}

	return page, err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
