// Package scheduler runs a job once on start and then on every tick of a
// fixed interval until stopped.
package scheduler

import (
	"context"
	"sync"
	"time"

	"pncp/internal/logging"
)

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Job is one scheduled run. ctx is cancelled when the scheduler stops.
type Job func(ctx context.Context)

// Ticker is the part of *time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

type Scheduler struct {
	interval  time.Duration
	job       Job
	newTicker TickerFactory

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	ticker Ticker
	done   chan struct{}
}

type Option func(*Scheduler)

func WithTickerFactory(f TickerFactory) Option {
	return func(s *Scheduler) { s.newTicker = f }
}

func New(interval time.Duration, job Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval:  interval,
		job:       job,
		newTicker: NewTimeTicker,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start arms the ticker and runs the job right away. Starting a running
// scheduler only logs.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		logging.Info().Msg("scheduler already running")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.ticker = s.newTicker(s.interval)
	s.done = make(chan struct{})
	s.state = Running

	logging.Info().Dur("interval", s.interval).Msg("scheduler started")

	go s.loop(loopCtx, s.ticker, s.done)
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		// the parent ctx was cancelled without Stop
		if s.done == done && s.state == Running {
			s.state = Stopped
			s.cancel()
			ticker.Stop()
			logging.Info().Msg("scheduler stopped by context")
		}
		s.mu.Unlock()
		close(done)
	}()

	s.job(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			s.job(ctx)
		}
	}
}

// Stop cancels the running job's context, disarms the ticker and waits for
// the loop to return. Stopping a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}

	s.state = Stopped
	s.cancel()
	s.ticker.Stop()
	done := s.done
	s.mu.Unlock()

	<-done
	logging.Info().Msg("scheduler stopped")
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
