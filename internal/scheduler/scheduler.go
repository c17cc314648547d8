// Package scheduler implements the ScraperScheduler: it drives a Scraper on
// a fixed interval, guarantees at most one cycle in flight at a time, and
// supports graceful shutdown that aborts in-flight cycles at their next
// suspension point without committing a partial generation.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner is the subset of scraper.Scraper the scheduler depends on.
type Runner interface {
	Run(ctx context.Context) error
}

// Result records the outcome of the most recently completed cycle.
type Result struct {
	At  time.Time
	Err error
}

// Scheduler invokes a Runner on a fixed interval, skipping ticks that fire
// while the previous cycle is still in flight.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	log      *zap.Logger

	busy chan struct{} // capacity 1: non-blocking try-acquire

	mu   sync.Mutex
	last Result
}

// New creates a Scheduler that invokes runner every interval.
func New(runner Runner, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		log:      log,
		busy:     make(chan struct{}, 1),
	}
}

// LastResult returns the outcome of the most recently completed cycle, or
// the zero Result if none has completed yet.
func (s *Scheduler) LastResult() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run blocks, driving cycles on the configured interval until ctx is
// cancelled. An initial cycle fires immediately on entry.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: shutting down")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	select {
	case s.busy <- struct{}{}:
	default:
		s.log.Warn("scheduler: tick skipped, previous cycle still in flight")
		return
	}

	go func() {
		defer func() { <-s.busy }()

		err := s.runner.Run(ctx)

		s.mu.Lock()
		s.last = Result{At: time.Now(), Err: err}
		s.mu.Unlock()

		if err != nil {
			s.log.Error("scheduler: cycle failed, previous generation still serving", zap.Error(err))
		}
	}()
}
