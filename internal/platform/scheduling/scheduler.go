// Package scheduling runs the recurring reminder jobs: next-day appointment
// reminders and follow-up visit reminders. Jobs run on a fixed interval;
// each item is processed independently so one bad row never stops the run.
package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Clock abstracts time for tests. Tick returns the tick channel and a stop
// func releasing the underlying ticker.
type Clock interface {
	Now() time.Time
	Tick(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Job is one recurring unit of work, e.g. "send appointment reminders".
type Job struct {
	Name string
	Run  func(ctx context.Context, now time.Time) error
}

// Scheduler runs its jobs once at startup and then on every interval tick
// until the context is cancelled.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	clock    Clock
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

type Option func(*Scheduler)

// WithClock substitutes the clock, used by tests to drive ticks manually.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func New(interval time.Duration, logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		clock:    realClock{},
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds a job. Call before Start.
func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches the scheduler loop. It returns immediately; cancel ctx to
// stop, then Wait to block until the in-flight run finishes.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.runAll(ctx)

		ticks, stop := s.clock.Tick(s.interval)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				s.runAll(ctx)
			}
		}
	}()
}

// Wait blocks until the scheduler loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runAll(ctx context.Context) {
	now := s.clock.Now()
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := job.Run(ctx, now); err != nil {
			s.logger.Error().
				Str("job", job.Name).
				Err(err).
				Msg("scheduled job failed")
			continue
		}
		s.logger.Info().
			Str("job", job.Name).
			Dur("took", time.Since(start)).
			Msg("scheduled job completed")
	}
}
