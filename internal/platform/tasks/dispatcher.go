// Package tasks runs fire-and-forget background work off the request path.
// Booking confirmations, export rows and registration emails are submitted
// here so the HTTP response never waits on a slow downstream.
package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Task is a unit of background work. submit is the caller's context at
// Submit time; only its values are read (the tenant id), never its
// cancellation, since the request finishes before the task runs.
type Task struct {
	Name   string
	Run    func(ctx context.Context) error
	submit context.Context
}

// Scope derives the context a task runs with. base is the dispatcher's
// lifetime context, cancelled on shutdown; submit carries request-scoped
// values captured when the task was queued. The returned func releases
// whatever the scope acquired and runs after the task finishes.
type Scope func(base, submit context.Context) (context.Context, func(), error)

var ErrQueueFull = errors.New("task queue full")

// Dispatcher fans tasks out to a fixed pool of workers. A task that
// returns an error or panics is logged and dropped; it never affects
// the request that submitted it.
type Dispatcher struct {
	queue   chan Task
	logger  zerolog.Logger
	scope   Scope
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

type Option func(*Dispatcher)

// WithScope sets the per-task context scope, used to give every task a
// tenant-pinned database connection.
func WithScope(s Scope) Option {
	return func(d *Dispatcher) { d.scope = s }
}

func NewDispatcher(workers, queueSize int, logger zerolog.Logger, opts ...Option) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:  make(chan Task, queueSize),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, o := range opts {
		o(d)
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.started = true
	return d
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(task)
	}
	d.logger.Debug().Int("worker", id).Msg("task worker stopped")
}

func (d *Dispatcher) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("task", task.Name).
				Interface("panic", r).
				Msg("background task panicked")
		}
	}()

	ctx := d.ctx
	release := func() {}
	if d.scope != nil {
		var err error
		ctx, release, err = d.scope(d.ctx, task.submit)
		if err != nil {
			d.logger.Error().
				Str("task", task.Name).
				Err(err).
				Msg("background task scope setup failed")
			return
		}
	}
	defer release()

	if err := task.Run(ctx); err != nil {
		d.logger.Error().
			Str("task", task.Name).
			Err(err).
			Msg("background task failed")
		return
	}
	d.logger.Debug().Str("task", task.Name).Msg("background task completed")
}

// Submit enqueues a task without blocking. ctx is the caller's context,
// kept for its request-scoped values only. Returns ErrQueueFull when the
// queue is saturated; callers treat that as a degraded-mode signal, not a
// request failure.
func (d *Dispatcher) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// The mutex is held across the enqueue so Shutdown cannot close the
	// queue between the started check and the send.
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return errors.New("dispatcher stopped")
	}

	select {
	case d.queue <- Task{Name: name, Run: fn, submit: ctx}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting tasks, drains the queue and waits for workers
// to finish, or returns early when ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = false
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
