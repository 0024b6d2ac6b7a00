package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"workpassport/internal/bootstrap/logging"
	"workpassport/internal/errs"
)

// SweepFunc performs one full sweep of pending work. Errors mean "zero
// progress this iteration" and are logged by the runner, never fatal.
type SweepFunc func(ctx context.Context) error

// Runner drives a single agent: one goroutine, strictly sequential
// sweeps separated by a fixed interval. Both monitoring agents run on
// their own Runner with no shared mutable state.
type Runner struct {
	name     string
	interval time.Duration
	sweep    SweepFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRunner(name string, interval time.Duration, sweep SweepFunc) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		sweep:    sweep,
	}
}

// Start launches the loop. Calling Start while already running is a
// reported no-op, not an error.
func (r *Runner) Start(ctx context.Context) {
	logCtx := logging.WithAttrs(ctx, slog.String("agent", r.name))

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		logging.Warn(logCtx, "agent already running")
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	logging.Info(logCtx, "agent started", slog.Duration("interval", r.interval))

	go r.loop(logCtx, stopCh, doneCh)
}

func (r *Runner) loop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.sweep(ctx); err != nil {
			// A failed sweep must not kill the agent; the next tick
			// retries from the unadvanced checkpoint.
			logging.Error(ctx, "sweep failed", slog.Any("err", errs.Loggable(err)))
		}

		select {
		case <-ctx.Done():
			logging.Info(ctx, "agent stopped", slog.String("cause", "context canceled"))
			return
		case <-stopCh:
			logging.Info(ctx, "agent stopped")
			return
		case <-ticker.C:
		}
	}
}

// Stop requests graceful termination and waits for the in-flight sweep
// to complete. It is idempotent and safe to call at any time.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	doneCh := r.doneCh
	r.mu.Unlock()

	<-doneCh
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
