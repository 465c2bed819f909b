// Package worker implements the single-process claim/execute/report loop
// spec.md §4.2 describes. A Worker is always run inside its own OS
// process (see internal/workermanager); it knows nothing about its
// siblings.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/BharathRam125/QueueCTL/internal/domain"
	"github.com/BharathRam125/QueueCTL/internal/executor"
)

// Store is the subset of *store.Store a Worker needs. Declared here so
// tests can substitute a fake instead of a real SQLite file.
type Store interface {
	ClaimNextJob(ctx context.Context, workerID string) (*domain.Job, error)
	CompleteJob(ctx context.Context, jobID string) error
	FailJob(ctx context.Context, jobID, errorText string) error
	GetConfig(ctx context.Context, key string) (string, error)
	RegisterWorker(ctx context.Context, workerID string, pid int) error
	UnregisterWorker(ctx context.Context, workerID string) error
}

// Worker repeatedly claims and executes jobs until its context is
// cancelled.
type Worker struct {
	id      string
	pid     int
	store   Store
	exec    executor.JobExecutor
	limiter *rate.Limiter
}

// Option configures a Worker, following the teacher's functional-options
// style (internal/application/worker.Option).
type Option func(*Worker)

// WithPollInterval sets how frequently an idle worker polls for new work.
func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithExecutor overrides the JobExecutor, used in tests to avoid spawning
// real shells.
func WithExecutor(e executor.JobExecutor) Option {
	return func(w *Worker) {
		w.exec = e
	}
}

// New creates a Worker identified by id (used as claimed_by and as the
// workers-table registration key) and running under the given OS pid.
func New(id string, pid int, store Store, opts ...Option) *Worker {
	w := &Worker{
		id:      id,
		pid:     pid,
		store:   store,
		exec:    executor.NewShellExecutor(),
		limiter: rate.NewLimiter(rate.Every(1*time.Second), 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run registers the worker, then loops claim->execute->report until ctx is
// cancelled, unregistering on the way out. It never returns an error for
// "no job available" or for a busy store — both are treated as "nothing to
// do this tick" per spec.md §4.1/§4.2.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.store.RegisterWorker(ctx, w.id, w.pid); err != nil {
		return fmt.Errorf("failed to register worker %s: %w", w.id, err)
	}
	defer func() {
		// Use a background context: ctx is already cancelled by the time
		// shutdown runs, and unregistering is best-effort housekeeping.
		if err := w.store.UnregisterWorker(context.Background(), w.id); err != nil {
			slog.Warn("failed to unregister worker", "worker_id", w.id, "error", err)
		}
	}()

	slog.Info("worker started", "worker_id", w.id, "pid", w.pid)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker shutting down", "worker_id", w.id)
			return nil
		default:
		}

		worked, err := w.tick(ctx)
		if err != nil {
			slog.Error("worker tick failed", "worker_id", w.id, "error", err)
		}

		if !worked {
			if err := w.limiter.Wait(ctx); err != nil {
				return nil // context cancelled while waiting
			}
		}
	}
}

// tick claims at most one job and executes it; it reports whether a job
// was found (true) so Run can skip the idle-poll wait when work is
// plentiful.
func (w *Worker) tick(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob(ctx, w.id)
	if err != nil {
		if domain.Kind(err) == domain.KindStoreBusy {
			return false, nil
		}
		return false, err
	}
	if job == nil {
		return false, nil
	}

	slog.Info("claimed job", "worker_id", w.id, "job_id", job.ID, "attempt", job.Attempts+1)

	// Once a job is claimed it runs to completion even if the worker's own
	// shutdown context is cancelled mid-execution (spec.md's graceful
	// shutdown scenario: finish the in-flight job, report it, then exit).
	// Only the per-job timeout, not the worker's lifetime, bounds it.
	runCtx := context.WithoutCancel(ctx)

	timeout := w.execTimeout(runCtx)
	result, execErr := w.exec.Run(runCtx, job.Command, timeout)
	if execErr != nil {
		return true, w.store.FailJob(runCtx, job.ID, execErr.Error())
	}

	if result.Succeeded() {
		slog.Info("job completed", "worker_id", w.id, "job_id", job.ID, "duration", result.Duration)
		return true, w.store.CompleteJob(runCtx, job.ID)
	}

	slog.Warn("job failed", "worker_id", w.id, "job_id", job.ID, "exit_code", result.ExitCode)
	return true, w.store.FailJob(runCtx, job.ID, result.Summary())
}

func (w *Worker) execTimeout(ctx context.Context) time.Duration {
	val, err := w.store.GetConfig(ctx, domain.ConfigExecTimeoutS)
	if err != nil || val == "" {
		return 0
	}
	var seconds int
	if _, scanErr := fmt.Sscanf(val, "%d", &seconds); scanErr != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
