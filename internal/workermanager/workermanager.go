// Package workermanager starts and supervises a pool of worker OS
// processes, per spec.md §4.3. Each worker is a full re-exec of the
// queuectl binary itself (os.Executable()) running in hidden "worker-run"
// mode, not a goroutine — the spec requires independent OS processes so
// one worker crashing cannot take siblings down with it.
package workermanager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// WorkerRunFlag is the hidden flag value cmd/queuectl's dispatcher
// recognizes to mean "don't parse CLI args, just run as a worker with
// this id" — the counterpart to the process this package spawns.
const WorkerRunFlag = "--worker-run"

// Config configures a pool of worker processes, following the teacher's
// WorkerConfig shape (internal/application/worker.WorkerConfig).
type Config struct {
	// Count is how many worker processes to run concurrently.
	Count int
	// DBPath is passed through to each worker via QUEUECTL_DB_PATH so
	// every worker opens the same store file.
	DBPath string
	// Foreground keeps worker processes attached to this process's
	// stdio and blocks Manager.Run until they all exit; otherwise
	// workers are daemonized (detached stdio, new session).
	Foreground bool
}

// Store is the subset of the store Manager needs to track worker PIDs
// for `queuectl worker stop`.
type Store interface {
	ListWorkers(ctx context.Context) ([]domain.WorkerRegistration, error)
}

// Manager owns a pool of worker processes spawned from the running
// binary.
type Manager struct {
	cfg   Config
	store Store

	mu   sync.Mutex
	cmds []*exec.Cmd
}

// New returns a Manager ready to spawn cfg.Count worker processes.
func New(cfg Config, store Store) *Manager {
	return &Manager{cfg: cfg, store: store}
}

// Start spawns the configured number of worker processes and returns
// immediately (each worker registers itself with the Store once running).
// Run calls Start and, in foreground mode, then waits for the workers.
func (m *Manager) Start(ctx context.Context) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve worker executable: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < m.cfg.Count; i++ {
		workerID := fmt.Sprintf("worker-%d-%d", os.Getpid(), i)

		cmd := exec.Command(exePath, WorkerRunFlag, workerID)
		cmd.Env = append(os.Environ(), "QUEUECTL_DB_PATH="+m.cfg.DBPath)

		if m.cfg.Foreground {
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
		} else {
			cmd.Stdout = nil
			cmd.Stderr = nil
			cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		}

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to start worker %s: %w", workerID, err)
		}

		slog.Info("spawned worker process", "worker_id", workerID, "pid", cmd.Process.Pid)
		m.cmds = append(m.cmds, cmd)
	}

	return nil
}

// Run starts the pool and, in foreground mode, blocks until every worker
// exits. When ctx is cancelled or SIGINT/SIGTERM arrives, it forwards
// SIGTERM to all workers and keeps waiting for them to exit. In background
// (daemonized) mode, Run starts the pool and
// returns immediately, leaving the workers running independently.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	if !m.cfg.Foreground {
		return nil
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, _ := errgroup.WithContext(context.Background())
	m.mu.Lock()
	cmds := append([]*exec.Cmd(nil), m.cmds...)
	m.mu.Unlock()

	for _, cmd := range cmds {
		cmd := cmd
		g.Go(func() error {
			return cmd.Wait()
		})
	}

	go func() {
		<-sigCtx.Done()
		slog.Info("forwarding shutdown signal to workers")
		m.Signal(syscall.SIGTERM)
	}()

	return g.Wait()
}

// Signal forwards sig to every worker process this Manager started.
func (m *Manager) Signal(sig syscall.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cmd := range m.cmds {
		if cmd.Process == nil {
			continue
		}
		if err := syscall.Kill(cmd.Process.Pid, sig); err != nil {
			slog.Warn("failed to signal worker", "pid", cmd.Process.Pid, "error", err)
		}
	}
}

// StopRegistered signals every worker currently registered in the Store
// (used by `queuectl worker stop`, which runs in a fresh process with no
// in-memory record of the workers a prior `worker start` spawned).
func StopRegistered(ctx context.Context, store Store) (int, error) {
	workers, err := store.ListWorkers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list workers: %w", err)
	}

	stopped := 0
	for _, w := range workers {
		if err := syscall.Kill(w.PID, syscall.SIGTERM); err != nil {
			slog.Warn("failed to signal worker", "worker_id", w.WorkerID, "pid", w.PID, "error", err)
			continue
		}
		stopped++
	}

	return stopped, nil
}

// WaitForExit blocks until the process at pid is no longer signalable, or
// timeout elapses, whichever comes first. It reports true if the process
// exited within the timeout. Nothing in queuectl calls it at present.
func WaitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); err != nil {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
