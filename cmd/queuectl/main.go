// queuectl is a persistent local job queue: producers enqueue shell
// commands, a pool of worker processes executes them with atomic
// claim-and-retry semantics, and permanently failing jobs land in a dead
// letter queue for manual review.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BharathRam125/QueueCTL/internal/cli"
	"github.com/BharathRam125/QueueCTL/internal/config"
	"github.com/BharathRam125/QueueCTL/internal/controlapi"
	"github.com/BharathRam125/QueueCTL/internal/store"
	"github.com/BharathRam125/QueueCTL/internal/worker"
	"github.com/BharathRam125/QueueCTL/internal/workermanager"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}

	args := os.Args[1:]

	// Hidden re-exec entrypoint: workermanager.Start launches copies of
	// this same binary with --worker-run <id>, which never goes through
	// the normal CLI dispatcher.
	if len(args) >= 2 && args[0] == workermanager.WorkerRunFlag {
		return runWorker(ctx, cfg, args[1])
	}

	if len(args) >= 1 && args[0] == "worker" {
		return runWorkerCommand(ctx, cfg, args[1:])
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		return 2
	}
	defer s.Close()

	app := &cli.App{
		API:    controlapi.New(s),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	return app.Dispatch(ctx, args)
}

// openStore opens the store honoring cfg.BusyRetryBudget, falling back to
// the store package's default if the configured value doesn't parse.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	budget, err := time.ParseDuration(cfg.BusyRetryBudget)
	if err != nil {
		slog.Warn("invalid busy retry budget, using default", "value", cfg.BusyRetryBudget, "error", err)
		budget = 0
	}
	return store.OpenWithOptions(ctx, cfg.DBPath, budget)
}

// runWorker runs a single worker process to completion (until SIGTERM).
// This is what workermanager spawns, never invoked directly by a user. It
// installs its own signal handling rather than inheriting ctx, since it
// runs as an independent OS process that workermanager signals directly
// (see workermanager.Manager.Signal) — without this, the untrapped
// default disposition would kill the process outright instead of letting
// Worker.Run finish its in-flight job and unregister.
func runWorker(ctx context.Context, cfg *config.Config, workerID string) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("worker failed to open store", "error", err)
		return 2
	}
	defer s.Close()

	opts := []worker.Option{}
	if poll, err := time.ParseDuration(cfg.PollInterval); err != nil {
		slog.Warn("invalid poll interval, using default", "value", cfg.PollInterval, "error", err)
	} else {
		opts = append(opts, worker.WithPollInterval(poll))
	}

	w := worker.New(workerID, os.Getpid(), s, opts...)
	if err := w.Run(ctx); err != nil {
		slog.Error("worker exited with error", "worker_id", workerID, "error", err)
		return 2
	}
	return 0
}

// runWorkerCommand handles `queuectl worker start|stop`.
func runWorkerCommand(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: queuectl worker <start|stop> [flags]")
		return 1
	}

	switch args[0] {
	case "start":
		return runWorkerStart(ctx, cfg, args[1:])
	case "stop":
		return runWorkerStop(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown worker subcommand %q\n", args[0])
		return 1
	}
}

func runWorkerStart(ctx context.Context, cfg *config.Config, args []string) int {
	count := 1
	foreground := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--count":
			if i+1 < len(args) {
				fmt.Sscanf(args[i+1], "%d", &count)
				i++
			}
		case "--foreground":
			foreground = true
		}
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		return 2
	}
	defer s.Close()

	mgr := workermanager.New(workermanager.Config{
		Count:      count,
		DBPath:     cfg.DBPath,
		Foreground: foreground,
	}, s)

	if err := mgr.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "worker manager exited with error: %v\n", err)
		return 2
	}
	return 0
}

func runWorkerStop(ctx context.Context, cfg *config.Config) int {
	s, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		return 2
	}
	defer s.Close()

	stopped, err := workermanager.StopRegistered(ctx, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop workers: %v\n", err)
		return 2
	}

	fmt.Printf("signaled %d worker(s) to stop\n", stopped)
	return 0
}
