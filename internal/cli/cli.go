// Package cli implements the thin CLI surface of spec.md §4.5: flag
// parsing and table/text rendering only, with zero scheduling logic.
// Every command delegates to internal/controlapi and maps the returned
// error through domain.Kind for its exit code, matching the teacher's
// cmd/apikey flag-and-delegate style (no cobra; stdlib flag throughout).
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/BharathRam125/QueueCTL/internal/controlapi"
	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// App bundles the dependencies every CLI command needs.
type App struct {
	API    *controlapi.API
	Stdout io.Writer
	Stderr io.Writer
}

// Dispatch routes args (os.Args[1:]) to the matching command and returns
// the process exit code.
func (a *App) Dispatch(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.Stderr, "usage: queuectl <enqueue|list|status|dlq|config|worker> ...")
		return domain.KindValidation.ExitCode()
	}

	var err error
	switch args[0] {
	case "enqueue":
		err = a.runEnqueue(ctx, args[1:])
	case "list":
		err = a.runList(ctx, args[1:])
	case "status":
		err = a.runStatus(ctx, args[1:])
	case "dlq":
		err = a.runDLQ(ctx, args[1:])
	case "config":
		err = a.runConfig(ctx, args[1:])
	default:
		fmt.Fprintf(a.Stderr, "unknown command %q\n", args[0])
		return domain.KindValidation.ExitCode()
	}

	if err != nil {
		fmt.Fprintf(a.Stderr, "error: %v\n", err)
		return domain.Kind(err).ExitCode()
	}
	return 0
}

// enqueueWire is the JSON wire shape spec.md §6 defines for `enqueue <json>`:
// command is required, id and max_retries are optional.
type enqueueWire struct {
	ID         string `json:"id"`
	Command    string `json:"command"`
	MaxRetries *int   `json:"max_retries"`
}

func (a *App) runEnqueue(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: a JSON job object is required", domain.ErrValidation)
	}

	raw := strings.Join(args, " ")
	var wire enqueueWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return fmt.Errorf("%w: invalid enqueue JSON: %v", domain.ErrValidation, err)
	}

	req := controlapi.EnqueueRequest{ID: wire.ID, Command: wire.Command, MaxRetries: wire.MaxRetries}

	jobID, err := a.API.Enqueue(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Stdout, "Job %s enqueued: %s\n", jobID, req.Command)
	return nil
}

func (a *App) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	state := fs.String("state", "", "filter by state (pending, processing, failed, completed, dead)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	jobs, err := a.API.ListJobs(ctx, *state)
	if err != nil {
		return err
	}

	renderJobsTable(a.Stdout, jobs)
	return nil
}

func (a *App) runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "include storage footprint and stale-PROCESSING diagnostics")
	if err := fs.Parse(args); err != nil {
		return err
	}

	status, err := a.API.Status(ctx, *verbose)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Stdout, "store reachable: %t\n", status.StoreLive)

	table := tablewriter.NewWriter(a.Stdout)
	table.SetHeader([]string{"State", "Count"})
	for _, state := range []domain.JobState{
		domain.JobStatePending, domain.JobStateProcessing,
		domain.JobStateFailed, domain.JobStateCompleted, domain.JobStateDead,
	} {
		table.Append([]string{state.String(), strconv.Itoa(status.Counts[state])})
	}
	table.Render()

	fmt.Fprintf(a.Stdout, "\nworkers running: %d\n", len(status.Workers))
	for _, w := range status.Workers {
		fmt.Fprintf(a.Stdout, "  %s (pid %d, started %s)\n", w.WorkerID, w.PID, w.StartedAt.Format(time.RFC3339))
	}

	if status.Vacuum != nil {
		fmt.Fprintf(a.Stdout, "\nstore file size: %d bytes\n", status.Vacuum.FileSizeBytes)
		for _, table := range []string{"jobs", "config", "workers"} {
			fmt.Fprintf(a.Stdout, "  %s: %d rows\n", table, status.Vacuum.RowCounts[table])
		}
		fmt.Fprintf(a.Stdout, "stale processing jobs (claimed_by not registered): %d\n", status.StaleProcessing)
	}
	return nil
}

func (a *App) runDLQ(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: dlq requires a subcommand (list, retry)", domain.ErrValidation)
	}

	switch args[0] {
	case "list":
		jobs, err := a.API.ListDead(ctx)
		if err != nil {
			return err
		}
		renderJobsTable(a.Stdout, jobs)
		return nil
	case "retry":
		fs := flag.NewFlagSet("dlq retry", flag.ContinueOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return fmt.Errorf("%w: job id is required", domain.ErrValidation)
		}
		if err := a.API.RetryFromDLQ(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "requeued job %s\n", fs.Arg(0))
		return nil
	default:
		return fmt.Errorf("%w: unknown dlq subcommand %q", domain.ErrValidation, args[0])
	}
}

func (a *App) runConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: config requires a subcommand (get, set, list)", domain.ErrValidation)
	}

	switch args[0] {
	case "get":
		fs := flag.NewFlagSet("config get", flag.ContinueOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return fmt.Errorf("%w: config key is required", domain.ErrValidation)
		}
		value, err := a.API.GetConfig(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Stdout, value)
		return nil
	case "set":
		fs := flag.NewFlagSet("config set", flag.ContinueOnError)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 2 {
			return fmt.Errorf("%w: config set requires a key and a value", domain.ErrValidation)
		}
		if err := a.API.SetConfig(ctx, fs.Arg(0), fs.Arg(1)); err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "%s = %s\n", fs.Arg(0), fs.Arg(1))
		return nil
	case "list":
		values, err := a.API.ListConfig(ctx)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(a.Stdout)
		table.SetHeader([]string{"Key", "Value"})
		for _, key := range domain.KnownConfigKeys {
			table.Append([]string{key, values[key]})
		}
		table.Render()
		return nil
	default:
		return fmt.Errorf("%w: unknown config subcommand %q", domain.ErrValidation, args[0])
	}
}

func renderJobsTable(w io.Writer, jobs []domain.Job) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "State", "Attempts", "Updated", "Last Error"})
	for _, j := range jobs {
		table.Append([]string{
			j.ID,
			j.State.String(),
			fmt.Sprintf("%d/%d", j.Attempts, j.MaxRetries),
			j.UpdatedAt.Format(time.RFC3339),
			truncate(j.LastError, 60),
		})
	}
	table.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
