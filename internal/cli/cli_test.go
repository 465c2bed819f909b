package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BharathRam125/QueueCTL/internal/controlapi"
	"github.com/BharathRam125/QueueCTL/internal/domain"
)

type fakeStore struct {
	enqueued []domain.JobSpec
	jobs     []domain.Job
	config   map[string]string
}

func (f *fakeStore) Enqueue(ctx context.Context, spec domain.JobSpec) (string, error) {
	f.enqueued = append(f.enqueued, spec)
	return "job-123", nil
}

func (f *fakeStore) ListJobs(ctx context.Context, stateFilter domain.JobState) ([]domain.Job, error) {
	if stateFilter == "" {
		return f.jobs, nil
	}
	var out []domain.Job
	for _, j := range f.jobs {
		if j.State == stateFilter {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeStore) CountsByState(ctx context.Context) (map[domain.JobState]int, error) {
	return map[domain.JobState]int{}, nil
}

func (f *fakeStore) RetryFromDLQ(ctx context.Context, jobID string) error { return nil }

func (f *fakeStore) GetConfig(ctx context.Context, key string) (string, error) {
	return f.config[key], nil
}

func (f *fakeStore) SetConfig(ctx context.Context, key, value string) error {
	f.config[key] = value
	return nil
}

func (f *fakeStore) ListConfig(ctx context.Context) (map[string]string, error) {
	return f.config, nil
}

func (f *fakeStore) ListWorkers(ctx context.Context) ([]domain.WorkerRegistration, error) {
	return nil, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) VacuumStats(ctx context.Context) (domain.VacuumStats, error) {
	return domain.VacuumStats{RowCounts: map[string]int{}}, nil
}

func newTestApp() (*App, *fakeStore, *bytes.Buffer, *bytes.Buffer) {
	fs := &fakeStore{config: map[string]string{}}
	var stdout, stderr bytes.Buffer
	app := &App{API: controlapi.New(fs), Stdout: &stdout, Stderr: &stderr}
	return app, fs, &stdout, &stderr
}

func TestDispatch_EnqueueRequiresCommand(t *testing.T) {
	app, _, _, _ := newTestApp()
	code := app.Dispatch(context.Background(), []string{"enqueue"})
	assert.Equal(t, domain.KindValidation.ExitCode(), code)
}

func TestDispatch_Enqueue(t *testing.T) {
	app, fs, stdout, _ := newTestApp()
	code := app.Dispatch(context.Background(), []string{"enqueue", `{"id":"j1","command":"echo hi"}`})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "job-123")
	require.Len(t, fs.enqueued, 1)
	assert.Equal(t, "j1", fs.enqueued[0].ID)
	assert.Equal(t, "echo hi", fs.enqueued[0].Command)
}

func TestDispatch_Enqueue_RejectsInvalidJSON(t *testing.T) {
	app, _, _, _ := newTestApp()
	code := app.Dispatch(context.Background(), []string{"enqueue", "not json"})
	assert.Equal(t, domain.KindValidation.ExitCode(), code)
}

func TestDispatch_Enqueue_JoinsSplitArgsBeforeParsing(t *testing.T) {
	// A shell that doesn't quote the JSON splits it into multiple argv
	// entries at each whitespace; runEnqueue rejoins them with spaces
	// before parsing so the object still round-trips correctly.
	app, fs, _, _ := newTestApp()
	code := app.Dispatch(context.Background(), []string{"enqueue", `{"command":"echo`, `ok"}`})
	require.Equal(t, 0, code)
	require.Len(t, fs.enqueued, 1)
	assert.Equal(t, "echo ok", fs.enqueued[0].Command)
}

func TestDispatch_Status_Verbose(t *testing.T) {
	app, _, stdout, _ := newTestApp()
	code := app.Dispatch(context.Background(), []string{"status", "--verbose"})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "stale processing jobs")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	app, _, _, stderr := newTestApp()
	code := app.Dispatch(context.Background(), []string{"frobnicate"})
	assert.Equal(t, domain.KindValidation.ExitCode(), code)
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestDispatch_ConfigSetAndGet(t *testing.T) {
	app, _, stdout, _ := newTestApp()
	code := app.Dispatch(context.Background(), []string{"config", "set", domain.ConfigMaxRetries, "5"})
	require.Equal(t, 0, code)

	stdout.Reset()
	code = app.Dispatch(context.Background(), []string{"config", "get", domain.ConfigMaxRetries})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "5")
}

func TestDispatch_DLQList(t *testing.T) {
	app, fs, stdout, _ := newTestApp()
	fs.jobs = []domain.Job{{ID: "dead-1", State: domain.JobStateDead}}

	code := app.Dispatch(context.Background(), []string{"dlq", "list"})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "dead-1")
}
