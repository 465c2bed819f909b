package controlapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BharathRam125/QueueCTL/internal/domain"
	"github.com/BharathRam125/QueueCTL/internal/ptr"
)

type fakeStore struct {
	enqueued    []domain.JobSpec
	jobs        []domain.Job
	config      map[string]string
	workers     []domain.WorkerRegistration
	pingErr     error
	retryTarget string
	vacuum      domain.VacuumStats
	vacuumErr   error
}

func (f *fakeStore) Enqueue(ctx context.Context, spec domain.JobSpec) (string, error) {
	f.enqueued = append(f.enqueued, spec)
	return "generated-id", nil
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
	return map[domain.JobState]int{domain.JobStatePending: len(f.jobs)}, nil
}

func (f *fakeStore) RetryFromDLQ(ctx context.Context, jobID string) error {
	f.retryTarget = jobID
	return nil
}

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
	return f.workers, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) VacuumStats(ctx context.Context) (domain.VacuumStats, error) {
	return f.vacuum, f.vacuumErr
}

func newFakeStore() *fakeStore {
	return &fakeStore{config: map[string]string{}}
}

func TestAPI_Enqueue_RejectsEmptyCommand(t *testing.T) {
	api := New(newFakeStore())
	_, err := api.Enqueue(context.Background(), EnqueueRequest{Command: "  "})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.Kind(err))
}

func TestAPI_Enqueue_Delegates(t *testing.T) {
	fs := newFakeStore()
	api := New(fs)
	id, err := api.Enqueue(context.Background(), EnqueueRequest{Command: "echo hi"})
	require.NoError(t, err)
	assert.Equal(t, "generated-id", id)
	require.Len(t, fs.enqueued, 1)
	assert.Equal(t, "echo hi", fs.enqueued[0].Command)
}

func TestAPI_Enqueue_PassesThroughMaxRetries(t *testing.T) {
	fs := newFakeStore()
	api := New(fs)
	_, err := api.Enqueue(context.Background(), EnqueueRequest{Command: "echo hi", MaxRetries: ptr.To(5)})
	require.NoError(t, err)
	require.Len(t, fs.enqueued, 1)
	require.NotNil(t, fs.enqueued[0].MaxRetries)
	assert.Equal(t, 5, ptr.Deref(fs.enqueued[0].MaxRetries, -1))
}

func TestAPI_ListJobs_RejectsUnknownState(t *testing.T) {
	api := New(newFakeStore())
	_, err := api.ListJobs(context.Background(), "not-a-state")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.Kind(err))
}

func TestAPI_ListJobs_FiltersByState(t *testing.T) {
	fs := newFakeStore()
	fs.jobs = []domain.Job{
		{ID: "a", State: domain.JobStatePending},
		{ID: "b", State: domain.JobStateDead},
	}
	api := New(fs)

	dead, err := api.ListJobs(context.Background(), "dead")
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "b", dead[0].ID)
}

func TestAPI_Status_AggregatesCountsWorkersAndLiveness(t *testing.T) {
	fs := newFakeStore()
	fs.jobs = []domain.Job{{ID: "a"}}
	fs.workers = []domain.WorkerRegistration{{WorkerID: "w1", PID: 42}}

	api := New(fs)
	st, err := api.Status(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, st.StoreLive)
	assert.Len(t, st.Workers, 1)
	assert.Equal(t, 1, st.Counts[domain.JobStatePending])
	assert.Nil(t, st.Vacuum)
}

func TestAPI_Status_Verbose_IncludesVacuumStats(t *testing.T) {
	fs := newFakeStore()
	fs.vacuum = domain.VacuumStats{FileSizeBytes: 4096, RowCounts: map[string]int{"jobs": 2}}

	api := New(fs)
	st, err := api.Status(context.Background(), true)
	require.NoError(t, err)
	require.NotNil(t, st.Vacuum)
	assert.Equal(t, int64(4096), st.Vacuum.FileSizeBytes)
	assert.Equal(t, 2, st.Vacuum.RowCounts["jobs"])
}

func TestAPI_Status_Verbose_CountsStaleProcessingJobs(t *testing.T) {
	fs := newFakeStore()
	fs.jobs = []domain.Job{
		{ID: "a", State: domain.JobStateProcessing, ClaimedBy: "w1"},
		{ID: "b", State: domain.JobStateProcessing, ClaimedBy: "ghost"},
		{ID: "c", State: domain.JobStateCompleted},
	}
	fs.workers = []domain.WorkerRegistration{{WorkerID: "w1", PID: 42}}

	api := New(fs)
	st, err := api.Status(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, st.StaleProcessing)
}

func TestAPI_SetConfig_RejectsNonNumeric(t *testing.T) {
	api := New(newFakeStore())
	err := api.SetConfig(context.Background(), domain.ConfigMaxRetries, "not-a-number")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.Kind(err))
}

func TestAPI_SetConfig_RejectsUnknownKey(t *testing.T) {
	api := New(newFakeStore())
	err := api.SetConfig(context.Background(), "bogus_key", "5")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.Kind(err))
}

func TestAPI_RetryFromDLQ_RejectsEmptyID(t *testing.T) {
	api := New(newFakeStore())
	err := api.RetryFromDLQ(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.Kind(err))
}
