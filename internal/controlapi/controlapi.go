// Package controlapi is the thin synchronous layer spec.md §4.4 calls
// ControlAPI: the one place CLI commands go through to reach the Store.
// Each method follows the teacher's thin-handler pattern (validate,
// delegate, map errors) but translates CLI-shaped requests instead of
// protobuf ones — there is no network transport here, queuectl's
// ControlAPI is an in-process Go interface.
package controlapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// Store is the subset of *store.Store the ControlAPI delegates to.
type Store interface {
	Enqueue(ctx context.Context, spec domain.JobSpec) (string, error)
	ListJobs(ctx context.Context, stateFilter domain.JobState) ([]domain.Job, error)
	CountsByState(ctx context.Context) (map[domain.JobState]int, error)
	RetryFromDLQ(ctx context.Context, jobID string) error
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	ListConfig(ctx context.Context) (map[string]string, error)
	ListWorkers(ctx context.Context) ([]domain.WorkerRegistration, error)
	Ping(ctx context.Context) error
	VacuumStats(ctx context.Context) (domain.VacuumStats, error)
}

// API is the ControlAPI: validate protocol-level input, delegate to the
// Store, and let domain.Kind do all error classification downstream.
type API struct {
	store Store
}

// New returns a ControlAPI backed by store.
func New(store Store) *API {
	return &API{store: store}
}

// EnqueueRequest carries the client-supplied fields for `queuectl enqueue`,
// mirroring the teacher's per-handler request-struct pattern
// (monov1.CreateItemRequest) generalized from protobuf to a plain struct.
type EnqueueRequest struct {
	ID         string
	Command    string
	MaxRetries *int
}

// Enqueue validates protocol-level requirements, then delegates to the
// Store.
func (a *API) Enqueue(ctx context.Context, req EnqueueRequest) (string, error) {
	if strings.TrimSpace(req.Command) == "" {
		return "", fmt.Errorf("%w: command is required", domain.ErrValidation)
	}

	return a.store.Enqueue(ctx, domain.JobSpec{
		ID:         req.ID,
		Command:    req.Command,
		MaxRetries: req.MaxRetries,
	})
}

// ListJobs returns jobs in the given state, or every job if stateFilter is
// empty. An explicit, non-empty stateFilter is validated against the
// known JobState set before reaching the Store.
func (a *API) ListJobs(ctx context.Context, stateFilter string) ([]domain.Job, error) {
	state, err := normalizeStateFilter(stateFilter)
	if err != nil {
		return nil, err
	}
	return a.store.ListJobs(ctx, state)
}

// ListDead is ListJobs pinned to the DEAD state, the CLI's `dlq list`.
func (a *API) ListDead(ctx context.Context) ([]domain.Job, error) {
	return a.store.ListJobs(ctx, domain.JobStateDead)
}

func normalizeStateFilter(raw string) (domain.JobState, error) {
	if raw == "" {
		return "", nil
	}
	state, err := domain.NewJobState(strings.ToLower(raw))
	if err != nil {
		return "", fmt.Errorf("%w: unknown state %q", domain.ErrValidation, raw)
	}
	return state, nil
}

// Status summarizes queue health for `queuectl status`. Vacuum and
// StaleProcessing are only populated when Status is called with
// verbose=true; SPEC_FULL.md §9 scopes both to `status --verbose`.
type Status struct {
	Counts          map[domain.JobState]int
	Workers         []domain.WorkerRegistration
	StoreLive       bool
	Vacuum          *domain.VacuumStats
	StaleProcessing int
}

// Status gathers job counts, registered workers, and a store liveness
// check in one call. When verbose is true it additionally gathers
// on-disk VacuumStats and counts PROCESSING jobs whose claimed_by worker
// is no longer registered — a diagnostic only, per SPEC_FULL.md §9's
// resolution of the stale-PROCESSING open question (no automatic reclaim).
func (a *API) Status(ctx context.Context, verbose bool) (Status, error) {
	counts, err := a.store.CountsByState(ctx)
	if err != nil {
		return Status{}, err
	}

	workers, err := a.store.ListWorkers(ctx)
	if err != nil {
		return Status{}, err
	}

	live := a.store.Ping(ctx) == nil

	status := Status{Counts: counts, Workers: workers, StoreLive: live}
	if !verbose {
		return status, nil
	}

	vacuum, err := a.store.VacuumStats(ctx)
	if err != nil {
		return Status{}, err
	}
	status.Vacuum = &vacuum

	processing, err := a.store.ListJobs(ctx, domain.JobStateProcessing)
	if err != nil {
		return Status{}, err
	}
	registered := make(map[string]bool, len(workers))
	for _, w := range workers {
		registered[w.WorkerID] = true
	}
	for _, j := range processing {
		if !registered[j.ClaimedBy] {
			status.StaleProcessing++
		}
	}

	return status, nil
}

// RetryFromDLQ validates jobID is non-empty, then delegates to the Store.
func (a *API) RetryFromDLQ(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	return a.store.RetryFromDLQ(ctx, jobID)
}

// GetConfig validates key is known, then delegates to the Store.
func (a *API) GetConfig(ctx context.Context, key string) (string, error) {
	if !domain.ValidConfigKey(key) {
		return "", domain.ConfigKeyError(key)
	}
	return a.store.GetConfig(ctx, key)
}

// SetConfig validates key is known and value parses as a non-negative
// integer (every known config key is numeric), then delegates.
func (a *API) SetConfig(ctx context.Context, key, value string) error {
	if !domain.ValidConfigKey(key) {
		return domain.ConfigKeyError(key)
	}
	if n, err := strconv.Atoi(value); err != nil || n < 0 {
		return fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrValidation, key, value)
	}
	return a.store.SetConfig(ctx, key, value)
}

// ListConfig returns every known config key and its effective value.
func (a *API) ListConfig(ctx context.Context) (map[string]string, error) {
	return a.store.ListConfig(ctx)
}
