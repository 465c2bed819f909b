package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// Enqueue inserts a new PENDING job. If spec.ID collides with an existing
// row, it returns domain.ErrDuplicateID. If spec.ID is empty, a fresh id is
// generated. spec.MaxRetries defaults to the configured max_retries key.
func (s *Store) Enqueue(ctx context.Context, spec domain.JobSpec) (string, error) {
	command := strings.TrimSpace(spec.Command)
	if command == "" {
		return "", fmt.Errorf("%w: command must not be empty", domain.ErrValidation)
	}

	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	maxRetries := spec.MaxRetries
	var err error
	var resolvedMaxRetries int
	if maxRetries != nil {
		resolvedMaxRetries = *maxRetries
	} else {
		resolvedMaxRetries, err = s.maxRetriesDefault(ctx)
		if err != nil {
			return "", err
		}
	}

	now := time.Now()
	nowStr := formatTime(now)

	err = s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO jobs (id, command, state, attempts, max_retries, run_at, created_at, updated_at, started_at, claimed_by, last_error)
			VALUES (?, ?, ?, 0, ?, ?, ?, ?, NULL, NULL, NULL)
		`, id, command, domain.JobStatePending, resolvedMaxRetries, nowStr, nowStr, nowStr)
		return execErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		return "", err
	}

	return id, nil
}

func (s *Store) maxRetriesDefault(ctx context.Context) (int, error) {
	val, err := s.GetConfig(ctx, domain.ConfigMaxRetries)
	if err != nil {
		return 0, err
	}
	if val == "" {
		return domain.DefaultMaxRetries, nil
	}
	var n int
	if _, scanErr := fmt.Sscanf(val, "%d", &n); scanErr != nil {
		return domain.DefaultMaxRetries, nil
	}
	return n, nil
}

func (s *Store) backoffBase(ctx context.Context) (int, error) {
	val, err := s.GetConfig(ctx, domain.ConfigBackoffBase)
	if err != nil {
		return 0, err
	}
	if val == "" {
		return domain.DefaultBackoffBase, nil
	}
	var n int
	if _, scanErr := fmt.Sscanf(val, "%d", &n); scanErr != nil {
		return domain.DefaultBackoffBase, nil
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ClaimNextJob is the atomic fetch-and-claim: under a BEGIN IMMEDIATE
// transaction it selects the oldest eligible job (PENDING, or FAILED with
// run_at <= now), transitions it to PROCESSING, and returns it. Returns
// (nil, nil) if no job is eligible. A busy write lock is retried internally
// (withWriteTx) and surfaces as domain.ErrStoreBusy if the retry budget is
// exhausted; workers treat that identically to "no job available".
func (s *Store) ClaimNextJob(ctx context.Context, workerID string) (*domain.Job, error) {
	var claimed *domain.Job

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		nowStr := formatTime(now)

		row := tx.QueryRowContext(ctx, `
			SELECT id FROM jobs
			WHERE state = ?
			   OR (state = ? AND run_at <= ?)
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		`, domain.JobStatePending, domain.JobStateFailed, nowStr)

		var id string
		if err := row.Scan(&id); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE jobs
			SET state = ?, started_at = ?, updated_at = ?, claimed_by = ?
			WHERE id = ?
		`, domain.JobStateProcessing, nowStr, nowStr, workerID, id)
		if err != nil {
			return err
		}

		job, err := scanJobTx(ctx, tx, id)
		if err != nil {
			return err
		}
		claimed = job
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

// CompleteJob transitions PROCESSING -> COMPLETED. Returns
// domain.ErrInvalidTransition if the job is not currently PROCESSING.
func (s *Store) CompleteJob(ctx context.Context, jobID string) error {
	nowStr := formatTime(time.Now())

	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET state = ?, updated_at = ?
			WHERE id = ? AND state = ?
		`, domain.JobStateCompleted, nowStr, jobID, domain.JobStateProcessing)
		if err != nil {
			return err
		}
		return requireRowAffected(res, jobID)
	})
}

// FailJob transitions PROCESSING -> FAILED (with backoff-scheduled run_at)
// or PROCESSING -> DEAD, depending on whether the incremented attempt count
// exceeds max_retries. Returns domain.ErrInvalidTransition if the job is
// not currently PROCESSING.
func (s *Store) FailJob(ctx context.Context, jobID, errorText string) error {
	base, err := s.backoffBase(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	nowStr := formatTime(now)

	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		var attempts, maxRetries int
		row := tx.QueryRowContext(ctx, `
			SELECT attempts, max_retries FROM jobs WHERE id = ? AND state = ?
		`, jobID, domain.JobStateProcessing)
		if err := row.Scan(&attempts, &maxRetries); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: job %s is not processing", domain.ErrInvalidTransition, jobID)
			}
			return err
		}

		newAttempts := attempts + 1

		if newAttempts > maxRetries {
			_, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET state = ?, attempts = ?, run_at = NULL, last_error = ?, updated_at = ?
				WHERE id = ?
			`, domain.JobStateDead, newAttempts, errorText, nowStr, jobID)
			return err
		}

		runAt := now.Add(domain.BackoffDelay(base, newAttempts))
		_, err := tx.ExecContext(ctx, `
			UPDATE jobs
			SET state = ?, attempts = ?, run_at = ?, last_error = ?, updated_at = ?
			WHERE id = ?
		`, domain.JobStateFailed, newAttempts, formatTime(runAt), errorText, nowStr, jobID)
		return err
	})
}

// RetryFromDLQ transitions DEAD -> PENDING, resetting attempts to 0 and
// run_at to now, and clearing last_error. Returns domain.ErrNotFound if the
// job doesn't exist, domain.ErrNotDead if it exists but isn't DEAD.
func (s *Store) RetryFromDLQ(ctx context.Context, jobID string) error {
	nowStr := formatTime(time.Now())

	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		var state string
		row := tx.QueryRowContext(ctx, `SELECT state FROM jobs WHERE id = ?`, jobID)
		if err := row.Scan(&state); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: job %s", domain.ErrNotFound, jobID)
			}
			return err
		}
		if domain.JobState(state) != domain.JobStateDead {
			return fmt.Errorf("%w: job %s is %s", domain.ErrNotDead, jobID, state)
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE jobs
			SET state = ?, attempts = 0, run_at = ?, last_error = NULL, updated_at = ?
			WHERE id = ?
		`, domain.JobStatePending, nowStr, nowStr, jobID)
		return err
	})
}

// ListJobs returns jobs matching stateFilter (or all jobs if stateFilter is
// empty), ordered by updated_at descending.
func (s *Store) ListJobs(ctx context.Context, stateFilter domain.JobState) ([]domain.Job, error) {
	var rows *sql.Rows
	var err error
	if stateFilter == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY updated_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE state = ? ORDER BY updated_at DESC`, stateFilter)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountsByState returns the number of jobs in each state, including states
// with zero jobs.
func (s *Store) CountsByState(ctx context.Context) (map[domain.JobState]int, error) {
	counts := map[domain.JobState]int{
		domain.JobStatePending:    0,
		domain.JobStateProcessing: 0,
		domain.JobStateFailed:     0,
		domain.JobStateCompleted:  0,
		domain.JobStateDead:       0,
	}

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[domain.JobState(state)] = count
	}
	return counts, rows.Err()
}

const jobColumns = `id, command, state, attempts, max_retries, run_at, created_at, updated_at, started_at, claimed_by, last_error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(sc rowScanner) (domain.Job, error) {
	var j domain.Job
	var runAt sql.NullString
	var startedAt sql.NullString
	var claimedBy sql.NullString
	var lastError sql.NullString
	var createdAt, updatedAt, stateStr string

	if err := sc.Scan(&j.ID, &j.Command, &stateStr, &j.Attempts, &j.MaxRetries,
		&runAt, &createdAt, &updatedAt, &startedAt, &claimedBy, &lastError); err != nil {
		return domain.Job{}, err
	}

	j.State = domain.JobState(stateStr)

	ct, err := parseTime(createdAt)
	if err != nil {
		return domain.Job{}, err
	}
	j.CreatedAt = ct

	ut, err := parseTime(updatedAt)
	if err != nil {
		return domain.Job{}, err
	}
	j.UpdatedAt = ut

	if runAt.Valid {
		rt, err := parseTime(runAt.String)
		if err != nil {
			return domain.Job{}, err
		}
		j.RunAt = rt
	}

	if startedAt.Valid {
		st, err := parseTime(startedAt.String)
		if err != nil {
			return domain.Job{}, err
		}
		j.StartedAt = &st
	}

	if claimedBy.Valid {
		j.ClaimedBy = claimedBy.String
	}
	if lastError.Valid {
		j.LastError = lastError.String
	}

	return j, nil
}

func scanJobTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Job, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func requireRowAffected(res sql.Result, jobID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: job %s", domain.ErrInvalidTransition, jobID)
	}
	return nil
}
