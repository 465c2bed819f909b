package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// RegisterWorker records a running worker's pid, so WorkerManager can find
// and signal it later (e.g. on `queuectl worker stop`).
func (s *Store) RegisterWorker(ctx context.Context, workerID string, pid int) error {
	nowStr := formatTime(time.Now())

	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workers (worker_id, pid, started_at) VALUES (?, ?, ?)
			ON CONFLICT(worker_id) DO UPDATE SET pid = excluded.pid, started_at = excluded.started_at
		`, workerID, pid, nowStr)
		return err
	})
}

// UnregisterWorker removes a worker's registration on clean shutdown.
func (s *Store) UnregisterWorker(ctx context.Context, workerID string) error {
	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM workers WHERE worker_id = ?`, workerID)
		return err
	})
}

// ListWorkers returns every registered worker.
func (s *Store) ListWorkers(ctx context.Context) ([]domain.WorkerRegistration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT worker_id, pid, started_at FROM workers ORDER BY started_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WorkerRegistration
	for rows.Next() {
		var w domain.WorkerRegistration
		var startedAt string
		if err := rows.Scan(&w.WorkerID, &w.PID, &startedAt); err != nil {
			return nil, err
		}
		t, err := parseTime(startedAt)
		if err != nil {
			return nil, err
		}
		w.StartedAt = t
		out = append(out, w)
	}
	return out, rows.Err()
}
