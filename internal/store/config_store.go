package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// GetConfig returns the stored value for key, or "" if it has never been
// set (callers fall back to the compiled-in default in that case).
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	row := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SetConfig upserts key=value. Returns domain.ErrValidation if key is not
// one of domain.KnownConfigKeys.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	if !domain.ValidConfigKey(key) {
		return domain.ConfigKeyError(key)
	}

	return s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO config (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return err
	})
}

// ListConfig returns every known config key and its effective value
// (stored value if set, compiled-in default otherwise).
func (s *Store) ListConfig(ctx context.Context) (map[string]string, error) {
	out := map[string]string{
		domain.ConfigMaxRetries:   fmt.Sprintf("%d", domain.DefaultMaxRetries),
		domain.ConfigBackoffBase:  fmt.Sprintf("%d", domain.DefaultBackoffBase),
		domain.ConfigExecTimeoutS: "0",
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}
