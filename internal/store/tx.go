package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/BharathRam125/QueueCTL/internal/domain"
)

// isBusyError reports whether err is SQLite signaling that another writer
// currently holds the reserved/exclusive lock. modernc.org/sqlite and most
// sqlite drivers surface this as a message rather than a typed sentinel, so
// matching on the well-known SQLite error text is the portable approach.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// withWriteTx runs fn inside a BEGIN IMMEDIATE transaction, which takes
// SQLite's reserved write lock up front so two concurrent callers are
// strictly serialized rather than racing to upgrade a deferred transaction
// mid-flight. If the lock can't be acquired, it retries with bounded
// exponential backoff (per spec.md's "retried internally with bounded
// backoff"); once the budget is exhausted it returns ErrStoreBusy.
func (s *Store) withWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	bo := backoff.WithContext(backoff.WithMaxElapsedTime(backoff.NewExponentialBackOff(), s.busyRetryBudget), ctx)

	operation := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			if isBusyError(err) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			if isBusyError(err) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}

		if err := tx.Commit(); err != nil {
			if isBusyError(err) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}

		return nil
	}

	if err := backoff.Retry(operation, bo); err != nil {
		if isBusyError(err) {
			return domain.ErrStoreBusy
		}
		var perr *backoff.PermanentError
		if errors.As(err, &perr) {
			return perr.Unwrap()
		}
		return err
	}

	return nil
}
