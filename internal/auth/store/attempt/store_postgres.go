package attempt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"signet/internal/auth/models"
)

// PostgresStore persists attempt records in PostgreSQL.
// This store is pure I/O—domain decisions (threshold, window length) belong
// in the lockout service. RecordFailure is a single conditional upsert so
// two concurrent failures cannot lose an increment.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed attempt store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*models.LoginAttemptRecord, error) {
	query := `
		SELECT user_id, failure_count, window_started_at, last_attempt_at
		FROM login_attempts
		WHERE user_id = $1
	`
	record, err := scanLoginAttempt(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get login attempts: %w", err)
	}
	return record, nil
}

// RecordFailure counts one failed sign-in for userID in one statement.
// The caller supplies the window cutoff (now minus the window length) to
// keep business rules out of the store; a row whose window started before
// the cutoff restarts at count 1 with a new window anchor.
func (s *PostgresStore) RecordFailure(ctx context.Context, userID string, now, cutoff time.Time) (*models.LoginAttemptRecord, error) {
	query := `
		INSERT INTO login_attempts (user_id, failure_count, window_started_at, last_attempt_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			failure_count = CASE
				WHEN login_attempts.window_started_at < $3 THEN 1
				ELSE login_attempts.failure_count + 1
			END,
			window_started_at = CASE
				WHEN login_attempts.window_started_at < $3 THEN EXCLUDED.window_started_at
				ELSE login_attempts.window_started_at
			END,
			last_attempt_at = EXCLUDED.last_attempt_at
		RETURNING user_id, failure_count, window_started_at, last_attempt_at
	`
	record, err := scanLoginAttempt(s.db.QueryRowContext(ctx, query, userID, now, cutoff))
	if err != nil {
		return nil, fmt.Errorf("record login failure: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear login attempts: %w", err)
	}
	return nil
}

// PurgeExpired deletes records whose last attempt predates cutoff and
// returns how many rows were dropped. The cutoff is provided by the caller
// to keep business rules (window length, retention grace) out of the store.
func (s *PostgresStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE last_attempt_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge login attempts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge login attempts: %w", err)
	}
	return int(n), nil
}

type loginAttemptRow interface {
	Scan(dest ...any) error
}

func scanLoginAttempt(row loginAttemptRow) (*models.LoginAttemptRecord, error) {
	var record models.LoginAttemptRecord
	if err := row.Scan(&record.UserID, &record.FailureCount, &record.WindowStartedAt, &record.LastAttemptAt); err != nil {
		return nil, err
	}
	return &record, nil
}
