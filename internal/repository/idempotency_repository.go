package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
)

// IdempotencyRepository records claimed idempotency keys per user with an expiry.
type IdempotencyRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewIdempotencyRepository creates a new IdempotencyRepository whose keys live for ttl.
func NewIdempotencyRepository(db *sql.DB, ttl time.Duration) *IdempotencyRepository {
	return &IdempotencyRepository{db: db, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the repository that reads the time from now.
func (r *IdempotencyRepository) WithClock(now func() time.Time) *IdempotencyRepository {
	return &IdempotencyRepository{db: r.db, ttl: r.ttl, now: now}
}

// Claim records key for userID. It returns false if the key is already held
// and has not expired. An expired key is taken over by the new claim.
func (r *IdempotencyRepository) Claim(ctx context.Context, userID, key string) (bool, error) {
	now := r.now()
	query := `
		INSERT INTO idempotency_key (user_id, "key", expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, "key") DO UPDATE SET expires_at = excluded.expires_at
		WHERE idempotency_key.expires_at <= ?
	`

	result, err := r.db.ExecContext(ctx, query, userID, key, now.Add(r.ttl).Unix(), now.Unix())
	if err != nil {
		return false, fmt.Errorf("%w: failed to claim idempotency key: %w", apperrors.ErrPersistence, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to get rows affected: %w", apperrors.ErrPersistence, err)
	}

	return rowsAffected > 0, nil
}

// Release deletes the claim so the key can be used again.
func (r *IdempotencyRepository) Release(ctx context.Context, userID, key string) error {
	query := `DELETE FROM idempotency_key WHERE user_id = ? AND "key" = ?`

	if _, err := r.db.ExecContext(ctx, query, userID, key); err != nil {
		return fmt.Errorf("%w: failed to release idempotency key: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

// PurgeExpired deletes every key that expired at or before now and returns the count.
func (r *IdempotencyRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM idempotency_key WHERE expires_at <= ?`

	result, err := r.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: failed to purge idempotency keys: %w", apperrors.ErrPersistence, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %w", apperrors.ErrPersistence, err)
	}
	return rowsAffected, nil
}
