package testutil

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-ledger/internal/logging"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/repository"
	"github.com/ndewijer/portfolio-ledger/internal/service"
)

// TestIdempotencyTTL is the key lifetime used by test services.
const TestIdempotencyTTL = 24 * time.Hour

// NewTestLedgerService creates a LedgerService backed by SQLite repositories on db.
func NewTestLedgerService(t *testing.T, db *sql.DB) *service.LedgerService {
	t.Helper()

	return service.NewLedgerService(
		repository.NewLedgerRepository(db),
		repository.NewIdempotencyRepository(db, TestIdempotencyTTL),
		logging.NewSilent(),
	)
}

// NewTestMemoryLedgerService creates a LedgerService backed by in-memory repositories.
func NewTestMemoryLedgerService(t *testing.T) *service.LedgerService {
	t.Helper()

	return service.NewLedgerService(
		repository.NewMemoryLedgerRepository(),
		repository.NewMemoryIdempotencyRepository(TestIdempotencyTTL),
		logging.NewSilent(),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// ErrStoreUnavailable is returned by FailingStore.
var ErrStoreUnavailable = errors.New("store unavailable")

// FailingStore wraps a ledger store and fails every Save while FailSaves is set.
type FailingStore struct {
	service.LedgerStore
	FailSaves bool
	Saves     int
}

// Save counts the call and fails when FailSaves is set.
func (s *FailingStore) Save(ctx context.Context, l *model.Ledger) error {
	s.Saves++
	if s.FailSaves {
		return ErrStoreUnavailable
	}
	return s.LedgerStore.Save(ctx, l)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}
