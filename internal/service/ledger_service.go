package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// LedgerStore loads and atomically replaces the ledger of one user.
type LedgerStore interface {
	Load(ctx context.Context, userID string) (*model.Ledger, error)
	Save(ctx context.Context, l *model.Ledger) error
}

// IdempotencyStore is an atomic test-and-set of (user, key) pairs.
type IdempotencyStore interface {
	Claim(ctx context.Context, userID, key string) (bool, error)
	Release(ctx context.Context, userID, key string) error
}

// userLocks serializes writers per user. Waiting for a lock honours context
// cancellation.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*semaphore.Weighted)}
}

func (u *userLocks) acquire(ctx context.Context, userID string) (func(), error) {
	u.mu.Lock()
	sem, ok := u.locks[userID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		u.locks[userID] = sem
	}
	u.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for ledger lock of %s: %w", userID, err)
	}
	return func() { sem.Release(1) }, nil
}

// LedgerService runs every ledger operation as load, copy, compute, validate
// and persist. Writes for one user are serialized; a failed write leaves the
// stored ledger untouched.
type LedgerService struct {
	store  LedgerStore
	keys   IdempotencyStore
	locks  *userLocks
	logger zerolog.Logger
	now    func() time.Time
}

// NewLedgerService creates a new LedgerService with the provided stores.
func NewLedgerService(store LedgerStore, keys IdempotencyStore, logger zerolog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		keys:   keys,
		locks:  newUserLocks(),
		logger: logger.With().Str("component", "ledger_service").Logger(),
		now:    time.Now,
	}
}

// WithClock sets the time source used for recompute job timestamps.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// load returns the stored ledger of userID without taking the write lock.
func (s *LedgerService) load(ctx context.Context, userID string) (*model.Ledger, error) {
	l, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToLoadLedger, err)
	}
	return l, nil
}

// mutate applies fn to a copy of the user's ledger and saves the copy only
// if fn succeeds. The store validates integrity before writing.
func (s *LedgerService) mutate(ctx context.Context, userID string, fn func(draft *model.Ledger) error) (*model.Ledger, error) {
	release, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	draft := current.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}
