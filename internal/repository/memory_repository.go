package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// MemoryLedgerRepository keeps ledgers in process memory. Load and Save
// exchange deep copies, so callers never share state with the store.
type MemoryLedgerRepository struct {
	mu      sync.RWMutex
	ledgers map[string]*model.Ledger
}

// NewMemoryLedgerRepository creates an empty MemoryLedgerRepository.
func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{ledgers: make(map[string]*model.Ledger)}
}

// Load returns a copy of the ledger of userID, seeding it on first use.
func (r *MemoryLedgerRepository) Load(_ context.Context, userID string) (*model.Ledger, error) {
	r.mu.RLock()
	l, ok := r.ledgers[userID]
	r.mu.RUnlock()
	if ok {
		return l.Clone(), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.ledgers[userID]; ok {
		return l.Clone(), nil
	}
	seeded := ledger.NewLedger(userID)
	r.ledgers[userID] = seeded
	return seeded.Clone(), nil
}

// Save validates l and stores a copy of it.
func (r *MemoryLedgerRepository) Save(_ context.Context, l *model.Ledger) error {
	if err := ledger.AssertIntegrity(l); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers[l.UserID] = l.Clone()
	return nil
}

type idempotencyEntry struct {
	userID, key string
}

// MemoryIdempotencyRepository is the in-process counterpart of IdempotencyRepository.
type MemoryIdempotencyRepository struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[idempotencyEntry]time.Time
}

// NewMemoryIdempotencyRepository creates a MemoryIdempotencyRepository whose keys live for ttl.
func NewMemoryIdempotencyRepository(ttl time.Duration) *MemoryIdempotencyRepository {
	return &MemoryIdempotencyRepository{
		ttl:  ttl,
		now:  time.Now,
		keys: make(map[idempotencyEntry]time.Time),
	}
}

// WithClock replaces the time source. It must be called before first use.
func (r *MemoryIdempotencyRepository) WithClock(now func() time.Time) *MemoryIdempotencyRepository {
	r.now = now
	return r
}

// Claim records key for userID unless an unexpired claim exists.
func (r *MemoryIdempotencyRepository) Claim(_ context.Context, userID, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry := idempotencyEntry{userID: userID, key: key}
	if expiresAt, held := r.keys[entry]; held && expiresAt.After(now) {
		return false, nil
	}
	r.keys[entry] = now.Add(r.ttl)
	return true, nil
}

// Release forgets the claim of key for userID.
func (r *MemoryIdempotencyRepository) Release(_ context.Context, userID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, idempotencyEntry{userID: userID, key: key})
	return nil
}

// PurgeExpired deletes every key that expired at or before now.
func (r *MemoryIdempotencyRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for entry, expiresAt := range r.keys {
		if !expiresAt.After(now) {
			delete(r.keys, entry)
			purged++
		}
	}
	return purged, nil
}
