package service

import (
	"context"
	"database/sql"

	"github.com/ndewijer/portfolio-ledger/internal/database"
)

// Version is the service version reported by the health endpoint.
var Version = "dev"

// SystemService handles system-related operations.
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService. db may be nil when the
// in-memory backend is used.
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system.
func (s *SystemService) CheckHealth(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion returns the running version.
func (s *SystemService) CheckVersion() string {
	return Version
}
