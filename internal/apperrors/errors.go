package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger engine and the services wraps
// exactly one of these, so callers can branch on the kind with errors.Is without
// knowing the specific failure.
var (
	// ErrValidation indicates malformed or out-of-range input, detected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that a referenced account, profile, symbol or job does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that the request clashes with existing state
	// (duplicate idempotency key, referential-integrity violation, entity still in use).
	ErrConflict = errors.New("conflict")

	// ErrInsufficientQuantity indicates that a sell exceeds the available open lots.
	ErrInsufficientQuantity = errors.New("insufficient quantity to sell")

	// ErrInvalidRatio indicates a non-positive split numerator or denominator.
	ErrInvalidRatio = errors.New("invalid split ratio")

	// ErrPersistence indicates that the storage collaborator failed.
	ErrPersistence = errors.New("persistence failure")
)

// Domain entity errors represent missing entities in the ledger.
var (
	// ErrAccountNotFound indicates that the account does not exist or belongs to another user.
	ErrAccountNotFound = fmt.Errorf("account not found: %w", ErrNotFound)

	// ErrUnsupportedSymbol indicates that the symbol is absent from the global symbol registry.
	ErrUnsupportedSymbol = fmt.Errorf("unsupported symbol: %w", ErrNotFound)

	// ErrFeeProfileMissing indicates that a resolved fee profile id does not exist.
	ErrFeeProfileMissing = fmt.Errorf("fee profile missing: %w", ErrNotFound)

	// ErrRecomputeJobNotFound indicates that the job does not exist or belongs to another user.
	ErrRecomputeJobNotFound = fmt.Errorf("recompute job not found: %w", ErrNotFound)
)

// Business rule errors represent constraint violations.
var (
	ErrDuplicateIdempotencyKey = fmt.Errorf("duplicate idempotency key: %w", ErrConflict)
	ErrIntegrityViolation      = fmt.Errorf("ledger integrity violation: %w", ErrConflict)

	// ErrFeeProfileInUse indicates that a profile is still referenced by an account default,
	// a symbol binding, or the fee snapshot of a historical transaction.
	ErrFeeProfileInUse = fmt.Errorf("fee profile is still in use: %w", ErrConflict)

	// ErrLastFeeProfile indicates an attempt to delete the only remaining fee profile.
	ErrLastFeeProfile = fmt.Errorf("at least one fee profile must remain: %w", ErrValidation)

	// ErrRecomputeJobAlreadyConfirmed indicates a second confirm of the same job.
	ErrRecomputeJobAlreadyConfirmed = fmt.Errorf("recompute job already confirmed: %w", ErrConflict)

	ErrDuplicateTempID       = fmt.Errorf("duplicate fee profile temp id: %w", ErrValidation)
	ErrDuplicateFeeProfileID = fmt.Errorf("duplicate fee profile id: %w", ErrValidation)
	ErrNoFeeProfiles         = fmt.Errorf("at least one fee profile is required: %w", ErrValidation)
	ErrInvalidFeeProfileRef  = fmt.Errorf("invalid fee profile reference: %w", ErrValidation)
	ErrInvalidBindingAccount = fmt.Errorf("fee profile binding references unknown account: %w", ErrValidation)
	ErrProfileRequired       = fmt.Errorf("profileId is required when forceProfileOnly is enabled: %w", ErrValidation)
	ErrIdempotencyKeyMissing = fmt.Errorf("idempotency-key header required: %w", ErrValidation)
)

// Operation failure errors are the user-facing messages for failed requests.
var (
	ErrFailedToLoadLedger          = errors.New("failed to load ledger")
	ErrFailedToCreateTransaction   = errors.New("failed to create transaction")
	ErrFailedToApplyAction         = errors.New("failed to apply corporate action")
	ErrFailedToPreviewRecompute    = errors.New("failed to preview recompute")
	ErrFailedToConfirmRecompute    = errors.New("failed to confirm recompute")
	ErrFailedToUpdateSettings      = errors.New("failed to update settings")
	ErrFailedToRetrieveHoldings    = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveTransaction = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveSettings    = errors.New("failed to retrieve settings")
	ErrFailedToUpdateFeeConfig     = errors.New("failed to update fee configuration")
	ErrFailedToRetrieveActions     = errors.New("failed to retrieve corporate actions")
	ErrFailedToRetrieveJobs        = errors.New("failed to retrieve recompute jobs")
	ErrFailedToParseTransactions   = errors.New("failed to parse transactions")
)
