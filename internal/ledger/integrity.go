package ledger

import (
	"fmt"
	"regexp"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// Integrity issue codes.
const (
	IssueMissingFeeProfiles         = "missing_fee_profiles"
	IssueAccountUserMismatch        = "account_user_mismatch"
	IssueMissingAccountProfile      = "missing_account_profile"
	IssueInvalidFeeProfileBinding   = "invalid_fee_profile_binding"
	IssueInvalidBindingSymbol       = "invalid_binding_symbol"
	IssueDuplicateFeeProfileBinding = "duplicate_fee_profile_binding"
	IssueNegativeLotQuantity        = "negative_lot_quantity"
	IssueNegativeLotCost            = "negative_lot_cost"
)

var bindingSymbolPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

// CheckIntegrity returns the first referential-integrity problem of l, or nil.
// Read paths may report the issue as a warning; mutation paths go through
// AssertIntegrity instead.
func CheckIntegrity(l *model.Ledger) *model.IntegrityIssue {
	if len(l.FeeProfiles) == 0 {
		return &model.IntegrityIssue{
			Code:    IssueMissingFeeProfiles,
			Message: "No fee profile exists. Create one in settings before trading.",
		}
	}

	profileIDs := make(map[string]struct{}, len(l.FeeProfiles))
	for _, p := range l.FeeProfiles {
		profileIDs[p.ID] = struct{}{}
	}

	accountIDs := make(map[string]struct{}, len(l.Accounts))
	for _, a := range l.Accounts {
		accountIDs[a.ID] = struct{}{}
		if l.UserID != "" && a.UserID != l.UserID {
			return &model.IntegrityIssue{
				Code:    IssueAccountUserMismatch,
				Message: fmt.Sprintf("Account %s belongs to an unexpected user.", a.ID),
			}
		}
		if _, ok := profileIDs[a.FeeProfileID]; a.FeeProfileID == "" || !ok {
			return &model.IntegrityIssue{
				Code:    IssueMissingAccountProfile,
				Message: fmt.Sprintf("Account %s is missing a valid fee profile binding.", a.ID),
			}
		}
	}

	seen := make(map[string]struct{}, len(l.FeeProfileBindings))
	for _, b := range l.FeeProfileBindings {
		if _, ok := profileIDs[b.FeeProfileID]; !ok {
			return &model.IntegrityIssue{
				Code:    IssueInvalidFeeProfileBinding,
				Message: fmt.Sprintf("Fee profile override for %s/%s references missing profile %s.", b.AccountID, b.Symbol, b.FeeProfileID),
			}
		}
		if _, ok := accountIDs[b.AccountID]; !ok {
			return &model.IntegrityIssue{
				Code:    IssueInvalidFeeProfileBinding,
				Message: fmt.Sprintf("Fee profile override references missing account %s.", b.AccountID),
			}
		}
		if !bindingSymbolPattern.MatchString(b.Symbol) {
			return &model.IntegrityIssue{
				Code:    IssueInvalidBindingSymbol,
				Message: fmt.Sprintf("Fee profile override for account %s has invalid symbol %q.", b.AccountID, b.Symbol),
			}
		}
		key := b.AccountID + "\x00" + b.Symbol
		if _, dup := seen[key]; dup {
			return &model.IntegrityIssue{
				Code:    IssueDuplicateFeeProfileBinding,
				Message: fmt.Sprintf("Fee profile override for %s/%s is defined more than once.", b.AccountID, b.Symbol),
			}
		}
		seen[key] = struct{}{}
	}

	for _, lot := range l.Lots {
		if lot.OpenQuantity < 0 {
			return &model.IntegrityIssue{
				Code:    IssueNegativeLotQuantity,
				Message: fmt.Sprintf("Lot %s has negative open quantity %d.", lot.ID, lot.OpenQuantity),
			}
		}
		if lot.TotalCostNtd < 0 {
			return &model.IntegrityIssue{
				Code:    IssueNegativeLotCost,
				Message: fmt.Sprintf("Lot %s has negative cost basis %d.", lot.ID, lot.TotalCostNtd),
			}
		}
	}

	return nil
}

// IntegrityError is returned when a ledger fails CheckIntegrity on a write path.
type IntegrityError struct {
	Issue model.IntegrityIssue
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Issue.Code, e.Issue.Message)
}

// Unwrap makes errors.Is(err, apperrors.ErrIntegrityViolation) and
// errors.Is(err, apperrors.ErrConflict) hold.
func (e *IntegrityError) Unwrap() error {
	return apperrors.ErrIntegrityViolation
}

// AssertIntegrity returns an *IntegrityError if l has an integrity issue.
func AssertIntegrity(l *model.Ledger) error {
	if issue := CheckIntegrity(l); issue != nil {
		return &IntegrityError{Issue: *issue}
	}
	return nil
}
