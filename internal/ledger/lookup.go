package ledger

import (
	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-ledger/internal/model"
)

func findAccount(l *model.Ledger, accountID string) (int, bool) {
	for i, a := range l.Accounts {
		if a.ID == accountID {
			return i, true
		}
	}
	return -1, false
}

// findUserAccount returns the account only if it belongs to userID.
func findUserAccount(l *model.Ledger, userID, accountID string) (model.Account, bool) {
	i, ok := findAccount(l, accountID)
	if !ok || l.Accounts[i].UserID != userID {
		return model.Account{}, false
	}
	return l.Accounts[i], true
}

func findFeeProfile(l *model.Ledger, profileID string) (int, bool) {
	for i, p := range l.FeeProfiles {
		if p.ID == profileID {
			return i, true
		}
	}
	return -1, false
}

func findBinding(l *model.Ledger, accountID, symbol string) (model.FeeProfileBinding, bool) {
	for _, b := range l.FeeProfileBindings {
		if b.AccountID == accountID && b.Symbol == symbol {
			return b, true
		}
	}
	return model.FeeProfileBinding{}, false
}

// LookupSymbol returns the instrument type of ticker from the symbol registry.
func LookupSymbol(l *model.Ledger, ticker string) (model.InstrumentType, bool) {
	for _, s := range l.Symbols {
		if s.Ticker == ticker {
			return s.Type, true
		}
	}
	return "", false
}

// FeeProfileSource tells which rule selected a resolved fee profile.
type FeeProfileSource string

const (
	SourceBinding        FeeProfileSource = "binding"
	SourceAccountDefault FeeProfileSource = "account-default"
	SourceSelected       FeeProfileSource = "selected"
)

// ResolvedFeeProfile is the outcome of a fee profile lookup. Found is false
// when the chosen profile id does not exist in the ledger.
type ResolvedFeeProfile struct {
	Profile   model.FeeProfile
	ProfileID string
	Source    FeeProfileSource
	Found     bool
}

// ResolveFeeProfile picks the profile for a trade of symbol in account.
// Precedence: a binding for (account, symbol), then the account default.
func ResolveFeeProfile(l *model.Ledger, account model.Account, symbol string) ResolvedFeeProfile {
	if b, ok := findBinding(l, account.ID, symbol); ok {
		return resolveByID(l, b.FeeProfileID, SourceBinding)
	}
	return resolveByID(l, account.FeeProfileID, SourceAccountDefault)
}

func resolveByID(l *model.Ledger, profileID string, source FeeProfileSource) ResolvedFeeProfile {
	r := ResolvedFeeProfile{ProfileID: profileID, Source: source}
	if i, ok := findFeeProfile(l, profileID); ok {
		r.Profile = l.FeeProfiles[i]
		r.Found = true
	}
	return r
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
