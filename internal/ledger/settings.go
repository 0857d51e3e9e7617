package ledger

import (
	"fmt"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	Locale                   *model.Locale
	CostBasisMethod          *model.CostBasisMethod
	QuotePollIntervalSeconds *int
}

// UpdateSettings applies patch to the settings of l.
func UpdateSettings(l *model.Ledger, patch SettingsPatch) model.Settings {
	if patch.Locale != nil {
		l.Settings.Locale = *patch.Locale
	}
	if patch.CostBasisMethod != nil {
		l.Settings.CostBasisMethod = *patch.CostBasisMethod
	}
	if patch.QuotePollIntervalSeconds != nil {
		l.Settings.QuotePollIntervalSeconds = *patch.QuotePollIntervalSeconds
	}
	return l.Settings
}

// CreateFeeProfile appends profile to l, assigning an id when it has none.
func CreateFeeProfile(l *model.Ledger, profile model.FeeProfile) (model.FeeProfile, error) {
	profile.ID = newID(profile.ID)
	if _, exists := findFeeProfile(l, profile.ID); exists {
		return model.FeeProfile{}, fmt.Errorf("%w: %s", apperrors.ErrDuplicateFeeProfileID, profile.ID)
	}
	l.FeeProfiles = append(l.FeeProfiles, profile)
	return profile, nil
}

// UpdateFeeProfile replaces the fields of an existing profile in place.
// Transactions keep the snapshot they were created with.
func UpdateFeeProfile(l *model.Ledger, profileID string, fields model.FeeProfile) (model.FeeProfile, error) {
	i, ok := findFeeProfile(l, profileID)
	if !ok {
		return model.FeeProfile{}, fmt.Errorf("%w: %s", apperrors.ErrFeeProfileMissing, profileID)
	}
	fields.ID = profileID
	l.FeeProfiles[i] = fields
	return fields, nil
}

// DeleteFeeProfile removes a profile that nothing references. The last
// remaining profile can never be deleted; that rule is checked before the
// profile is looked up.
func DeleteFeeProfile(l *model.Ledger, profileID string) error {
	if len(l.FeeProfiles) <= 1 {
		return apperrors.ErrLastFeeProfile
	}
	i, ok := findFeeProfile(l, profileID)
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrFeeProfileMissing, profileID)
	}
	if use := feeProfileUse(l, profileID); use != "" {
		return fmt.Errorf("%w: referenced by %s", apperrors.ErrFeeProfileInUse, use)
	}

	l.FeeProfiles = append(l.FeeProfiles[:i:i], l.FeeProfiles[i+1:]...)
	return nil
}

// feeProfileUse names the first kind of reference to profileID, or "" if none.
func feeProfileUse(l *model.Ledger, profileID string) string {
	for _, a := range l.Accounts {
		if a.FeeProfileID == profileID {
			return "account " + a.ID
		}
	}
	for _, b := range l.FeeProfileBindings {
		if b.FeeProfileID == profileID {
			return fmt.Sprintf("binding %s/%s", b.AccountID, b.Symbol)
		}
	}
	for _, tx := range l.Transactions {
		if tx.FeeSnapshot.ID == profileID {
			return "transaction " + tx.ID
		}
	}
	return ""
}

// AccountPatch updates an account. An empty Name keeps the current name.
type AccountPatch struct {
	Name         string
	FeeProfileID string
}

// UpdateAccount changes the name and default fee profile of an account.
func UpdateAccount(l *model.Ledger, userID, accountID string, patch AccountPatch) (model.Account, error) {
	i, ok := findAccount(l, accountID)
	if !ok || l.Accounts[i].UserID != userID {
		return model.Account{}, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
	}
	if _, ok := findFeeProfile(l, patch.FeeProfileID); !ok {
		return model.Account{}, fmt.Errorf("%w: %s", apperrors.ErrFeeProfileMissing, patch.FeeProfileID)
	}

	account := &l.Accounts[i]
	account.FeeProfileID = patch.FeeProfileID
	if patch.Name != "" {
		account.Name = patch.Name
	}
	return *account, nil
}

// NormalizeBindings drops duplicate (account, symbol) pairs. The last
// occurrence wins but keeps the position of the first.
func NormalizeBindings(bindings []model.FeeProfileBinding) []model.FeeProfileBinding {
	type key struct{ account, symbol string }

	out := make([]model.FeeProfileBinding, 0, len(bindings))
	index := make(map[key]int, len(bindings))
	for _, b := range bindings {
		k := key{b.AccountID, b.Symbol}
		if i, seen := index[k]; seen {
			out[i] = b
			continue
		}
		index[k] = len(out)
		out = append(out, b)
	}
	return out
}

func ensureBindingsValid(l *model.Ledger, bindings []model.FeeProfileBinding) error {
	for _, b := range bindings {
		if _, ok := findAccount(l, b.AccountID); !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidBindingAccount, b.AccountID)
		}
		if _, ok := findFeeProfile(l, b.FeeProfileID); !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidFeeProfileRef, b.FeeProfileID)
		}
	}
	return nil
}

// ReplaceBindings replaces every symbol binding of l.
func ReplaceBindings(l *model.Ledger, bindings []model.FeeProfileBinding) ([]model.FeeProfileBinding, error) {
	normalized := NormalizeBindings(bindings)
	if err := ensureBindingsValid(l, normalized); err != nil {
		return nil, err
	}
	l.FeeProfileBindings = normalized
	return cloneSliceOf(normalized), nil
}

// AccountProfileUpdate sets the default profile of one account.
type AccountProfileUpdate struct {
	AccountID    string
	FeeProfileID string
}

// ReplaceFeeConfig updates account default profiles and replaces all bindings.
func ReplaceFeeConfig(l *model.Ledger, accounts []AccountProfileUpdate, bindings []model.FeeProfileBinding) error {
	for _, u := range accounts {
		i, ok := findAccount(l, u.AccountID)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, u.AccountID)
		}
		if _, ok := findFeeProfile(l, u.FeeProfileID); !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidFeeProfileRef, u.FeeProfileID)
		}
		l.Accounts[i].FeeProfileID = u.FeeProfileID
	}

	_, err := ReplaceBindings(l, bindings)
	return err
}

// FeeProfileDraft is a profile in a full settings replacement. Existing
// profiles are addressed by ID, new ones by an optional TempID that other
// entries of the same request may reference.
type FeeProfileDraft struct {
	ID     string
	TempID string
	model.FeeProfile
}

// AccountRef points an account at a profile by id or temp id.
type AccountRef struct {
	AccountID     string
	FeeProfileRef string
}

// BindingRef is a binding whose profile is given by id or temp id.
type BindingRef struct {
	AccountID     string
	Symbol        string
	FeeProfileRef string
}

// FullSettings is a complete replacement of the settings and fee configuration.
type FullSettings struct {
	Locale                   model.Locale
	CostBasisMethod          model.CostBasisMethod
	QuotePollIntervalSeconds int

	FeeProfiles []FeeProfileDraft
	Accounts    []AccountRef
	Bindings    []BindingRef
}

// ReplaceSettingsFull replaces settings, the fee profile set, account defaults
// and bindings of l in one step. Profiles absent from full are removed.
// The caller validates the outcome with AssertIntegrity before saving.
func ReplaceSettingsFull(l *model.Ledger, full FullSettings) error {
	tempIDs := make(map[string]string, len(full.FeeProfiles))
	profiles := make([]model.FeeProfile, 0, len(full.FeeProfiles))
	ids := make(map[string]struct{}, len(full.FeeProfiles))

	for _, draft := range full.FeeProfiles {
		targetID := draft.ID
		if targetID == "" {
			targetID = newID("")
		} else if _, ok := findFeeProfile(l, targetID); !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrFeeProfileMissing, targetID)
		}

		if draft.TempID != "" {
			if _, dup := tempIDs[draft.TempID]; dup {
				return fmt.Errorf("%w: %s", apperrors.ErrDuplicateTempID, draft.TempID)
			}
			tempIDs[draft.TempID] = targetID
		}

		if _, dup := ids[targetID]; dup {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateFeeProfileID, targetID)
		}
		ids[targetID] = struct{}{}

		profile := draft.FeeProfile
		profile.ID = targetID
		profiles = append(profiles, profile)
	}
	if len(profiles) == 0 {
		return apperrors.ErrNoFeeProfiles
	}

	resolve := func(ref string) (string, error) {
		id, ok := tempIDs[ref]
		if !ok {
			id = ref
		}
		if _, exists := ids[id]; !exists {
			return "", fmt.Errorf("%w: %s", apperrors.ErrInvalidFeeProfileRef, ref)
		}
		return id, nil
	}

	accounts := cloneSliceOf(l.Accounts)
	for _, ref := range full.Accounts {
		i, ok := findAccount(l, ref.AccountID)
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, ref.AccountID)
		}
		id, err := resolve(ref.FeeProfileRef)
		if err != nil {
			return err
		}
		accounts[i].FeeProfileID = id
	}

	bindings := make([]model.FeeProfileBinding, 0, len(full.Bindings))
	for _, ref := range full.Bindings {
		id, err := resolve(ref.FeeProfileRef)
		if err != nil {
			return err
		}
		bindings = append(bindings, model.FeeProfileBinding{
			AccountID:    ref.AccountID,
			Symbol:       ref.Symbol,
			FeeProfileID: id,
		})
	}

	next := &model.Ledger{Accounts: accounts, FeeProfiles: profiles}
	normalized := NormalizeBindings(bindings)
	if err := ensureBindingsValid(next, normalized); err != nil {
		return err
	}

	l.Settings.Locale = full.Locale
	l.Settings.CostBasisMethod = full.CostBasisMethod
	l.Settings.QuotePollIntervalSeconds = full.QuotePollIntervalSeconds
	l.FeeProfiles = profiles
	l.Accounts = accounts
	l.FeeProfileBindings = normalized
	return nil
}

func cloneSliceOf[T any](s []T) []T {
	return append(make([]T, 0, len(s)), s...)
}
