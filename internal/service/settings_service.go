package service

import (
	"context"

	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// FeeConfig is the fee configuration of a user together with the first
// integrity problem found in it, if any.
type FeeConfig struct {
	Accounts           []model.Account           `json:"accounts"`
	FeeProfiles        []model.FeeProfile        `json:"feeProfiles"`
	FeeProfileBindings []model.FeeProfileBinding `json:"feeProfileBindings"`
	IntegrityIssue     *model.IntegrityIssue     `json:"integrityIssue"`
}

// FullSettingsResult is returned after a full settings replacement.
type FullSettingsResult struct {
	Settings           model.Settings            `json:"settings"`
	Accounts           []model.Account           `json:"accounts"`
	FeeProfiles        []model.FeeProfile        `json:"feeProfiles"`
	FeeProfileBindings []model.FeeProfileBinding `json:"feeProfileBindings"`
}

// GetSettings returns the user's settings.
func (s *LedgerService) GetSettings(ctx context.Context, userID string) (model.Settings, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return model.Settings{}, err
	}
	return l.Settings, nil
}

// UpdateSettings applies a partial settings update.
func (s *LedgerService) UpdateSettings(ctx context.Context, userID string, patch ledger.SettingsPatch) (model.Settings, error) {
	l, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		ledger.UpdateSettings(draft, patch)
		return nil
	})
	if err != nil {
		return model.Settings{}, err
	}
	return l.Settings, nil
}

// ReplaceSettingsFull replaces settings, fee profiles, account defaults and
// bindings together. The change is saved only if the resulting ledger is consistent.
func (s *LedgerService) ReplaceSettingsFull(ctx context.Context, userID string, full ledger.FullSettings) (FullSettingsResult, error) {
	l, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		if err := ledger.ReplaceSettingsFull(draft, full); err != nil {
			return err
		}
		return ledger.AssertIntegrity(draft)
	})
	if err != nil {
		return FullSettingsResult{}, err
	}
	return FullSettingsResult{
		Settings:           l.Settings,
		Accounts:           l.Accounts,
		FeeProfiles:        l.FeeProfiles,
		FeeProfileBindings: l.FeeProfileBindings,
	}, nil
}

// GetFeeConfig returns the fee configuration. Integrity problems are reported
// in the result rather than as an error.
func (s *LedgerService) GetFeeConfig(ctx context.Context, userID string) (FeeConfig, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return FeeConfig{}, err
	}

	issue := ledger.CheckIntegrity(l)
	if issue != nil {
		s.logger.Warn().
			Str("user_id", userID).
			Str("code", issue.Code).
			Msg(issue.Message)
	}

	return FeeConfig{
		Accounts:           l.Accounts,
		FeeProfiles:        l.FeeProfiles,
		FeeProfileBindings: l.FeeProfileBindings,
		IntegrityIssue:     issue,
	}, nil
}

// ReplaceFeeConfig sets account default profiles and replaces all bindings.
func (s *LedgerService) ReplaceFeeConfig(ctx context.Context, userID string, accounts []ledger.AccountProfileUpdate, bindings []model.FeeProfileBinding) (FeeConfig, error) {
	l, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		if err := ledger.ReplaceFeeConfig(draft, accounts, bindings); err != nil {
			return err
		}
		return ledger.AssertIntegrity(draft)
	})
	if err != nil {
		return FeeConfig{}, err
	}
	return FeeConfig{
		Accounts:           l.Accounts,
		FeeProfiles:        l.FeeProfiles,
		FeeProfileBindings: l.FeeProfileBindings,
	}, nil
}

// ListAccounts returns the user's accounts.
func (s *LedgerService) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.Accounts, nil
}

// UpdateAccount renames an account and sets its default fee profile.
func (s *LedgerService) UpdateAccount(ctx context.Context, userID, accountID string, patch ledger.AccountPatch) (model.Account, error) {
	var account model.Account
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		var err error
		account, err = ledger.UpdateAccount(draft, userID, accountID, patch)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// ListFeeProfiles returns the user's fee profiles.
func (s *LedgerService) ListFeeProfiles(ctx context.Context, userID string) ([]model.FeeProfile, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.FeeProfiles, nil
}

// CreateFeeProfile adds a fee profile with a new id.
func (s *LedgerService) CreateFeeProfile(ctx context.Context, userID string, profile model.FeeProfile) (model.FeeProfile, error) {
	profile.ID = ""
	var created model.FeeProfile
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		var err error
		created, err = ledger.CreateFeeProfile(draft, profile)
		return err
	})
	if err != nil {
		return model.FeeProfile{}, err
	}
	return created, nil
}

// UpdateFeeProfile edits a fee profile in place. Existing transactions keep
// the snapshot taken when they were created.
func (s *LedgerService) UpdateFeeProfile(ctx context.Context, userID, profileID string, fields model.FeeProfile) (model.FeeProfile, error) {
	var updated model.FeeProfile
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		var err error
		updated, err = ledger.UpdateFeeProfile(draft, profileID, fields)
		return err
	})
	if err != nil {
		return model.FeeProfile{}, err
	}
	return updated, nil
}

// DeleteFeeProfile removes an unreferenced fee profile.
func (s *LedgerService) DeleteFeeProfile(ctx context.Context, userID, profileID string) error {
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		return ledger.DeleteFeeProfile(draft, profileID)
	})
	return err
}

// ListBindings returns the user's symbol bindings.
func (s *LedgerService) ListBindings(ctx context.Context, userID string) ([]model.FeeProfileBinding, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.FeeProfileBindings, nil
}

// ReplaceBindings replaces every symbol binding of the user.
func (s *LedgerService) ReplaceBindings(ctx context.Context, userID string, bindings []model.FeeProfileBinding) ([]model.FeeProfileBinding, error) {
	var replaced []model.FeeProfileBinding
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		var err error
		if replaced, err = ledger.ReplaceBindings(draft, bindings); err != nil {
			return err
		}
		return ledger.AssertIntegrity(draft)
	})
	if err != nil {
		return nil, err
	}
	return replaced, nil
}
