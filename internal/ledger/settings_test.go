package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/testutil"
)

func TestUpdateSettings(t *testing.T) {
	l := testutil.NewLedger(testUser).Build()
	method := model.LIFO

	settings := ledger.UpdateSettings(l, ledger.SettingsPatch{CostBasisMethod: &method})

	assert.Equal(t, model.LIFO, settings.CostBasisMethod)
	assert.Equal(t, model.LocaleEN, settings.Locale, "unset fields are kept")
	assert.Equal(t, ledger.DefaultQuotePollIntervalSeconds, settings.QuotePollIntervalSeconds)
	assert.Equal(t, settings, l.Settings)
}

func TestFeeProfileLifecycle(t *testing.T) {
	t.Run("create assigns an id", func(t *testing.T) {
		l := testutil.NewLedger(testUser).Build()
		profile := cheapProfile("")

		created, err := ledger.CreateFeeProfile(l, profile)

		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Len(t, l.FeeProfiles, 2)
	})

	t.Run("create rejects a duplicate id", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		_, err := ledger.CreateFeeProfile(l, cheapProfile(b.ProfileID()))

		assert.ErrorIs(t, err, apperrors.ErrDuplicateFeeProfileID)
	})

	t.Run("update keeps the id", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		updated, err := ledger.UpdateFeeProfile(l, b.ProfileID(), cheapProfile("ignored"))

		require.NoError(t, err)
		assert.Equal(t, b.ProfileID(), updated.ID)
		assert.Equal(t, "Cheap Broker", l.FeeProfiles[0].Name)
	})

	t.Run("update of a missing profile", func(t *testing.T) {
		l := testutil.NewLedger(testUser).Build()

		_, err := ledger.UpdateFeeProfile(l, "ghost", cheapProfile(""))

		assert.ErrorIs(t, err, apperrors.ErrFeeProfileMissing)
	})
}

func TestDeleteFeeProfile(t *testing.T) {
	t.Run("removes an unreferenced profile", func(t *testing.T) {
		l := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap")).Build()

		err := ledger.DeleteFeeProfile(l, "fp-cheap")

		require.NoError(t, err)
		assert.Len(t, l.FeeProfiles, 1)
	})

	t.Run("the last profile cannot be deleted", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		err := ledger.DeleteFeeProfile(l, b.ProfileID())

		assert.ErrorIs(t, err, apperrors.ErrLastFeeProfile)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Len(t, l.FeeProfiles, 1)
	})

	t.Run("the count is checked before the profile is looked up", func(t *testing.T) {
		l := testutil.NewLedger(testUser).Build()

		err := ledger.DeleteFeeProfile(l, "ghost")

		assert.ErrorIs(t, err, apperrors.ErrLastFeeProfile)
		assert.NotErrorIs(t, err, apperrors.ErrFeeProfileMissing)
	})

	t.Run("a profile used as account default is in use", func(t *testing.T) {
		b := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap"))
		l := b.Build()

		err := ledger.DeleteFeeProfile(l, b.ProfileID())

		assert.ErrorIs(t, err, apperrors.ErrFeeProfileInUse)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("a bound profile is in use", func(t *testing.T) {
		b := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap"))
		b.WithBinding(b.AccountID(), "2330", "fp-cheap")
		l := b.Build()

		err := ledger.DeleteFeeProfile(l, "fp-cheap")

		assert.ErrorIs(t, err, apperrors.ErrFeeProfileInUse)
	})

	t.Run("a profile captured in a transaction snapshot is in use", func(t *testing.T) {
		b := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap"))
		b.WithTransaction(model.Transaction{ID: "tx-1", AccountID: b.AccountID(), FeeSnapshot: cheapProfile("fp-cheap")})
		l := b.Build()

		err := ledger.DeleteFeeProfile(l, "fp-cheap")

		assert.ErrorIs(t, err, apperrors.ErrFeeProfileInUse)
	})

	t.Run("missing profile", func(t *testing.T) {
		l := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap")).Build()

		err := ledger.DeleteFeeProfile(l, "ghost")

		assert.ErrorIs(t, err, apperrors.ErrFeeProfileMissing)
	})
}

func TestUpdateAccount(t *testing.T) {
	t.Run("switches the default profile and renames", func(t *testing.T) {
		b := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap"))
		l := b.Build()

		account, err := ledger.UpdateAccount(l, testUser, b.AccountID(), ledger.AccountPatch{Name: "Broker B", FeeProfileID: "fp-cheap"})

		require.NoError(t, err)
		assert.Equal(t, "Broker B", account.Name)
		assert.Equal(t, "fp-cheap", l.Accounts[0].FeeProfileID)
	})

	t.Run("an empty name keeps the current one", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		account, err := ledger.UpdateAccount(l, testUser, b.AccountID(), ledger.AccountPatch{FeeProfileID: b.ProfileID()})

		require.NoError(t, err)
		assert.Equal(t, "Main", account.Name)
	})

	t.Run("rejects an unknown profile", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		_, err := ledger.UpdateAccount(l, testUser, b.AccountID(), ledger.AccountPatch{FeeProfileID: "ghost"})

		assert.ErrorIs(t, err, apperrors.ErrFeeProfileMissing)
	})

	t.Run("rejects an account of another user", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		_, err := ledger.UpdateAccount(l, "user-2", b.AccountID(), ledger.AccountPatch{FeeProfileID: b.ProfileID()})

		assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})
}

func TestNormalizeBindings(t *testing.T) {
	bindings := []model.FeeProfileBinding{
		{AccountID: "acc-1", Symbol: "2330", FeeProfileID: "fp-a"},
		{AccountID: "acc-1", Symbol: "0050", FeeProfileID: "fp-a"},
		{AccountID: "acc-1", Symbol: "2330", FeeProfileID: "fp-b"},
		{AccountID: "acc-2", Symbol: "2330", FeeProfileID: "fp-a"},
	}

	got := ledger.NormalizeBindings(bindings)

	assert.Equal(t, []model.FeeProfileBinding{
		{AccountID: "acc-1", Symbol: "2330", FeeProfileID: "fp-b"},
		{AccountID: "acc-1", Symbol: "0050", FeeProfileID: "fp-a"},
		{AccountID: "acc-2", Symbol: "2330", FeeProfileID: "fp-a"},
	}, got)
}

func TestReplaceBindings(t *testing.T) {
	t.Run("replaces all bindings", func(t *testing.T) {
		b := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap"))
		b.WithBinding(b.AccountID(), "0050", "fp-cheap")
		l := b.Build()

		got, err := ledger.ReplaceBindings(l, []model.FeeProfileBinding{
			{AccountID: b.AccountID(), Symbol: "2330", FeeProfileID: "fp-cheap"},
		})

		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, got, l.FeeProfileBindings)
	})

	t.Run("rejects an unknown account", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		_, err := ledger.ReplaceBindings(l, []model.FeeProfileBinding{
			{AccountID: "ghost", Symbol: "2330", FeeProfileID: b.ProfileID()},
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidBindingAccount)
		assert.Empty(t, l.FeeProfileBindings)
	})

	t.Run("rejects an unknown profile", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		_, err := ledger.ReplaceBindings(l, []model.FeeProfileBinding{
			{AccountID: b.AccountID(), Symbol: "2330", FeeProfileID: "ghost"},
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidFeeProfileRef)
	})
}

func TestReplaceFeeConfig(t *testing.T) {
	b := testutil.NewLedger(testUser).WithFeeProfile(cheapProfile("fp-cheap"))
	l := b.Build()

	err := ledger.ReplaceFeeConfig(l,
		[]ledger.AccountProfileUpdate{{AccountID: b.AccountID(), FeeProfileID: "fp-cheap"}},
		[]model.FeeProfileBinding{{AccountID: b.AccountID(), Symbol: "2330", FeeProfileID: b.ProfileID()}},
	)

	require.NoError(t, err)
	assert.Equal(t, "fp-cheap", l.Accounts[0].FeeProfileID)
	assert.Len(t, l.FeeProfileBindings, 1)
	assert.NoError(t, ledger.AssertIntegrity(l))
}

func TestReplaceSettingsFull(t *testing.T) {
	fullSettings := func(b *testutil.LedgerBuilder) ledger.FullSettings {
		return ledger.FullSettings{
			Locale:                   model.LocaleZhTW,
			CostBasisMethod:          model.LIFO,
			QuotePollIntervalSeconds: 30,
			FeeProfiles: []ledger.FeeProfileDraft{
				{ID: b.ProfileID(), FeeProfile: ledger.DefaultFeeProfile(testUser)},
				{TempID: "new-1", FeeProfile: cheapProfile("")},
			},
			Accounts: []ledger.AccountRef{{AccountID: b.AccountID(), FeeProfileRef: "new-1"}},
			Bindings: []ledger.BindingRef{{AccountID: b.AccountID(), Symbol: "2330", FeeProfileRef: b.ProfileID()}},
		}
	}

	t.Run("resolves temp ids to generated profile ids", func(t *testing.T) {
		// Setup
		b := testutil.NewLedger(testUser)
		l := b.Build()

		// Execute
		err := ledger.ReplaceSettingsFull(l, fullSettings(b))

		// Assert
		require.NoError(t, err)
		require.Len(t, l.FeeProfiles, 2)
		newID := l.FeeProfiles[1].ID
		assert.NotEqual(t, "new-1", newID)
		assert.NotEmpty(t, newID)
		assert.Equal(t, newID, l.Accounts[0].FeeProfileID)
		assert.Equal(t, b.ProfileID(), l.FeeProfileBindings[0].FeeProfileID)
		assert.Equal(t, model.LocaleZhTW, l.Settings.Locale)
		assert.Equal(t, model.LIFO, l.Settings.CostBasisMethod)
		assert.Equal(t, 30, l.Settings.QuotePollIntervalSeconds)
		assert.NoError(t, ledger.AssertIntegrity(l))
	})

	errorCases := []struct {
		name    string
		mutate  func(b *testutil.LedgerBuilder, full *ledger.FullSettings)
		wantErr error
	}{
		{
			name: "duplicate temp id",
			mutate: func(_ *testutil.LedgerBuilder, full *ledger.FullSettings) {
				full.FeeProfiles = append(full.FeeProfiles, ledger.FeeProfileDraft{TempID: "new-1", FeeProfile: cheapProfile("")})
			},
			wantErr: apperrors.ErrDuplicateTempID,
		},
		{
			name: "duplicate existing id",
			mutate: func(b *testutil.LedgerBuilder, full *ledger.FullSettings) {
				full.FeeProfiles = append(full.FeeProfiles, ledger.FeeProfileDraft{ID: b.ProfileID(), FeeProfile: cheapProfile("")})
			},
			wantErr: apperrors.ErrDuplicateFeeProfileID,
		},
		{
			name: "unknown existing id",
			mutate: func(_ *testutil.LedgerBuilder, full *ledger.FullSettings) {
				full.FeeProfiles[0].ID = "ghost"
			},
			wantErr: apperrors.ErrFeeProfileMissing,
		},
		{
			name: "unresolvable reference",
			mutate: func(_ *testutil.LedgerBuilder, full *ledger.FullSettings) {
				full.Bindings[0].FeeProfileRef = "new-2"
			},
			wantErr: apperrors.ErrInvalidFeeProfileRef,
		},
		{
			name: "no profiles",
			mutate: func(_ *testutil.LedgerBuilder, full *ledger.FullSettings) {
				full.FeeProfiles = nil
				full.Accounts = nil
				full.Bindings = nil
			},
			wantErr: apperrors.ErrNoFeeProfiles,
		},
		{
			name: "unknown account",
			mutate: func(_ *testutil.LedgerBuilder, full *ledger.FullSettings) {
				full.Accounts[0].AccountID = "ghost"
			},
			wantErr: apperrors.ErrAccountNotFound,
		},
		{
			name: "binding on an unknown account",
			mutate: func(_ *testutil.LedgerBuilder, full *ledger.FullSettings) {
				full.Bindings[0].AccountID = "ghost"
			},
			wantErr: apperrors.ErrInvalidBindingAccount,
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			b := testutil.NewLedger(testUser)
			l := b.Build()
			before := l.Clone()
			full := fullSettings(b)
			tc.mutate(b, &full)

			err := ledger.ReplaceSettingsFull(l, full)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, l)
		})
	}

	t.Run("dropping a profile still in use fails integrity", func(t *testing.T) {
		b := testutil.NewLedger(testUser)
		l := b.Build()

		err := ledger.ReplaceSettingsFull(l, ledger.FullSettings{
			Locale:                   model.LocaleEN,
			CostBasisMethod:          model.FIFO,
			QuotePollIntervalSeconds: 10,
			FeeProfiles:              []ledger.FeeProfileDraft{{TempID: "only", FeeProfile: cheapProfile("")}},
		})
		require.NoError(t, err)

		assert.ErrorIs(t, ledger.AssertIntegrity(l), apperrors.ErrIntegrityViolation)
	})
}
