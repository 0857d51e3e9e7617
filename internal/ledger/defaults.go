package ledger

import "github.com/ndewijer/portfolio-ledger/internal/model"

// Default settings for a new user.
const (
	DefaultLocale                   = model.LocaleEN
	DefaultCostBasisMethod          = model.FIFO
	DefaultQuotePollIntervalSeconds = 10
)

// DefaultSymbols is the built-in symbol registry.
func DefaultSymbols() []model.SymbolDef {
	return []model.SymbolDef{
		{Ticker: "2330", Type: model.InstrumentStock},
		{Ticker: "0050", Type: model.InstrumentETF},
		{Ticker: "00679B", Type: model.InstrumentBondETF},
	}
}

// DefaultFeeProfile is the broker profile every new user starts with.
func DefaultFeeProfile(userID string) model.FeeProfile {
	return model.FeeProfile{
		ID:                      userID + "-fp-default",
		Name:                    "Default Broker",
		CommissionRateBps:       14,
		CommissionDiscountBps:   10_000,
		MinCommissionNtd:        20,
		CommissionRoundingMode:  model.RoundingFloor,
		TaxRoundingMode:         model.RoundingFloor,
		StockSellTaxRateBps:     30,
		StockDayTradeTaxRateBps: 15,
		EtfSellTaxRateBps:       10,
		BondEtfSellTaxRateBps:   0,
	}
}

// DefaultAccount is the account every new user starts with.
func DefaultAccount(userID string) model.Account {
	return model.Account{
		ID:           userID + "-acc-1",
		UserID:       userID,
		Name:         "Main",
		FeeProfileID: DefaultFeeProfile(userID).ID,
	}
}

// NewLedger returns the seeded ledger of a user who has never been seen before.
func NewLedger(userID string) *model.Ledger {
	return &model.Ledger{
		UserID: userID,
		Settings: model.Settings{
			UserID:                   userID,
			Locale:                   DefaultLocale,
			CostBasisMethod:          DefaultCostBasisMethod,
			QuotePollIntervalSeconds: DefaultQuotePollIntervalSeconds,
		},
		Accounts:           []model.Account{DefaultAccount(userID)},
		FeeProfiles:        []model.FeeProfile{DefaultFeeProfile(userID)},
		FeeProfileBindings: []model.FeeProfileBinding{},
		Symbols:            DefaultSymbols(),
		Transactions:       []model.Transaction{},
		Lots:               []model.Lot{},
		CorporateActions:   []model.CorporateAction{},
		RecomputeJobs:      []model.RecomputeJob{},
	}
}
