package model

import "time"

// FeeProfile is a broker fee rule set. Rates are in basis points over 10000.
// CommissionDiscountBps is a multiplicative factor where 10000 means no discount.
type FeeProfile struct {
	ID                      string       `json:"id"`
	Name                    string       `json:"name"`
	CommissionRateBps       int64        `json:"commissionRateBps"`
	CommissionDiscountBps   int64        `json:"commissionDiscountBps"`
	MinCommissionNtd        int64        `json:"minCommissionNtd"`
	CommissionRoundingMode  RoundingMode `json:"commissionRoundingMode"`
	TaxRoundingMode         RoundingMode `json:"taxRoundingMode"`
	StockSellTaxRateBps     int64        `json:"stockSellTaxRateBps"`
	StockDayTradeTaxRateBps int64        `json:"stockDayTradeTaxRateBps"`
	EtfSellTaxRateBps       int64        `json:"etfSellTaxRateBps"`
	BondEtfSellTaxRateBps   int64        `json:"bondEtfSellTaxRateBps"`
}

// Account is a brokerage account. FeeProfileID is the default profile used
// when no symbol binding applies.
type Account struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	FeeProfileID string `json:"feeProfileId"`
}

// FeeProfileBinding overrides the account default profile for one symbol.
type FeeProfileBinding struct {
	AccountID    string `json:"accountId"`
	Symbol       string `json:"symbol"`
	FeeProfileID string `json:"feeProfileId"`
}

// SymbolDef is an entry of the global symbol registry.
type SymbolDef struct {
	Ticker string         `json:"ticker"`
	Type   InstrumentType `json:"type"`
}

// Lot is a batch of purchased shares. TotalCostNtd is the cost basis of the
// remaining OpenQuantity. Dates are YYYY-MM-DD strings compared lexically.
type Lot struct {
	ID           string `json:"id"`
	AccountID    string `json:"accountId"`
	Symbol       string `json:"symbol"`
	OpenQuantity int64  `json:"openQuantity"`
	TotalCostNtd int64  `json:"totalCostNtd"`
	OpenedAt     string `json:"openedAt"`
}

// Transaction is a recorded trade. FeeSnapshot is a value copy of the profile
// in effect at creation and is never re-linked to later profile edits.
// RealizedPnlNtd is set only for sells.
type Transaction struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	AccountID      string          `json:"accountId"`
	Symbol         string          `json:"symbol"`
	InstrumentType InstrumentType  `json:"instrumentType"`
	Type           TransactionType `json:"type"`
	Quantity       int64           `json:"quantity"`
	PriceNtd       int64           `json:"priceNtd"`
	TradeDate      string          `json:"tradeDate"`
	CommissionNtd  int64           `json:"commissionNtd"`
	TaxNtd         int64           `json:"taxNtd"`
	IsDayTrade     bool            `json:"isDayTrade"`
	FeeSnapshot    FeeProfile      `json:"feeSnapshot"`
	RealizedPnlNtd *int64          `json:"realizedPnlNtd,omitempty"`
}

// TradeValueNtd returns quantity times price.
func (t Transaction) TradeValueNtd() int64 {
	return t.Quantity * t.PriceNtd
}

// NetProceedsNtd returns the trade value less commission and tax.
func (t Transaction) NetProceedsNtd() int64 {
	return t.TradeValueNtd() - t.CommissionNtd - t.TaxNtd
}

// CorporateAction is an append-only audit entry. Splits also adjust lots.
type CorporateAction struct {
	ID          string              `json:"id"`
	AccountID   string              `json:"accountId"`
	Symbol      string              `json:"symbol"`
	ActionType  CorporateActionType `json:"actionType"`
	Numerator   int64               `json:"numerator"`
	Denominator int64               `json:"denominator"`
	ActionDate  string              `json:"actionDate"`
}

// RecomputeItem records the fee delta for one transaction.
type RecomputeItem struct {
	TransactionID         string `json:"transactionId"`
	PreviousCommissionNtd int64  `json:"previousCommissionNtd"`
	PreviousTaxNtd        int64  `json:"previousTaxNtd"`
	NextCommissionNtd     int64  `json:"nextCommissionNtd"`
	NextTaxNtd            int64  `json:"nextTaxNtd"`
}

// AccountFallbackProfileID is the job profile id used when no comparison
// profile was chosen and each transaction falls back to its account default.
const AccountFallbackProfileID = "account-fallback"

// RecomputeJob is a previewed (and possibly confirmed) fee recomputation.
type RecomputeJob struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	AccountID string          `json:"accountId,omitempty"`
	ProfileID string          `json:"profileId"`
	Status    RecomputeStatus `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Items     []RecomputeItem `json:"items"`
}

// Settings holds per-user preferences.
type Settings struct {
	UserID                   string          `json:"userId"`
	Locale                   Locale          `json:"locale"`
	CostBasisMethod          CostBasisMethod `json:"costBasisMethod"`
	QuotePollIntervalSeconds int             `json:"quotePollIntervalSeconds"`
}

// HoldingsRow aggregates the open lots of one account and symbol.
type HoldingsRow struct {
	AccountID string `json:"accountId"`
	Symbol    string `json:"symbol"`
	Quantity  int64  `json:"quantity"`
	CostNtd   int64  `json:"costNtd"`
}

// IntegrityIssue describes the first referential-integrity problem found in a ledger.
type IntegrityIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Ledger is the complete state of one user. Operations receive a ledger,
// work on a draft copy and hand the draft back for atomic persistence.
type Ledger struct {
	UserID             string              `json:"userId"`
	Settings           Settings            `json:"settings"`
	Accounts           []Account           `json:"accounts"`
	FeeProfiles        []FeeProfile        `json:"feeProfiles"`
	FeeProfileBindings []FeeProfileBinding `json:"feeProfileBindings"`
	Symbols            []SymbolDef         `json:"symbols"`
	Transactions       []Transaction       `json:"transactions"`
	Lots               []Lot               `json:"lots"`
	CorporateActions   []CorporateAction   `json:"corporateActions"`
	RecomputeJobs      []RecomputeJob      `json:"recomputeJobs"`
}

// Clone returns a deep copy of the ledger. Mutating the copy never affects l.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}

	c := &Ledger{
		UserID:             l.UserID,
		Settings:           l.Settings,
		Accounts:           cloneSlice(l.Accounts),
		FeeProfiles:        cloneSlice(l.FeeProfiles),
		FeeProfileBindings: cloneSlice(l.FeeProfileBindings),
		Symbols:            cloneSlice(l.Symbols),
		Lots:               cloneSlice(l.Lots),
		CorporateActions:   cloneSlice(l.CorporateActions),
	}

	if l.Transactions != nil {
		c.Transactions = make([]Transaction, len(l.Transactions))
		for i, tx := range l.Transactions {
			if tx.RealizedPnlNtd != nil {
				pnl := *tx.RealizedPnlNtd
				tx.RealizedPnlNtd = &pnl
			}
			c.Transactions[i] = tx
		}
	}

	if l.RecomputeJobs != nil {
		c.RecomputeJobs = make([]RecomputeJob, len(l.RecomputeJobs))
		for i, job := range l.RecomputeJobs {
			job.Items = cloneSlice(job.Items)
			c.RecomputeJobs[i] = job
		}
	}

	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
