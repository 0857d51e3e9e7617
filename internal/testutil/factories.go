package testutil

import (
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// LedgerBuilder provides a fluent interface for creating test ledgers.
// It starts from the seeded state of a new user: default settings, one
// "Default Broker" profile, one "Main" account and the symbol registry.
//
// Example usage:
//
//	// Seeded ledger
//	l := testutil.NewLedger("user-1").Build()
//
//	// Ledger with two open lots
//	l := testutil.NewLedger("user-1").
//	    WithCostBasisMethod(model.LIFO).
//	    WithLot("lot-a", "2330", 1000, 100000, "2024-01-01").
//	    WithLot("lot-b", "2330", 1000, 120000, "2024-02-01").
//	    Build()
type LedgerBuilder struct {
	l *model.Ledger
}

// NewLedger creates a LedgerBuilder seeded for userID.
func NewLedger(userID string) *LedgerBuilder {
	return &LedgerBuilder{l: ledger.NewLedger(userID)}
}

// AccountID returns the id of the seeded account.
func (b *LedgerBuilder) AccountID() string {
	return b.l.Accounts[0].ID
}

// ProfileID returns the id of the seeded fee profile.
func (b *LedgerBuilder) ProfileID() string {
	return b.l.FeeProfiles[0].ID
}

// WithCostBasisMethod sets the lot consumption order.
func (b *LedgerBuilder) WithCostBasisMethod(method model.CostBasisMethod) *LedgerBuilder {
	b.l.Settings.CostBasisMethod = method
	return b
}

// WithZeroFeeProfile makes the seeded profile charge nothing.
func (b *LedgerBuilder) WithZeroFeeProfile() *LedgerBuilder {
	p := &b.l.FeeProfiles[0]
	p.CommissionRateBps = 0
	p.MinCommissionNtd = 0
	p.StockSellTaxRateBps = 0
	p.StockDayTradeTaxRateBps = 0
	p.EtfSellTaxRateBps = 0
	p.BondEtfSellTaxRateBps = 0
	return b
}

// WithFeeProfile appends a fee profile.
func (b *LedgerBuilder) WithFeeProfile(profile model.FeeProfile) *LedgerBuilder {
	b.l.FeeProfiles = append(b.l.FeeProfiles, profile)
	return b
}

// WithAccount appends an account owned by the ledger's user.
func (b *LedgerBuilder) WithAccount(id, name, feeProfileID string) *LedgerBuilder {
	b.l.Accounts = append(b.l.Accounts, model.Account{
		ID:           id,
		UserID:       b.l.UserID,
		Name:         name,
		FeeProfileID: feeProfileID,
	})
	return b
}

// WithBinding binds symbol in accountID to feeProfileID.
func (b *LedgerBuilder) WithBinding(accountID, symbol, feeProfileID string) *LedgerBuilder {
	b.l.FeeProfileBindings = append(b.l.FeeProfileBindings, model.FeeProfileBinding{
		AccountID:    accountID,
		Symbol:       symbol,
		FeeProfileID: feeProfileID,
	})
	return b
}

// WithSymbol adds a ticker to the registry.
func (b *LedgerBuilder) WithSymbol(ticker string, instrumentType model.InstrumentType) *LedgerBuilder {
	b.l.Symbols = append(b.l.Symbols, model.SymbolDef{Ticker: ticker, Type: instrumentType})
	return b
}

// WithLot adds an open lot to the seeded account.
func (b *LedgerBuilder) WithLot(id, symbol string, quantity, totalCostNtd int64, openedAt string) *LedgerBuilder {
	b.l.Lots = append(b.l.Lots, model.Lot{
		ID:           id,
		AccountID:    b.AccountID(),
		Symbol:       symbol,
		OpenQuantity: quantity,
		TotalCostNtd: totalCostNtd,
		OpenedAt:     openedAt,
	})
	return b
}

// WithTransaction appends a recorded transaction as is; lots are not touched.
func (b *LedgerBuilder) WithTransaction(tx model.Transaction) *LedgerBuilder {
	if tx.UserID == "" {
		tx.UserID = b.l.UserID
	}
	b.l.Transactions = append(b.l.Transactions, tx)
	return b
}

// Build returns the ledger.
func (b *LedgerBuilder) Build() *model.Ledger {
	return b.l
}

// NewBuy returns the input for a regular buy of symbol in accountID.
func NewBuy(accountID, symbol string, quantity, priceNtd int64, tradeDate string) ledger.CreateTransactionInput {
	return ledger.CreateTransactionInput{
		AccountID: accountID,
		Symbol:    symbol,
		Quantity:  quantity,
		PriceNtd:  priceNtd,
		TradeDate: tradeDate,
		Type:      model.TransactionBuy,
	}
}

// NewSell returns the input for a regular sell of symbol in accountID.
func NewSell(accountID, symbol string, quantity, priceNtd int64, tradeDate string) ledger.CreateTransactionInput {
	in := NewBuy(accountID, symbol, quantity, priceNtd, tradeDate)
	in.Type = model.TransactionSell
	return in
}
