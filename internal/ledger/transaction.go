package ledger

import (
	"fmt"
	"math"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// CreateTransactionInput is a validated trade request.
// ID may be empty, in which case a new UUID is assigned.
type CreateTransactionInput struct {
	ID         string
	AccountID  string
	Symbol     string
	Quantity   int64
	PriceNtd   int64
	TradeDate  string
	Type       model.TransactionType
	IsDayTrade bool
}

// CreateTransaction records a trade in l and updates its lots.
//
// The fee profile is resolved through ResolveFeeProfile and copied by value into
// the transaction's FeeSnapshot. A buy opens a new lot whose cost includes the
// commission. A sell consumes open lots of the same account and symbol using
// the user's cost-basis method and records the realized PnL.
//
// On error l is left unchanged.
func CreateTransaction(l *model.Ledger, userID string, in CreateTransactionInput) (model.Transaction, error) {
	account, ok := findUserAccount(l, userID, in.AccountID)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, in.AccountID)
	}

	instrumentType, ok := LookupSymbol(l, in.Symbol)
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedSymbol, in.Symbol)
	}

	resolved := ResolveFeeProfile(l, account, in.Symbol)
	if !resolved.Found {
		return model.Transaction{}, fmt.Errorf("%w: %s (%s)", apperrors.ErrFeeProfileMissing, resolved.ProfileID, resolved.Source)
	}

	tradeValue, err := tradeValueNtd(in.Quantity, in.PriceNtd)
	if err != nil {
		return model.Transaction{}, err
	}
	fees := CalculateFees(resolved.Profile, in.Type, SellFeeInput{
		TradeValueNtd:  tradeValue,
		InstrumentType: instrumentType,
		IsDayTrade:     in.IsDayTrade,
	})

	tx := model.Transaction{
		ID:             newID(in.ID),
		UserID:         userID,
		AccountID:      in.AccountID,
		Symbol:         in.Symbol,
		InstrumentType: instrumentType,
		Type:           in.Type,
		Quantity:       in.Quantity,
		PriceNtd:       in.PriceNtd,
		TradeDate:      in.TradeDate,
		CommissionNtd:  fees.CommissionNtd,
		TaxNtd:         fees.TaxNtd,
		IsDayTrade:     in.IsDayTrade,
		FeeSnapshot:    snapshotFeeProfile(resolved.Profile),
	}

	if tx.Type == model.TransactionBuy {
		if tradeValue > math.MaxInt64-tx.CommissionNtd {
			return model.Transaction{}, fmt.Errorf("%w: lot cost of %d x %d overflows", apperrors.ErrValidation, in.Quantity, in.PriceNtd)
		}
		l.Lots = append(l.Lots, model.Lot{
			ID:           "lot-" + tx.ID,
			AccountID:    tx.AccountID,
			Symbol:       tx.Symbol,
			OpenQuantity: tx.Quantity,
			TotalCostNtd: tradeValue + tx.CommissionNtd,
			OpenedAt:     tx.TradeDate,
		})
		l.Transactions = append(l.Transactions, tx)
		return tx, nil
	}

	lots, err := sellFromLots(l, tx)
	if err != nil {
		return model.Transaction{}, err
	}
	pnl := tx.NetProceedsNtd() - lots.AllocatedCostNtd
	tx.RealizedPnlNtd = &pnl

	l.Lots = lots.UpdatedLots
	l.Transactions = append(l.Transactions, tx)

	out := tx
	outPnl := pnl
	out.RealizedPnlNtd = &outPnl
	return out, nil
}

// tradeValueNtd returns quantity * priceNtd, refusing products that do not fit
// in an int64.
func tradeValueNtd(quantity, priceNtd int64) (int64, error) {
	if quantity <= 0 || priceNtd <= 0 {
		return 0, fmt.Errorf("%w: quantity and price must be positive", apperrors.ErrValidation)
	}
	if quantity > math.MaxInt64/priceNtd {
		return 0, fmt.Errorf("%w: trade value of %d x %d overflows", apperrors.ErrValidation, quantity, priceNtd)
	}
	return quantity * priceNtd, nil
}

// sellFromLots allocates tx against the open lots of its account and symbol and
// returns an allocation whose UpdatedLots is the complete new lot set of l.
func sellFromLots(l *model.Ledger, tx model.Transaction) (Allocation, error) {
	var (
		candidates []model.Lot
		positions  []int
	)
	for i, lot := range l.Lots {
		if lot.AccountID == tx.AccountID && lot.Symbol == tx.Symbol && lot.OpenQuantity > 0 {
			candidates = append(candidates, lot)
			positions = append(positions, i)
		}
	}

	method := l.Settings.CostBasisMethod
	if !method.Valid() {
		method = model.FIFO
	}

	alloc, err := AllocateSellLots(candidates, tx.Quantity, method)
	if err != nil {
		return Allocation{}, fmt.Errorf("sell %d %s in account %s: %w", tx.Quantity, tx.Symbol, tx.AccountID, err)
	}

	merged := make([]model.Lot, len(l.Lots))
	copy(merged, l.Lots)
	for j, pos := range positions {
		merged[pos] = alloc.UpdatedLots[j]
	}
	alloc.UpdatedLots = merged
	return alloc, nil
}

// snapshotFeeProfile copies p by value. FeeProfile must stay free of
// reference fields for this to remain a deep copy.
func snapshotFeeProfile(p model.FeeProfile) model.FeeProfile {
	snapshot := p
	return snapshot
}

// CreateTransactions records several trades in order. Either all of them are
// recorded or, on the first failure, none are and l is unchanged.
func CreateTransactions(l *model.Ledger, userID string, inputs []CreateTransactionInput) ([]model.Transaction, error) {
	draft := l.Clone()
	created := make([]model.Transaction, 0, len(inputs))

	for i, in := range inputs {
		tx, err := CreateTransaction(draft, userID, in)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		created = append(created, tx)
	}

	*l = *draft
	return created, nil
}
