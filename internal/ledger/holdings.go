package ledger

import (
	"cmp"
	"slices"

	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// ListHoldings sums the open lots of userID per account and symbol.
// Fully closed lots are skipped. Rows are ordered by account, then symbol.
func ListHoldings(l *model.Ledger, userID string) []model.HoldingsRow {
	owned := make(map[string]struct{}, len(l.Accounts))
	for _, a := range l.Accounts {
		if a.UserID == userID {
			owned[a.ID] = struct{}{}
		}
	}

	type key struct{ account, symbol string }
	rows := make([]model.HoldingsRow, 0)
	index := make(map[key]int)

	for _, lot := range l.Lots {
		if _, ok := owned[lot.AccountID]; !ok || lot.OpenQuantity <= 0 {
			continue
		}
		k := key{lot.AccountID, lot.Symbol}
		i, seen := index[k]
		if !seen {
			i = len(rows)
			index[k] = i
			rows = append(rows, model.HoldingsRow{AccountID: lot.AccountID, Symbol: lot.Symbol})
		}
		rows[i].Quantity += lot.OpenQuantity
		rows[i].CostNtd += lot.TotalCostNtd
	}

	slices.SortFunc(rows, func(a, b model.HoldingsRow) int {
		return cmp.Or(cmp.Compare(a.AccountID, b.AccountID), cmp.Compare(a.Symbol, b.Symbol))
	})
	return rows
}

// TransactionFilter narrows ListTransactions. Empty fields match everything.
// From and To are inclusive YYYY-MM-DD bounds on the trade date.
type TransactionFilter struct {
	AccountID string
	Symbol    string
	Type      model.TransactionType
	From      string
	To        string
}

func (f TransactionFilter) matches(tx model.Transaction) bool {
	switch {
	case f.AccountID != "" && tx.AccountID != f.AccountID:
		return false
	case f.Symbol != "" && tx.Symbol != f.Symbol:
		return false
	case f.Type != "" && tx.Type != f.Type:
		return false
	case f.From != "" && tx.TradeDate < f.From:
		return false
	case f.To != "" && tx.TradeDate > f.To:
		return false
	}
	return true
}

// ListTransactions returns the transactions of userID that match filter.
func ListTransactions(l *model.Ledger, userID string, filter TransactionFilter) []model.Transaction {
	out := make([]model.Transaction, 0)
	for _, tx := range l.Transactions {
		if tx.UserID != userID || !filter.matches(tx) {
			continue
		}
		if tx.RealizedPnlNtd != nil {
			pnl := *tx.RealizedPnlNtd
			tx.RealizedPnlNtd = &pnl
		}
		out = append(out, tx)
	}
	return out
}
