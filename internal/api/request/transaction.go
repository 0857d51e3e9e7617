package request

import "strings"

// CreateTransactionRequest is the body of POST /api/portfolio/transactions.
type CreateTransactionRequest struct {
	AccountID  string `json:"accountId"`
	Symbol     string `json:"symbol"`
	Quantity   int64  `json:"quantity"`
	PriceNtd   int64  `json:"priceNtd"`
	TradeDate  string `json:"tradeDate"`
	Type       string `json:"type"`
	IsDayTrade bool   `json:"isDayTrade"`
}

// Normalize trims identifiers and upper-cases the symbol and type.
func (r *CreateTransactionRequest) Normalize() {
	r.AccountID = strings.TrimSpace(r.AccountID)
	r.Symbol = NormalizeSymbol(r.Symbol)
	r.TradeDate = strings.TrimSpace(r.TradeDate)
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
}

// BatchTransactionItem is one trade of a batch import.
type BatchTransactionItem struct {
	Symbol     string `json:"symbol"`
	Quantity   int64  `json:"quantity"`
	PriceNtd   int64  `json:"priceNtd"`
	TradeDate  string `json:"tradeDate"`
	Type       string `json:"type"`
	IsDayTrade bool   `json:"isDayTrade"`
}

// BatchTransactionsRequest is the body of POST /api/portfolio/transactions/batch.
type BatchTransactionsRequest struct {
	AccountID    string                 `json:"accountId"`
	Transactions []BatchTransactionItem `json:"transactions"`
}

// Normalize upper-cases the symbol and type and trims the date.
func (i *BatchTransactionItem) Normalize() {
	i.Symbol = NormalizeSymbol(i.Symbol)
	i.TradeDate = strings.TrimSpace(i.TradeDate)
	i.Type = strings.ToUpper(strings.TrimSpace(i.Type))
}

// Normalize normalizes the account and every item.
func (r *BatchTransactionsRequest) Normalize() {
	r.AccountID = strings.TrimSpace(r.AccountID)
	for i := range r.Transactions {
		r.Transactions[i].Normalize()
	}
}

// ParseTransactionsRequest is the body of POST /api/portfolio/transactions/parse.
type ParseTransactionsRequest struct {
	Text string `json:"text"`
}

// TransactionProposal is a trade read from one line of text. Proposals are
// never stored; clients confirm them through the batch endpoint.
type TransactionProposal struct {
	ID string `json:"id"`
	BatchTransactionItem
}

// CorporateActionRequest is the body of POST /api/corporate-actions.
// Numerator and denominator default to 1 when omitted.
type CorporateActionRequest struct {
	AccountID   string `json:"accountId"`
	Symbol      string `json:"symbol"`
	ActionType  string `json:"actionType"`
	Numerator   *int64 `json:"numerator,omitempty"`
	Denominator *int64 `json:"denominator,omitempty"`
	ActionDate  string `json:"actionDate"`
}

// Normalize trims identifiers and upper-cases the symbol and action type.
func (r *CorporateActionRequest) Normalize() {
	r.AccountID = strings.TrimSpace(r.AccountID)
	r.Symbol = NormalizeSymbol(r.Symbol)
	r.ActionType = strings.ToUpper(strings.TrimSpace(r.ActionType))
	r.ActionDate = strings.TrimSpace(r.ActionDate)
}

// Ratio returns numerator and denominator with their defaults applied.
func (r CorporateActionRequest) Ratio() (int64, int64) {
	numerator, denominator := int64(1), int64(1)
	if r.Numerator != nil {
		numerator = *r.Numerator
	}
	if r.Denominator != nil {
		denominator = *r.Denominator
	}
	return numerator, denominator
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
