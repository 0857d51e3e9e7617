package validation

import (
	"fmt"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// ValidateCreateTransaction validates a transaction creation request.
// The request must be normalized first.
//
// Required fields:
//   - accountId: user-scoped id
//   - symbol: 1 to 16 upper-case letters or digits
//   - quantity: 1 to MaxQuantity
//   - priceNtd: 1 to MaxPriceNtd
//   - tradeDate: YYYY-MM-DD
//   - type: BUY or SELL
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	checkID(errors, "accountId", req.AccountID)
	checkTrade(errors, "", req.Symbol, req.Quantity, req.PriceNtd, req.TradeDate, req.Type)

	return result(errors)
}

// ValidateBatchTransactions validates a batch import of 1 to 200 trades for one account.
func ValidateBatchTransactions(req request.BatchTransactionsRequest) error {
	errors := make(map[string]string)

	checkID(errors, "accountId", req.AccountID)

	switch {
	case len(req.Transactions) == 0:
		errors["transactions"] = "at least one transaction is required"
	case len(req.Transactions) > MaxBatchTransactions:
		errors["transactions"] = fmt.Sprintf("at most %d transactions are allowed", MaxBatchTransactions)
	}

	for i, item := range req.Transactions {
		prefix := fmt.Sprintf("transactions[%d].", i)
		checkTrade(errors, prefix, item.Symbol, item.Quantity, item.PriceNtd, item.TradeDate, item.Type)
	}

	return result(errors)
}

func checkTrade(errors map[string]string, prefix, symbol string, quantity, priceNtd int64, tradeDate, txType string) {
	checkSymbol(errors, prefix+"symbol", symbol)

	switch {
	case quantity <= 0:
		errors[prefix+"quantity"] = "quantity must be positive"
	case quantity > MaxQuantity:
		errors[prefix+"quantity"] = fmt.Sprintf("quantity must be at most %d", MaxQuantity)
	}
	switch {
	case priceNtd <= 0:
		errors[prefix+"priceNtd"] = "priceNtd must be positive"
	case priceNtd > MaxPriceNtd:
		errors[prefix+"priceNtd"] = fmt.Sprintf("priceNtd must be at most %d", MaxPriceNtd)
	}

	checkDate(errors, prefix+"tradeDate", tradeDate)

	if txType == "" {
		errors[prefix+"type"] = "type is required"
	} else if !model.TransactionType(txType).Valid() {
		errors[prefix+"type"] = fmt.Sprintf("invalid type: %s", txType)
	}
}

// ValidateCorporateAction validates a corporate action request.
// Non-positive numerators and denominators are left to the ledger, which
// reports them as an invalid ratio; values above MaxRatio are malformed input.
func ValidateCorporateAction(req request.CorporateActionRequest) error {
	errors := make(map[string]string)

	checkID(errors, "accountId", req.AccountID)
	checkSymbol(errors, "symbol", req.Symbol)
	checkDate(errors, "actionDate", req.ActionDate)

	if req.ActionType == "" {
		errors["actionType"] = "actionType is required"
	} else if !model.CorporateActionType(req.ActionType).Valid() {
		errors["actionType"] = fmt.Sprintf("invalid actionType: %s", req.ActionType)
	}

	if req.Numerator != nil && *req.Numerator > MaxRatio {
		errors["numerator"] = fmt.Sprintf("numerator must be at most %d", MaxRatio)
	}
	if req.Denominator != nil && *req.Denominator > MaxRatio {
		errors["denominator"] = fmt.Sprintf("denominator must be at most %d", MaxRatio)
	}

	return result(errors)
}
