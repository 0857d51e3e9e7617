package request

import (
	"fmt"
	"strings"
	"time"
)

// TransactionFilters are the validated query parameters of GET /api/portfolio/transactions.
type TransactionFilters struct {
	AccountID string
	Symbol    string
	Type      string
	StartDate string
	EndDate   string
}

// ParseTransactionFilters extracts and validates transaction filters from query parameters.
// All parameters are optional.
//
// Validation rules:
//   - symbol: upper-cased
//   - type: BUY or SELL, case-insensitive
//   - startDate/endDate: YYYY-MM-DD, startDate not after endDate
func ParseTransactionFilters(accountIDParam, symbolParam, typeParam, startDateParam, endDateParam string) (TransactionFilters, error) {
	filters := TransactionFilters{
		AccountID: strings.TrimSpace(accountIDParam),
		Symbol:    NormalizeSymbol(symbolParam),
	}

	if typeParam != "" {
		txType := strings.ToUpper(strings.TrimSpace(typeParam))
		if txType != "BUY" && txType != "SELL" {
			return TransactionFilters{}, fmt.Errorf("invalid type: must be 'BUY' or 'SELL'")
		}
		filters.Type = txType
	}

	if startDateParam != "" {
		if _, err := time.Parse(time.DateOnly, startDateParam); err != nil {
			return TransactionFilters{}, fmt.Errorf("invalid startDate format: %w", err)
		}
		filters.StartDate = startDateParam
	}

	if endDateParam != "" {
		if _, err := time.Parse(time.DateOnly, endDateParam); err != nil {
			return TransactionFilters{}, fmt.Errorf("invalid endDate format: %w", err)
		}
		filters.EndDate = endDateParam
	}

	if filters.StartDate != "" && filters.EndDate != "" && filters.StartDate > filters.EndDate {
		return TransactionFilters{}, fmt.Errorf("invalid date range: startDate %s is after endDate %s", filters.StartDate, filters.EndDate)
	}

	return filters, nil
}
