package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
)

const dayTradeToken = "DAYTRADE"

// ParseTransactionText reads one trade per non-blank line of text:
//
//	TYPE SYMBOL QUANTITY PRICE_NTD TRADE_DATE [DAYTRADE]
//
// Tokens are separated by whitespace and TYPE and SYMBOL are case-insensitive.
// Every line is checked like a batch item; errors are keyed by the zero-based
// index of the non-blank line. Proposals are numbered from proposal-1.
func ParseTransactionText(text string) ([]request.TransactionProposal, error) {
	errors := make(map[string]string)

	switch {
	case strings.TrimSpace(text) == "":
		errors["text"] = "text is required"
	case utf8.RuneCountInString(text) > MaxParseTextLength:
		errors["text"] = fmt.Sprintf("text must be at most %d characters", MaxParseTextLength)
	}
	if len(errors) > 0 {
		return nil, result(errors)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > MaxBatchTransactions {
		errors["text"] = fmt.Sprintf("at most %d lines are allowed", MaxBatchTransactions)
		return nil, result(errors)
	}

	proposals := make([]request.TransactionProposal, 0, len(lines))
	for i, line := range lines {
		item, ok := parseTradeLine(errors, fmt.Sprintf("lines[%d]", i), line)
		if !ok {
			continue
		}
		proposals = append(proposals, request.TransactionProposal{
			ID:                   fmt.Sprintf("proposal-%d", i+1),
			BatchTransactionItem: item,
		})
	}

	if err := result(errors); err != nil {
		return nil, err
	}
	return proposals, nil
}

func parseTradeLine(errors map[string]string, field, line string) (request.BatchTransactionItem, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 5 || len(tokens) > 6 {
		errors[field] = "expected TYPE SYMBOL QUANTITY PRICE_NTD TRADE_DATE [DAYTRADE]"
		return request.BatchTransactionItem{}, false
	}

	item := request.BatchTransactionItem{
		Type:      tokens[0],
		Symbol:    tokens[1],
		TradeDate: tokens[4],
	}
	item.Normalize()

	before := len(errors)
	quantity, quantityErr := strconv.ParseInt(tokens[2], 10, 64)
	price, priceErr := strconv.ParseInt(tokens[3], 10, 64)
	item.Quantity, item.PriceNtd = quantity, price

	prefix := field + "."
	checkTrade(errors, prefix, item.Symbol, item.Quantity, item.PriceNtd, item.TradeDate, item.Type)
	if quantityErr != nil {
		errors[prefix+"quantity"] = fmt.Sprintf("quantity must be an integer: %q", tokens[2])
	}
	if priceErr != nil {
		errors[prefix+"priceNtd"] = fmt.Sprintf("priceNtd must be an integer: %q", tokens[3])
	}

	if len(tokens) == 6 {
		if strings.EqualFold(tokens[5], dayTradeToken) {
			item.IsDayTrade = true
		} else {
			errors[prefix+"isDayTrade"] = fmt.Sprintf("expected %s, got %q", dayTradeToken, tokens[5])
		}
	}

	return item, len(errors) == before
}
