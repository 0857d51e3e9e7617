package validation

import (
	"fmt"
	"regexp"
	"time"
)

// Limits on request collections.
const (
	MaxBatchTransactions = 200
	MaxFeeProfiles       = 100
	MaxAccounts          = 200
	MaxBindings          = 500
	MaxNameLength        = 80
	MaxPollSeconds       = 86_400
	MaxParseTextLength   = 5_000
)

// Limits on trade amounts. MaxQuantity * MaxPriceNtd stays well inside int64.
const (
	MaxQuantity int64 = 10_000_000_000
	MaxPriceNtd int64 = 100_000_000
	MaxRatio    int64 = 1_000_000
)

var (
	idPattern     = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,80}$`)
	symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Common validation errors
var (
	ErrInvalidID     = fmt.Errorf("invalid id format")
	ErrInvalidSymbol = fmt.Errorf("invalid symbol format")
	ErrInvalidDate   = fmt.Errorf("invalid date format")
)

// ValidateID checks that id is a user-scoped identifier: 1 to 80 characters
// of letters, digits, '.', '_', ':' or '-'.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ValidateSymbol checks that symbol is 1 to 16 upper-case letters or digits.
func ValidateSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// ValidateDate checks that date is a real calendar date in YYYY-MM-DD form.
func ValidateDate(date string) error {
	if !datePattern.MatchString(date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	return nil
}

func checkID(errors map[string]string, field, id string) {
	if id == "" {
		errors[field] = field + " is required"
	} else if err := ValidateID(id); err != nil {
		errors[field] = err.Error()
	}
}

func checkOptionalID(errors map[string]string, field, id string) {
	if id != "" {
		checkID(errors, field, id)
	}
}

func checkSymbol(errors map[string]string, field, symbol string) {
	if symbol == "" {
		errors[field] = field + " is required"
	} else if err := ValidateSymbol(symbol); err != nil {
		errors[field] = err.Error()
	}
}

func checkDate(errors map[string]string, field, date string) {
	if date == "" {
		errors[field] = field + " is required"
	} else if err := ValidateDate(date); err != nil {
		errors[field] = err.Error()
	}
}
