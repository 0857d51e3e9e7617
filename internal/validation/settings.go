package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// ValidateUpdateSettings validates a partial settings update.
// All fields are optional, but if provided, they must be valid.
func ValidateUpdateSettings(req request.UpdateSettingsRequest) error {
	errors := make(map[string]string)

	if req.Locale != nil {
		checkLocale(errors, "locale", *req.Locale)
	}
	if req.CostBasisMethod != nil {
		checkCostBasisMethod(errors, "costBasisMethod", *req.CostBasisMethod)
	}
	if req.QuotePollIntervalSeconds != nil {
		checkPollInterval(errors, "quotePollIntervalSeconds", *req.QuotePollIntervalSeconds)
	}

	return result(errors)
}

// ValidateFeeProfile validates the editable fields of a fee profile.
//
// Required fields:
//   - name: 1 to 80 characters
//   - commissionDiscountBps: positive
//   - commissionRateBps, minCommissionNtd and the tax rates: non-negative
//   - commissionRoundingMode, taxRoundingMode: FLOOR, ROUND or CEIL
func ValidateFeeProfile(req request.FeeProfileRequest) error {
	errors := make(map[string]string)
	checkFeeProfile(errors, "", req)
	return result(errors)
}

func checkFeeProfile(errors map[string]string, prefix string, req request.FeeProfileRequest) {
	checkName(errors, prefix+"name", req.Name)

	nonNegative := []struct {
		field string
		value *int64
	}{
		{"commissionRateBps", req.CommissionRateBps},
		{"minCommissionNtd", req.MinCommissionNtd},
		{"stockSellTaxRateBps", req.StockSellTaxRateBps},
		{"stockDayTradeTaxRateBps", req.StockDayTradeTaxRateBps},
		{"etfSellTaxRateBps", req.EtfSellTaxRateBps},
		{"bondEtfSellTaxRateBps", req.BondEtfSellTaxRateBps},
	}
	for _, f := range nonNegative {
		switch {
		case f.value == nil:
			errors[prefix+f.field] = f.field + " is required"
		case *f.value < 0:
			errors[prefix+f.field] = f.field + " must not be negative"
		}
	}

	switch {
	case req.CommissionDiscountBps == nil:
		errors[prefix+"commissionDiscountBps"] = "commissionDiscountBps is required"
	case *req.CommissionDiscountBps <= 0:
		errors[prefix+"commissionDiscountBps"] = "commissionDiscountBps must be positive"
	}

	checkRoundingMode(errors, prefix+"commissionRoundingMode", req.CommissionRoundingMode)
	checkRoundingMode(errors, prefix+"taxRoundingMode", req.TaxRoundingMode)
}

// ValidateUpdateAccount validates an account update.
func ValidateUpdateAccount(req request.UpdateAccountRequest) error {
	errors := make(map[string]string)

	if req.Name != nil {
		checkName(errors, "name", strings.TrimSpace(*req.Name))
	}
	checkID(errors, "feeProfileId", req.FeeProfileID)

	return result(errors)
}

// ValidateReplaceBindings validates a full replacement of symbol bindings.
func ValidateReplaceBindings(req request.ReplaceBindingsRequest) error {
	errors := make(map[string]string)
	checkBindings(errors, "bindings", req.Bindings)
	return result(errors)
}

// ValidateFeeConfig validates account default profiles and bindings.
func ValidateFeeConfig(req request.FeeConfigRequest) error {
	errors := make(map[string]string)

	if len(req.Accounts) > MaxAccounts {
		errors["accounts"] = fmt.Sprintf("at most %d accounts are allowed", MaxAccounts)
	}
	for i, account := range req.Accounts {
		prefix := fmt.Sprintf("accounts[%d].", i)
		checkID(errors, prefix+"id", account.ID)
		checkID(errors, prefix+"feeProfileId", account.FeeProfileID)
	}
	checkBindings(errors, "feeProfileBindings", req.FeeProfileBindings)

	return result(errors)
}

func checkBindings(errors map[string]string, field string, bindings []request.BindingRequest) {
	if len(bindings) > MaxBindings {
		errors[field] = fmt.Sprintf("at most %d bindings are allowed", MaxBindings)
	}
	for i, b := range bindings {
		prefix := fmt.Sprintf("%s[%d].", field, i)
		checkID(errors, prefix+"accountId", b.AccountID)
		checkSymbol(errors, prefix+"symbol", b.Symbol)
		checkID(errors, prefix+"feeProfileId", b.FeeProfileID)
	}
}

// ValidateFullSettings validates a full settings replacement. Every fee
// profile needs an id or a tempId; references are resolved by the ledger.
func ValidateFullSettings(req request.FullSettingsRequest) error {
	errors := make(map[string]string)

	checkLocale(errors, "settings.locale", req.Settings.Locale)
	checkCostBasisMethod(errors, "settings.costBasisMethod", req.Settings.CostBasisMethod)
	checkPollInterval(errors, "settings.quotePollIntervalSeconds", req.Settings.QuotePollIntervalSeconds)

	if len(req.FeeProfiles) > MaxFeeProfiles {
		errors["feeProfiles"] = fmt.Sprintf("at most %d fee profiles are allowed", MaxFeeProfiles)
	}
	for i, draft := range req.FeeProfiles {
		prefix := fmt.Sprintf("feeProfiles[%d].", i)
		if draft.ID == "" && draft.TempID == "" {
			errors[prefix+"id"] = "id or tempId is required for each fee profile draft"
		}
		checkOptionalID(errors, prefix+"id", draft.ID)
		checkOptionalID(errors, prefix+"tempId", draft.TempID)
		checkFeeProfile(errors, prefix, draft.FeeProfileRequest)
	}

	if len(req.Accounts) > MaxAccounts {
		errors["accounts"] = fmt.Sprintf("at most %d accounts are allowed", MaxAccounts)
	}
	for i, account := range req.Accounts {
		prefix := fmt.Sprintf("accounts[%d].", i)
		checkID(errors, prefix+"id", account.ID)
		checkID(errors, prefix+"feeProfileRef", account.FeeProfileRef)
	}

	if len(req.FeeProfileBindings) > MaxBindings {
		errors["feeProfileBindings"] = fmt.Sprintf("at most %d bindings are allowed", MaxBindings)
	}
	for i, b := range req.FeeProfileBindings {
		prefix := fmt.Sprintf("feeProfileBindings[%d].", i)
		checkID(errors, prefix+"accountId", b.AccountID)
		checkSymbol(errors, prefix+"symbol", b.Symbol)
		checkID(errors, prefix+"feeProfileRef", b.FeeProfileRef)
	}

	return result(errors)
}

func checkName(errors map[string]string, field, name string) {
	switch {
	case name == "":
		errors[field] = field + " is required"
	case len([]rune(name)) > MaxNameLength:
		errors[field] = fmt.Sprintf("%s must be at most %d characters", field, MaxNameLength)
	}
}

func checkLocale(errors map[string]string, field, locale string) {
	if !model.Locale(locale).Valid() {
		errors[field] = fmt.Sprintf("invalid locale: %q", locale)
	}
}

func checkCostBasisMethod(errors map[string]string, field, method string) {
	if !model.CostBasisMethod(method).Valid() {
		errors[field] = fmt.Sprintf("invalid costBasisMethod: %q", method)
	}
}

func checkPollInterval(errors map[string]string, field string, seconds int) {
	if seconds < 1 || seconds > MaxPollSeconds {
		errors[field] = fmt.Sprintf("%s must be between 1 and %d", field, MaxPollSeconds)
	}
}

func checkRoundingMode(errors map[string]string, field, mode string) {
	if !model.RoundingMode(mode).Valid() {
		errors[field] = fmt.Sprintf("invalid rounding mode: %q", mode)
	}
}
