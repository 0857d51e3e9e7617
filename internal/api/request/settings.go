package request

import "strings"

// UpdateSettingsRequest is the body of PATCH /api/settings. Omitted fields are kept.
type UpdateSettingsRequest struct {
	Locale                   *string `json:"locale,omitempty"`
	CostBasisMethod          *string `json:"costBasisMethod,omitempty"`
	QuotePollIntervalSeconds *int    `json:"quotePollIntervalSeconds,omitempty"`
}

// FeeProfileRequest carries the editable fields of a fee profile.
type FeeProfileRequest struct {
	Name                    string `json:"name"`
	CommissionRateBps       *int64 `json:"commissionRateBps"`
	CommissionDiscountBps   *int64 `json:"commissionDiscountBps"`
	MinCommissionNtd        *int64 `json:"minCommissionNtd"`
	CommissionRoundingMode  string `json:"commissionRoundingMode"`
	TaxRoundingMode         string `json:"taxRoundingMode"`
	StockSellTaxRateBps     *int64 `json:"stockSellTaxRateBps"`
	StockDayTradeTaxRateBps *int64 `json:"stockDayTradeTaxRateBps"`
	EtfSellTaxRateBps       *int64 `json:"etfSellTaxRateBps"`
	BondEtfSellTaxRateBps   *int64 `json:"bondEtfSellTaxRateBps"`
}

// Normalize trims the name and upper-cases the rounding modes.
func (r *FeeProfileRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.CommissionRoundingMode = strings.ToUpper(strings.TrimSpace(r.CommissionRoundingMode))
	r.TaxRoundingMode = strings.ToUpper(strings.TrimSpace(r.TaxRoundingMode))
}

// UpdateAccountRequest is the body of PATCH /api/accounts/{id}.
type UpdateAccountRequest struct {
	Name         *string `json:"name,omitempty"`
	FeeProfileID string  `json:"feeProfileId"`
}

// BindingRequest is one symbol binding.
type BindingRequest struct {
	AccountID    string `json:"accountId"`
	Symbol       string `json:"symbol"`
	FeeProfileID string `json:"feeProfileId"`
}

// Normalize trims identifiers and upper-cases the symbol.
func (r *BindingRequest) Normalize() {
	r.AccountID = strings.TrimSpace(r.AccountID)
	r.Symbol = NormalizeSymbol(r.Symbol)
	r.FeeProfileID = strings.TrimSpace(r.FeeProfileID)
}

// ReplaceBindingsRequest is the body of PUT /api/fee-profile-bindings.
type ReplaceBindingsRequest struct {
	Bindings []BindingRequest `json:"bindings"`
}

// AccountProfileRequest sets the default profile of one account.
type AccountProfileRequest struct {
	ID           string `json:"id"`
	FeeProfileID string `json:"feeProfileId"`
}

// FeeConfigRequest is the body of PUT /api/settings/fee-config.
type FeeConfigRequest struct {
	Accounts           []AccountProfileRequest `json:"accounts"`
	FeeProfileBindings []BindingRequest        `json:"feeProfileBindings"`
}

// Normalize trims account references and normalizes every binding.
func (r *FeeConfigRequest) Normalize() {
	for i := range r.Accounts {
		r.Accounts[i].ID = strings.TrimSpace(r.Accounts[i].ID)
		r.Accounts[i].FeeProfileID = strings.TrimSpace(r.Accounts[i].FeeProfileID)
	}
	for i := range r.FeeProfileBindings {
		r.FeeProfileBindings[i].Normalize()
	}
}

// FullSettingsValues is the settings part of a full replacement; all fields are required.
type FullSettingsValues struct {
	Locale                   string `json:"locale"`
	CostBasisMethod          string `json:"costBasisMethod"`
	QuotePollIntervalSeconds int    `json:"quotePollIntervalSeconds"`
}

// FeeProfileDraftRequest is a fee profile addressed by an existing id or a temp id.
type FeeProfileDraftRequest struct {
	ID     string `json:"id,omitempty"`
	TempID string `json:"tempId,omitempty"`
	FeeProfileRequest
}

// AccountRefRequest points an account at a profile id or temp id.
type AccountRefRequest struct {
	ID            string `json:"id"`
	FeeProfileRef string `json:"feeProfileRef"`
}

// BindingRefRequest is a binding whose profile is an id or temp id.
type BindingRefRequest struct {
	AccountID     string `json:"accountId"`
	Symbol        string `json:"symbol"`
	FeeProfileRef string `json:"feeProfileRef"`
}

// FullSettingsRequest is the body of PUT /api/settings/full.
type FullSettingsRequest struct {
	Settings           FullSettingsValues       `json:"settings"`
	FeeProfiles        []FeeProfileDraftRequest `json:"feeProfiles"`
	Accounts           []AccountRefRequest      `json:"accounts"`
	FeeProfileBindings []BindingRefRequest      `json:"feeProfileBindings"`
}

// Normalize trims every id and reference and normalizes profiles and symbols.
func (r *FullSettingsRequest) Normalize() {
	for i := range r.Accounts {
		r.Accounts[i].ID = strings.TrimSpace(r.Accounts[i].ID)
		r.Accounts[i].FeeProfileRef = strings.TrimSpace(r.Accounts[i].FeeProfileRef)
	}
	for i := range r.FeeProfiles {
		r.FeeProfiles[i].Normalize()
		r.FeeProfiles[i].ID = strings.TrimSpace(r.FeeProfiles[i].ID)
		r.FeeProfiles[i].TempID = strings.TrimSpace(r.FeeProfiles[i].TempID)
	}
	for i := range r.FeeProfileBindings {
		b := &r.FeeProfileBindings[i]
		b.AccountID = strings.TrimSpace(b.AccountID)
		b.Symbol = NormalizeSymbol(b.Symbol)
		b.FeeProfileRef = strings.TrimSpace(b.FeeProfileRef)
	}
}
