package handlers

import (
	"net/http"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/service"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// SettingsHandler handles the user settings and combined fee configuration endpoints.
type SettingsHandler struct {
	ledgerService *service.LedgerService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(ledgerService *service.LedgerService) *SettingsHandler {
	return &SettingsHandler{
		ledgerService: ledgerService,
	}
}

// GetSettings handles GET /api/settings.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.ledgerService.GetSettings(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveSettings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, settings)
}

// UpdateSettings handles PATCH requests with a partial settings update.
//
// Endpoint: PATCH /api/settings
// Request Body: UpdateSettingsRequest (all fields optional)
// Response: 200 OK with Settings
// Error: 400 Bad Request if validation fails
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateSettingsRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateSettings(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateSettings.Error(), err)
		return
	}

	var patch ledger.SettingsPatch
	if req.Locale != nil {
		locale := model.Locale(*req.Locale)
		patch.Locale = &locale
	}
	if req.CostBasisMethod != nil {
		method := model.CostBasisMethod(*req.CostBasisMethod)
		patch.CostBasisMethod = &method
	}
	patch.QuotePollIntervalSeconds = req.QuotePollIntervalSeconds

	settings, err := h.ledgerService.UpdateSettings(r.Context(), userID(r), patch)
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateSettings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, settings)
}

// ReplaceSettingsFull handles PUT requests that replace settings, fee profiles,
// account defaults and bindings in one step. New profiles may be referenced by tempId.
//
// Endpoint: PUT /api/settings/full
// Request Body: FullSettingsRequest
// Response: 200 OK with FullSettingsResult
// Error: 400 Bad Request if validation fails, a tempId repeats or a reference cannot be resolved
// Error: 404 Not Found if an existing profile id or account id is unknown
// Error: 409 Conflict if the result would be inconsistent
func (h *SettingsHandler) ReplaceSettingsFull(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.FullSettingsRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidateFullSettings(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateSettings.Error(), err)
		return
	}

	full := ledger.FullSettings{
		Locale:                   model.Locale(req.Settings.Locale),
		CostBasisMethod:          model.CostBasisMethod(req.Settings.CostBasisMethod),
		QuotePollIntervalSeconds: req.Settings.QuotePollIntervalSeconds,
		FeeProfiles:              make([]ledger.FeeProfileDraft, len(req.FeeProfiles)),
		Accounts:                 make([]ledger.AccountRef, len(req.Accounts)),
		Bindings:                 make([]ledger.BindingRef, len(req.FeeProfileBindings)),
	}
	for i, draft := range req.FeeProfiles {
		full.FeeProfiles[i] = ledger.FeeProfileDraft{
			ID:         draft.ID,
			TempID:     draft.TempID,
			FeeProfile: toFeeProfile(draft.FeeProfileRequest),
		}
	}
	for i, account := range req.Accounts {
		full.Accounts[i] = ledger.AccountRef{AccountID: account.ID, FeeProfileRef: account.FeeProfileRef}
	}
	for i, b := range req.FeeProfileBindings {
		full.Bindings[i] = ledger.BindingRef{AccountID: b.AccountID, Symbol: b.Symbol, FeeProfileRef: b.FeeProfileRef}
	}

	result, err := h.ledgerService.ReplaceSettingsFull(r.Context(), userID(r), full)
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateSettings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, result)
}

// GetFeeConfig handles GET requests for accounts, fee profiles and bindings.
// An integrity problem is reported in the integrityIssue field, not as an error.
//
// Endpoint: GET /api/settings/fee-config
// Response: 200 OK with FeeConfig
func (h *SettingsHandler) GetFeeConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.ledgerService.GetFeeConfig(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveSettings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, config)
}

// ReplaceFeeConfig handles PUT requests that set account default profiles and
// replace every binding.
//
// Endpoint: PUT /api/settings/fee-config
// Request Body: FeeConfigRequest
// Response: 200 OK with FeeConfig
// Error: 400 Bad Request if validation fails or a binding references an unknown account or profile
// Error: 404 Not Found if an account is unknown
func (h *SettingsHandler) ReplaceFeeConfig(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.FeeConfigRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidateFeeConfig(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	accounts := make([]ledger.AccountProfileUpdate, len(req.Accounts))
	for i, account := range req.Accounts {
		accounts[i] = ledger.AccountProfileUpdate{AccountID: account.ID, FeeProfileID: account.FeeProfileID}
	}

	config, err := h.ledgerService.ReplaceFeeConfig(r.Context(), userID(r), accounts, toBindings(req.FeeProfileBindings))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, config)
}

// toFeeProfile converts a validated request; every rate pointer is non-nil.
func toFeeProfile(req request.FeeProfileRequest) model.FeeProfile {
	return model.FeeProfile{
		Name:                    req.Name,
		CommissionRateBps:       *req.CommissionRateBps,
		CommissionDiscountBps:   *req.CommissionDiscountBps,
		MinCommissionNtd:        *req.MinCommissionNtd,
		CommissionRoundingMode:  model.RoundingMode(req.CommissionRoundingMode),
		TaxRoundingMode:         model.RoundingMode(req.TaxRoundingMode),
		StockSellTaxRateBps:     *req.StockSellTaxRateBps,
		StockDayTradeTaxRateBps: *req.StockDayTradeTaxRateBps,
		EtfSellTaxRateBps:       *req.EtfSellTaxRateBps,
		BondEtfSellTaxRateBps:   *req.BondEtfSellTaxRateBps,
	}
}

func toBindings(reqs []request.BindingRequest) []model.FeeProfileBinding {
	bindings := make([]model.FeeProfileBinding, len(reqs))
	for i, b := range reqs {
		bindings[i] = model.FeeProfileBinding{
			AccountID:    b.AccountID,
			Symbol:       b.Symbol,
			FeeProfileID: b.FeeProfileID,
		}
	}
	return bindings
}
