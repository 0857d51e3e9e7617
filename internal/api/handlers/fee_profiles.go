package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/service"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// FeeProfileHandler handles accounts, fee profiles and symbol bindings.
type FeeProfileHandler struct {
	ledgerService *service.LedgerService
}

// NewFeeProfileHandler creates a new FeeProfileHandler.
func NewFeeProfileHandler(ledgerService *service.LedgerService) *FeeProfileHandler {
	return &FeeProfileHandler{
		ledgerService: ledgerService,
	}
}

// DeleteFeeProfileResponse reports the removed profile.
type DeleteFeeProfileResponse struct {
	DeletedID string `json:"deletedId"`
}

// ListAccounts handles GET /api/accounts.
func (h *FeeProfileHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledgerService.ListAccounts(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveSettings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, accounts)
}

// UpdateAccount handles PATCH requests that rename an account and set its default profile.
//
// Endpoint: PATCH /api/accounts/{id}
// Request Body: UpdateAccountRequest
// Response: 200 OK with Account
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the account or profile is unknown
func (h *FeeProfileHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	req, err := parseJSON[request.UpdateAccountRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.FeeProfileID = strings.TrimSpace(req.FeeProfileID)

	if err := validation.ValidateUpdateAccount(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	patch := ledger.AccountPatch{FeeProfileID: req.FeeProfileID}
	if req.Name != nil {
		patch.Name = strings.TrimSpace(*req.Name)
	}

	account, err := h.ledgerService.UpdateAccount(r.Context(), userID(r), accountID, patch)
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, account)
}

// ListFeeProfiles handles GET /api/fee-profiles.
func (h *FeeProfileHandler) ListFeeProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.ledgerService.ListFeeProfiles(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveSettings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, profiles)
}

// CreateFeeProfile handles POST requests that add a fee profile with a new id.
//
// Endpoint: POST /api/fee-profiles
// Request Body: FeeProfileRequest
// Response: 201 Created with FeeProfile
// Error: 400 Bad Request if validation fails
func (h *FeeProfileHandler) CreateFeeProfile(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.FeeProfileRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidateFeeProfile(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	profile, err := h.ledgerService.CreateFeeProfile(r.Context(), userID(r), toFeeProfile(req))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusCreated, profile)
}

// UpdateFeeProfile handles PATCH requests that replace the fields of a profile.
// Transactions keep the snapshot taken when they were created.
//
// Endpoint: PATCH /api/fee-profiles/{id}
// Request Body: FeeProfileRequest
// Response: 200 OK with FeeProfile
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the profile is unknown
func (h *FeeProfileHandler) UpdateFeeProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	req, err := parseJSON[request.FeeProfileRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidateFeeProfile(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	profile, err := h.ledgerService.UpdateFeeProfile(r.Context(), userID(r), profileID, toFeeProfile(req))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, profile)
}

// DeleteFeeProfile handles DELETE requests for an unreferenced fee profile.
//
// Endpoint: DELETE /api/fee-profiles/{id}
// Response: 200 OK with DeleteFeeProfileResponse
// Error: 400 Bad Request if it is the last profile
// Error: 404 Not Found if the profile is unknown
// Error: 409 Conflict if it is still referenced
func (h *FeeProfileHandler) DeleteFeeProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")

	if err := h.ledgerService.DeleteFeeProfile(r.Context(), userID(r), profileID); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, DeleteFeeProfileResponse{DeletedID: profileID})
}

// ListBindings handles GET /api/fee-profile-bindings.
func (h *FeeProfileHandler) ListBindings(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.ledgerService.ListBindings(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveSettings.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, bindings)
}

// ReplaceBindings handles PUT requests that replace every symbol binding.
// Repeated (accountId, symbol) pairs keep the last entry.
//
// Endpoint: PUT /api/fee-profile-bindings
// Request Body: ReplaceBindingsRequest
// Response: 200 OK with array of FeeProfileBinding
// Error: 400 Bad Request if validation fails or a binding references an unknown account or profile
func (h *FeeProfileHandler) ReplaceBindings(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ReplaceBindingsRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	for i := range req.Bindings {
		req.Bindings[i].Normalize()
	}

	if err := validation.ValidateReplaceBindings(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	bindings, err := h.ledgerService.ReplaceBindings(r.Context(), userID(r), toBindings(req.Bindings))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToUpdateFeeConfig.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, bindings)
}
