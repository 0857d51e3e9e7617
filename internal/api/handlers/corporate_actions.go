package handlers

import (
	"net/http"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
	"github.com/ndewijer/portfolio-ledger/internal/service"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// CorporateActionHandler handles HTTP requests for corporate action endpoints.
type CorporateActionHandler struct {
	ledgerService *service.LedgerService
}

// NewCorporateActionHandler creates a new CorporateActionHandler.
func NewCorporateActionHandler(ledgerService *service.LedgerService) *CorporateActionHandler {
	return &CorporateActionHandler{
		ledgerService: ledgerService,
	}
}

// ListCorporateActions handles GET requests for the corporate action audit log.
//
// Endpoint: GET /api/corporate-actions
// Response: 200 OK with array of CorporateAction
func (h *CorporateActionHandler) ListCorporateActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.ledgerService.ListCorporateActions(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveActions.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, actions)
}

// ApplyCorporateAction handles POST requests to record a dividend or apply a
// split or reverse split to the open lots of one account and symbol.
//
// Endpoint: POST /api/corporate-actions
// Request Body: CorporateActionRequest
// Response: 201 Created with CorporateAction
// Error: 400 Bad Request if validation fails or the ratio is not positive
// Error: 404 Not Found if the account is unknown
// Error: 500 Internal Server Error if the action cannot be saved
func (h *CorporateActionHandler) ApplyCorporateAction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CorporateActionRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidateCorporateAction(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToApplyAction.Error(), err)
		return
	}

	numerator, denominator := req.Ratio()
	action, err := h.ledgerService.ApplyCorporateAction(r.Context(), userID(r), model.CorporateAction{
		AccountID:   req.AccountID,
		Symbol:      req.Symbol,
		ActionType:  model.CorporateActionType(req.ActionType),
		Numerator:   numerator,
		Denominator: denominator,
		ActionDate:  req.ActionDate,
	})
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToApplyAction.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusCreated, action)
}
