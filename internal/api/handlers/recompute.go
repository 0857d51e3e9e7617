package handlers

import (
	"net/http"

	"github.com/ndewijer/portfolio-ledger/internal/api/request"
	"github.com/ndewijer/portfolio-ledger/internal/api/response"
	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/service"
	"github.com/ndewijer/portfolio-ledger/internal/validation"
)

// RecomputeHandler handles the preview and confirm steps of a fee recomputation.
type RecomputeHandler struct {
	ledgerService *service.LedgerService
}

// NewRecomputeHandler creates a new RecomputeHandler.
func NewRecomputeHandler(ledgerService *service.LedgerService) *RecomputeHandler {
	return &RecomputeHandler{
		ledgerService: ledgerService,
	}
}

// Preview handles POST requests to preview new fees for the caller's transactions.
// useFallbackBindings defaults to true.
//
// Endpoint: POST /api/portfolio/recompute/preview
// Request Body: PreviewRecomputeRequest
// Response: 200 OK with RecomputeJob in status PREVIEWED
// Error: 400 Bad Request if validation fails or forceProfileOnly is set without profileId
// Error: 404 Not Found if the profile or account is unknown
// Error: 409 Conflict if the ledger is inconsistent
func (h *RecomputeHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PreviewRecomputeRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Normalize()

	if err := validation.ValidatePreviewRecompute(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToPreviewRecompute.Error(), err)
		return
	}

	job, err := h.ledgerService.PreviewRecompute(r.Context(), ledger.PreviewInput{
		UserID:              userID(r),
		ProfileID:           req.ProfileID,
		AccountID:           req.AccountID,
		UseFallbackBindings: req.FallbackBindings(),
		ForceProfileOnly:    req.ForceProfileOnly,
	})
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToPreviewRecompute.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, job)
}

// Confirm handles POST requests to apply a previewed job.
//
// Endpoint: POST /api/portfolio/recompute/confirm
// Request Body: ConfirmRecomputeRequest
// Response: 200 OK with RecomputeJob in status CONFIRMED
// Error: 404 Not Found if the job is unknown
// Error: 409 Conflict if the job was already confirmed
func (h *RecomputeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ConfirmRecomputeRequest](r)
	if err != nil {
		response.RespondError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateConfirmRecompute(req); err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToConfirmRecompute.Error(), err)
		return
	}

	job, err := h.ledgerService.ConfirmRecompute(r.Context(), userID(r), req.JobID)
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToConfirmRecompute.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, job)
}

// ListJobs handles GET requests for the caller's recompute jobs.
//
// Endpoint: GET /api/portfolio/recompute/jobs
// Response: 200 OK with array of RecomputeJob
func (h *RecomputeHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.ledgerService.ListRecomputeJobs(r.Context(), userID(r))
	if err != nil {
		response.RespondAppError(w, r, apperrors.ErrFailedToRetrieveJobs.Error(), err)
		return
	}

	response.RespondJSON(w, r, http.StatusOK, jobs)
}
