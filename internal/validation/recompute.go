package validation

import (
	"github.com/ndewijer/portfolio-ledger/internal/api/request"
)

// ValidatePreviewRecompute validates the optional ids of a preview request.
func ValidatePreviewRecompute(req request.PreviewRecomputeRequest) error {
	errors := make(map[string]string)

	checkOptionalID(errors, "profileId", req.ProfileID)
	checkOptionalID(errors, "accountId", req.AccountID)

	return result(errors)
}

// ValidateConfirmRecompute validates a confirm request.
func ValidateConfirmRecompute(req request.ConfirmRecomputeRequest) error {
	errors := make(map[string]string)

	checkID(errors, "jobId", req.JobID)

	return result(errors)
}
