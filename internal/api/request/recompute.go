package request

import "strings"

// PreviewRecomputeRequest is the body of POST /api/portfolio/recompute/preview.
// UseFallbackBindings defaults to true when omitted.
type PreviewRecomputeRequest struct {
	ProfileID           string `json:"profileId,omitempty"`
	AccountID           string `json:"accountId,omitempty"`
	UseFallbackBindings *bool  `json:"useFallbackBindings,omitempty"`
	ForceProfileOnly    bool   `json:"forceProfileOnly"`
}

// Normalize trims identifiers.
func (r *PreviewRecomputeRequest) Normalize() {
	r.ProfileID = strings.TrimSpace(r.ProfileID)
	r.AccountID = strings.TrimSpace(r.AccountID)
}

// FallbackBindings returns UseFallbackBindings with its default applied.
func (r PreviewRecomputeRequest) FallbackBindings() bool {
	return r.UseFallbackBindings == nil || *r.UseFallbackBindings
}

// ConfirmRecomputeRequest is the body of POST /api/portfolio/recompute/confirm.
type ConfirmRecomputeRequest struct {
	JobID string `json:"jobId"`
}
