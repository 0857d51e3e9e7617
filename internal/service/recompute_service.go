package service

import (
	"context"

	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// PreviewRecompute stores a PREVIEWED job describing how the fees of the
// user's transactions would change. Transactions are not modified.
func (s *LedgerService) PreviewRecompute(ctx context.Context, in ledger.PreviewInput) (model.RecomputeJob, error) {
	var job model.RecomputeJob
	_, err := s.mutate(ctx, in.UserID, func(draft *model.Ledger) error {
		if err := ledger.AssertIntegrity(draft); err != nil {
			return err
		}
		if in.CreatedAt.IsZero() {
			in.CreatedAt = s.now().UTC()
		}
		var err error
		job, err = ledger.PreviewRecompute(draft, in)
		return err
	})
	if err != nil {
		return model.RecomputeJob{}, err
	}

	s.logger.Info().
		Str("user_id", in.UserID).
		Str("job_id", job.ID).
		Str("profile_id", job.ProfileID).
		Int("items", len(job.Items)).
		Msg("recompute previewed")
	return job, nil
}

// ConfirmRecompute applies a previewed job to the user's transactions.
func (s *LedgerService) ConfirmRecompute(ctx context.Context, userID, jobID string) (model.RecomputeJob, error) {
	var job model.RecomputeJob
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		var err error
		job, err = ledger.ConfirmRecompute(draft, userID, jobID)
		return err
	})
	if err != nil {
		return model.RecomputeJob{}, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("job_id", job.ID).
		Int("items", len(job.Items)).
		Msg("recompute confirmed")
	return job, nil
}

// ListRecomputeJobs returns the user's recompute jobs in creation order.
func (s *LedgerService) ListRecomputeJobs(ctx context.Context, userID string) ([]model.RecomputeJob, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.ListRecomputeJobs(l, userID), nil
}
