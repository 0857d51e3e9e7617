package ledger

import (
	"fmt"
	"time"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// PreviewInput selects the transactions and comparison profile of a recompute.
type PreviewInput struct {
	UserID string
	// ProfileID is the comparison profile. Empty means each transaction falls
	// back to its account default.
	ProfileID string
	// AccountID restricts the candidates to one account when set.
	AccountID string
	// UseFallbackBindings lets a symbol binding take precedence over ProfileID.
	UseFallbackBindings bool
	// ForceProfileOnly prices every candidate with ProfileID and ignores
	// bindings. ProfileID is required.
	ForceProfileOnly bool

	JobID     string
	CreatedAt time.Time
}

// PreviewRecompute prices every candidate transaction under the next profile
// and stores the result as a PREVIEWED job. No transaction is modified.
//
// Fees are recomputed from the transaction's trade value, instrument type and
// day-trade flag, never from its fee snapshot.
func PreviewRecompute(l *model.Ledger, in PreviewInput) (model.RecomputeJob, error) {
	if in.ForceProfileOnly {
		if in.ProfileID == "" {
			return model.RecomputeJob{}, apperrors.ErrProfileRequired
		}
		in.UseFallbackBindings = false
	}
	if in.ProfileID != "" {
		if _, ok := findFeeProfile(l, in.ProfileID); !ok {
			return model.RecomputeJob{}, fmt.Errorf("%w: %s", apperrors.ErrFeeProfileMissing, in.ProfileID)
		}
	}
	if in.AccountID != "" {
		if _, ok := findUserAccount(l, in.UserID, in.AccountID); !ok {
			return model.RecomputeJob{}, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, in.AccountID)
		}
	}

	items := make([]model.RecomputeItem, 0)
	for _, tx := range l.Transactions {
		if tx.UserID != in.UserID || (in.AccountID != "" && tx.AccountID != in.AccountID) {
			continue
		}

		resolved, err := nextProfile(l, tx, in)
		if err != nil {
			return model.RecomputeJob{}, err
		}

		next := CalculateFees(resolved.Profile, tx.Type, SellFeeInput{
			TradeValueNtd:  tx.TradeValueNtd(),
			InstrumentType: tx.InstrumentType,
			IsDayTrade:     tx.IsDayTrade,
		})

		items = append(items, model.RecomputeItem{
			TransactionID:         tx.ID,
			PreviousCommissionNtd: tx.CommissionNtd,
			PreviousTaxNtd:        tx.TaxNtd,
			NextCommissionNtd:     next.CommissionNtd,
			NextTaxNtd:            next.TaxNtd,
		})
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	profileID := in.ProfileID
	if profileID == "" {
		profileID = model.AccountFallbackProfileID
	}

	job := model.RecomputeJob{
		ID:        newID(in.JobID),
		UserID:    in.UserID,
		AccountID: in.AccountID,
		ProfileID: profileID,
		Status:    model.RecomputePreviewed,
		CreatedAt: createdAt,
		Items:     items,
	}

	l.RecomputeJobs = append(l.RecomputeJobs, job)
	return cloneJob(job), nil
}

// nextProfile resolves the comparison profile of one transaction:
// a symbol binding when UseFallbackBindings is set, else the selected
// profile, else the account default.
func nextProfile(l *model.Ledger, tx model.Transaction, in PreviewInput) (ResolvedFeeProfile, error) {
	i, ok := findAccount(l, tx.AccountID)
	if !ok {
		return ResolvedFeeProfile{}, fmt.Errorf("transaction %s: %w: %s", tx.ID, apperrors.ErrAccountNotFound, tx.AccountID)
	}
	account := l.Accounts[i]

	var resolved ResolvedFeeProfile
	binding, hasBinding := findBinding(l, tx.AccountID, tx.Symbol)
	switch {
	case in.UseFallbackBindings && hasBinding:
		resolved = resolveByID(l, binding.FeeProfileID, SourceBinding)
	case in.ProfileID != "":
		resolved = resolveByID(l, in.ProfileID, SourceSelected)
	default:
		resolved = resolveByID(l, account.FeeProfileID, SourceAccountDefault)
	}

	if !resolved.Found {
		return ResolvedFeeProfile{}, fmt.Errorf("transaction %s: %w: %s (%s)", tx.ID, apperrors.ErrFeeProfileMissing, resolved.ProfileID, resolved.Source)
	}
	return resolved, nil
}

// ConfirmRecompute applies a PREVIEWED job to its transactions and marks it
// CONFIRMED. Only commission, tax and realized PnL change.
//
// For a sell the cost basis released at creation is recovered from the
// previous net proceeds and PnL, so the original lot allocation is kept and
// only the fee numbers move. Items whose transaction no longer exists are skipped.
func ConfirmRecompute(l *model.Ledger, userID, jobID string) (model.RecomputeJob, error) {
	jobIdx := -1
	for i, job := range l.RecomputeJobs {
		if job.ID == jobID && job.UserID == userID {
			jobIdx = i
			break
		}
	}
	if jobIdx < 0 {
		return model.RecomputeJob{}, fmt.Errorf("%w: %s", apperrors.ErrRecomputeJobNotFound, jobID)
	}

	job := &l.RecomputeJobs[jobIdx]
	if job.Status != model.RecomputePreviewed {
		return model.RecomputeJob{}, fmt.Errorf("%w: %s", apperrors.ErrRecomputeJobAlreadyConfirmed, jobID)
	}

	txIndex := make(map[string]int, len(l.Transactions))
	for i, tx := range l.Transactions {
		txIndex[tx.ID] = i
	}

	for _, item := range job.Items {
		i, ok := txIndex[item.TransactionID]
		if !ok {
			continue
		}
		tx := &l.Transactions[i]

		previousNetProceeds := tx.NetProceedsNtd()
		tx.CommissionNtd = item.NextCommissionNtd
		tx.TaxNtd = item.NextTaxNtd

		if tx.Type == model.TransactionSell && tx.RealizedPnlNtd != nil {
			allocatedCost := previousNetProceeds - *tx.RealizedPnlNtd
			pnl := tx.NetProceedsNtd() - allocatedCost
			tx.RealizedPnlNtd = &pnl
		}
	}

	job.Status = model.RecomputeConfirmed
	return cloneJob(*job), nil
}

// ListRecomputeJobs returns the jobs of userID in creation order.
func ListRecomputeJobs(l *model.Ledger, userID string) []model.RecomputeJob {
	jobs := make([]model.RecomputeJob, 0)
	for _, job := range l.RecomputeJobs {
		if job.UserID == userID {
			jobs = append(jobs, cloneJob(job))
		}
	}
	return jobs
}

func cloneJob(job model.RecomputeJob) model.RecomputeJob {
	job.Items = append(make([]model.RecomputeItem, 0, len(job.Items)), job.Items...)
	return job
}
