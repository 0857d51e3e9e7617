package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/ledger"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// CreateTransaction records a trade exactly once per idempotency key.
//
// The key is claimed after the trade has been computed against a draft, so a
// request that fails validation never consumes it. If persisting the draft
// fails the key is released and the client may retry with the same key.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID, idempotencyKey string, in ledger.CreateTransactionInput) (model.Transaction, error) {
	if idempotencyKey == "" {
		return model.Transaction{}, apperrors.ErrIdempotencyKeyMissing
	}

	release, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return model.Transaction{}, err
	}
	defer release()

	current, err := s.load(ctx, userID)
	if err != nil {
		return model.Transaction{}, err
	}

	draft := current.Clone()
	if err := ledger.AssertIntegrity(draft); err != nil {
		return model.Transaction{}, err
	}

	tx, err := ledger.CreateTransaction(draft, userID, in)
	if err != nil {
		return model.Transaction{}, err
	}

	claimed, err := s.keys.Claim(ctx, userID, idempotencyKey)
	if err != nil {
		return model.Transaction{}, err
	}
	if !claimed {
		return model.Transaction{}, apperrors.ErrDuplicateIdempotencyKey
	}

	if err := s.store.Save(ctx, draft); err != nil {
		if relErr := s.keys.Release(context.WithoutCancel(ctx), userID, idempotencyKey); relErr != nil {
			s.logger.Error().Err(relErr).
				Str("user_id", userID).
				Str("idempotency_key", idempotencyKey).
				Msg("failed to release idempotency key")
			return model.Transaction{}, errors.Join(err, relErr)
		}
		s.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("idempotency_key", idempotencyKey).
			Msg("released idempotency key after failed save")
		return model.Transaction{}, err
	}

	return tx, nil
}

// CreateTransactions records a batch of trades for one account. The batch is
// applied as a whole or not at all.
func (s *LedgerService) CreateTransactions(ctx context.Context, userID string, inputs []ledger.CreateTransactionInput) ([]model.Transaction, error) {
	var created []model.Transaction
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		if err := ledger.AssertIntegrity(draft); err != nil {
			return err
		}
		var err error
		created, err = ledger.CreateTransactions(draft, userID, inputs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListTransactions returns the user's transactions that match filter.
func (s *LedgerService) ListTransactions(ctx context.Context, userID string, filter ledger.TransactionFilter) ([]model.Transaction, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveTransaction, err)
	}
	return ledger.ListTransactions(l, userID, filter), nil
}

// ListHoldings returns the open positions of the user. An inconsistent ledger
// is reported as an integrity violation instead of a partial result.
func (s *LedgerService) ListHoldings(ctx context.Context, userID string) ([]model.HoldingsRow, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := ledger.AssertIntegrity(l); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveHoldings, err)
	}
	return ledger.ListHoldings(l, userID), nil
}

// ListCorporateActions returns the corporate action audit log of the user.
func (s *LedgerService) ListCorporateActions(ctx context.Context, userID string) ([]model.CorporateAction, error) {
	l, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	actions := make([]model.CorporateAction, 0, len(l.CorporateActions))
	return append(actions, l.CorporateActions...), nil
}

// ApplyCorporateAction records a dividend or applies a split to the user's lots.
func (s *LedgerService) ApplyCorporateAction(ctx context.Context, userID string, action model.CorporateAction) (model.CorporateAction, error) {
	var applied model.CorporateAction
	_, err := s.mutate(ctx, userID, func(draft *model.Ledger) error {
		if err := ledger.AssertIntegrity(draft); err != nil {
			return err
		}
		var err error
		applied, err = ledger.ApplyCorporateAction(draft, userID, action)
		return err
	})
	if err != nil {
		return model.CorporateAction{}, err
	}
	return applied, nil
}
