package ledger

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// ApplyCorporateAction records action in the audit log of l.
//
// Dividends are recorded only. Splits and reverse splits rescale the open
// quantity of every open lot of the account and symbol to
// floor(quantity * numerator / denominator). TotalCostNtd is kept as is, which
// changes the per-share cost of the lot; existing ledgers depend on this.
// The action is recorded even when no lot is open.
func ApplyCorporateAction(l *model.Ledger, userID string, action model.CorporateAction) (model.CorporateAction, error) {
	if _, ok := findUserAccount(l, userID, action.AccountID); !ok {
		return model.CorporateAction{}, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, action.AccountID)
	}
	if !action.ActionType.Valid() {
		return model.CorporateAction{}, fmt.Errorf("%w: unknown action type %q", apperrors.ErrValidation, action.ActionType)
	}

	action.ID = newID(action.ID)

	if action.ActionType == model.ActionDividend {
		l.CorporateActions = append(l.CorporateActions, action)
		return action, nil
	}

	if action.Numerator <= 0 || action.Denominator <= 0 {
		return model.CorporateAction{}, fmt.Errorf("%w: %d/%d", apperrors.ErrInvalidRatio, action.Numerator, action.Denominator)
	}

	numerator := decimal.NewFromInt(action.Numerator)
	denominator := decimal.NewFromInt(action.Denominator)
	scaled := make(map[int]int64)
	for i, lot := range l.Lots {
		if lot.AccountID != action.AccountID || lot.Symbol != action.Symbol || lot.OpenQuantity <= 0 {
			continue
		}
		quantity := decimal.NewFromInt(lot.OpenQuantity).Mul(numerator).Div(denominator)
		if quantity.GreaterThan(maxQuantity) {
			return model.CorporateAction{}, fmt.Errorf("%w: lot %s quantity overflows after %d/%d", apperrors.ErrValidation, lot.ID, action.Numerator, action.Denominator)
		}
		scaled[i] = ApplyRounding(quantity, model.RoundingFloor)
	}
	for i, quantity := range scaled {
		l.Lots[i].OpenQuantity = quantity
	}

	l.CorporateActions = append(l.CorporateActions, action)
	return action, nil
}
