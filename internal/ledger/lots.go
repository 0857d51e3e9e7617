package ledger

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
	"github.com/ndewijer/portfolio-ledger/internal/model"
)

// Allocation is the result of matching a sell against open lots.
type Allocation struct {
	// MatchedLotIDs lists consumed lots in consumption order.
	MatchedLotIDs []string
	// AllocatedCostNtd is the cost basis released by the sell.
	AllocatedCostNtd int64
	// UpdatedLots is the full input lot set with consumed lots replaced.
	UpdatedLots []model.Lot
}

// AllocateSellLots consumes open lots in cost-basis order until quantity is covered.
//
// FIFO orders by (OpenedAt, ID) ascending and LIFO by (OpenedAt, ID) descending,
// so lots opened on the same date are consumed in a reproducible order.
// Each consumed portion is priced at that lot's own average cost.
//
// The input slice is never modified. If the open lots cannot cover quantity the
// call fails with apperrors.ErrInsufficientQuantity and returns no allocation.
func AllocateSellLots(lots []model.Lot, quantity int64, method model.CostBasisMethod) (Allocation, error) {
	ordered := make([]model.Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.OpenQuantity > 0 {
			ordered = append(ordered, lot)
		}
	}
	slices.SortStableFunc(ordered, func(a, b model.Lot) int {
		c := cmp.Or(cmp.Compare(a.OpenedAt, b.OpenedAt), cmp.Compare(a.ID, b.ID))
		if method == model.LIFO {
			return -c
		}
		return c
	})

	remaining := quantity
	var allocatedCost int64
	matched := make([]string, 0)
	updates := make(map[string]model.Lot)

	for _, lot := range ordered {
		if remaining <= 0 {
			break
		}

		consumed := min(remaining, lot.OpenQuantity)
		portionCost := lotPortionCost(lot, consumed)

		allocatedCost += portionCost
		remaining -= consumed

		lot.OpenQuantity -= consumed
		lot.TotalCostNtd = max(0, lot.TotalCostNtd-portionCost)
		updates[lot.ID] = lot
		matched = append(matched, lot.ID)
	}

	if remaining > 0 {
		return Allocation{}, fmt.Errorf("%w: requested %d, short by %d", apperrors.ErrInsufficientQuantity, quantity, remaining)
	}

	updated := make([]model.Lot, len(lots))
	for i, lot := range lots {
		if u, ok := updates[lot.ID]; ok {
			updated[i] = u
			continue
		}
		updated[i] = lot
	}

	return Allocation{
		MatchedLotIDs:    matched,
		AllocatedCostNtd: allocatedCost,
		UpdatedLots:      updated,
	}, nil
}

// lotPortionCost prices consumed shares at the lot's average cost per share,
// rounded half up to a whole minor unit.
func lotPortionCost(lot model.Lot, consumed int64) int64 {
	cost := decimal.NewFromInt(lot.TotalCostNtd).
		Mul(decimal.NewFromInt(consumed)).
		Div(decimal.NewFromInt(lot.OpenQuantity))
	return roundHalfUp(cost)
}
