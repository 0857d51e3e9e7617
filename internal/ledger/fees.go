// Package ledger implements the portfolio ledger engine: fee and tax
// calculation, lot allocation, transaction creation, corporate actions,
// fee recomputation and ledger integrity checks.
//
// Every function works on an in-memory *model.Ledger and performs no I/O.
// Functions that mutate a ledger either succeed completely or return an error
// and leave the ledger untouched.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-ledger/internal/model"
)

const bpsDenominator = 10_000

var (
	half       = decimal.New(5, -1)
	bpsDivisor = decimal.NewFromInt(bpsDenominator)
)

// FeeResult is the commission and tax of a trade in currency minor units.
type FeeResult struct {
	CommissionNtd int64 `json:"commissionNtd"`
	TaxNtd        int64 `json:"taxNtd"`
}

// SellFeeInput describes the sell-side trade attributes that select a tax rate.
type SellFeeInput struct {
	TradeValueNtd  int64
	InstrumentType model.InstrumentType
	IsDayTrade     bool
}

// ApplyRounding converts value to an integer using mode.
// ROUND rounds halves toward positive infinity.
func ApplyRounding(value decimal.Decimal, mode model.RoundingMode) int64 {
	switch mode {
	case model.RoundingFloor:
		return value.Floor().IntPart()
	case model.RoundingCeil:
		return value.Ceil().IntPart()
	default:
		return roundHalfUp(value)
	}
}

func roundHalfUp(value decimal.Decimal) int64 {
	return value.Add(half).Floor().IntPart()
}

// BpsAmount returns baseNtd * bps / 10000 without rounding.
func BpsAmount(baseNtd, bps int64) decimal.Decimal {
	return decimal.NewFromInt(baseNtd).Mul(decimal.NewFromInt(bps)).Div(bpsDivisor)
}

// effectiveCommissionRateBps truncates the discounted rate to whole basis points
// before it is applied to the trade value.
func effectiveCommissionRateBps(profile model.FeeProfile) int64 {
	return profile.CommissionRateBps * profile.CommissionDiscountBps / bpsDenominator
}

// CalculateBuyFees computes the commission of a buy. Buys are never taxed.
func CalculateBuyFees(profile model.FeeProfile, tradeValueNtd int64) FeeResult {
	raw := BpsAmount(tradeValueNtd, effectiveCommissionRateBps(profile))
	commission := ApplyRounding(raw, profile.CommissionRoundingMode)

	return FeeResult{
		CommissionNtd: max(profile.MinCommissionNtd, commission),
		TaxNtd:        0,
	}
}

// CalculateSellFees computes commission and transaction tax of a sell.
func CalculateSellFees(profile model.FeeProfile, in SellFeeInput) FeeResult {
	buyLike := CalculateBuyFees(profile, in.TradeValueNtd)
	rawTax := BpsAmount(in.TradeValueNtd, sellTaxRateBps(profile, in.InstrumentType, in.IsDayTrade))

	return FeeResult{
		CommissionNtd: buyLike.CommissionNtd,
		TaxNtd:        ApplyRounding(rawTax, profile.TaxRoundingMode),
	}
}

// CalculateFees dispatches to the buy or sell calculation for a trade.
func CalculateFees(profile model.FeeProfile, txType model.TransactionType, in SellFeeInput) FeeResult {
	if txType == model.TransactionBuy {
		return CalculateBuyFees(profile, in.TradeValueNtd)
	}
	return CalculateSellFees(profile, in)
}

func sellTaxRateBps(profile model.FeeProfile, instrumentType model.InstrumentType, isDayTrade bool) int64 {
	switch instrumentType {
	case model.InstrumentStock:
		if isDayTrade {
			return profile.StockDayTradeTaxRateBps
		}
		return profile.StockSellTaxRateBps
	case model.InstrumentETF:
		return profile.EtfSellTaxRateBps
	default:
		return profile.BondEtfSellTaxRateBps
	}
}
