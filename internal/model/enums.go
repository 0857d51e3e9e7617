package model

// RoundingMode selects how a fractional currency amount becomes an integer.
type RoundingMode string

const (
	RoundingFloor RoundingMode = "FLOOR"
	RoundingRound RoundingMode = "ROUND"
	RoundingCeil  RoundingMode = "CEIL"
)

// Valid reports whether m is a known rounding mode.
func (m RoundingMode) Valid() bool {
	switch m {
	case RoundingFloor, RoundingRound, RoundingCeil:
		return true
	}
	return false
}

// InstrumentType classifies a symbol for sell-side tax selection.
type InstrumentType string

const (
	InstrumentStock   InstrumentType = "STOCK"
	InstrumentETF     InstrumentType = "ETF"
	InstrumentBondETF InstrumentType = "BOND_ETF"
)

func (t InstrumentType) Valid() bool {
	switch t {
	case InstrumentStock, InstrumentETF, InstrumentBondETF:
		return true
	}
	return false
}

// TransactionType is the side of a trade.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

func (t TransactionType) Valid() bool {
	return t == TransactionBuy || t == TransactionSell
}

// CostBasisMethod defines the order in which open lots are consumed by a sell.
type CostBasisMethod string

const (
	// FIFO (First-In, First-Out) consumes the oldest lots first.
	FIFO CostBasisMethod = "FIFO"
	// LIFO (Last-In, First-Out) consumes the newest lots first.
	LIFO CostBasisMethod = "LIFO"
)

func (m CostBasisMethod) Valid() bool {
	return m == FIFO || m == LIFO
}

// CorporateActionType is the kind of corporate action recorded against a symbol.
type CorporateActionType string

const (
	ActionDividend     CorporateActionType = "DIVIDEND"
	ActionSplit        CorporateActionType = "SPLIT"
	ActionReverseSplit CorporateActionType = "REVERSE_SPLIT"
)

func (t CorporateActionType) Valid() bool {
	switch t {
	case ActionDividend, ActionSplit, ActionReverseSplit:
		return true
	}
	return false
}

// RecomputeStatus is the state of a recompute job.
// A job is created PREVIEWED and moves once to CONFIRMED.
type RecomputeStatus string

const (
	RecomputePreviewed RecomputeStatus = "PREVIEWED"
	RecomputeConfirmed RecomputeStatus = "CONFIRMED"
)

// Locale is the user's display language.
type Locale string

const (
	LocaleEN   Locale = "en"
	LocaleZhTW Locale = "zh-TW"
)

func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleZhTW
}
