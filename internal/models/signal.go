package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation constants
const (
	RecommendationHold = "HOLD"
	RecommendationSell = "SELL"
)

// Signal is the evaluation result for one open position. Signals are
// recomputed on every report and never persisted. All fields are
// structured numerics; formatting belongs to the presentation layer.
type Signal struct {
	Position       *Position       `json:"position"`
	AsOf           time.Time       `json:"as_of"`
	StopPrice      decimal.Decimal `json:"stop_price"`
	CurrentClose   decimal.Decimal `json:"current_close"`
	MarketValue    decimal.Decimal `json:"market_value"`
	PLAmount       decimal.Decimal `json:"pl_amount"`
	ROIPct         decimal.Decimal `json:"roi_pct"`
	Recommendation string          `json:"recommendation"`
	Reason         string          `json:"reason"`
	Source         string          `json:"source,omitempty"`
}

// ClosedTrade is one realized-P&L record for a sold lot inside the
// trailing report window.
type ClosedTrade struct {
	LotID        string          `json:"lot_id"`
	Ticker       string          `json:"ticker"`
	Name         string          `json:"name,omitempty"`
	StrategyType string          `json:"strategy_type"`
	Shares       int64           `json:"shares"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	SellAmount   decimal.Decimal `json:"sell_amount"`
	SellDate     time.Time       `json:"sell_date"`
	PLAmount     decimal.Decimal `json:"pl_amount"`
	ROIPct       decimal.Decimal `json:"roi_pct"`
	Notes        string          `json:"notes,omitempty"`
}
