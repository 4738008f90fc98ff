package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionKey identifies an aggregated position. Basic and Add lots of the
// same ticker follow different exit rules, so strategy is part of the key.
type PositionKey struct {
	Ticker       string `json:"ticker"`
	StrategyType string `json:"strategy_type"`
}

// Position is the in-memory aggregation of all open lots sharing a
// (ticker, strategy) pair. It is derived on every report and never stored.
type Position struct {
	Ticker         string          `json:"ticker"`
	Name           string          `json:"name,omitempty"`
	StrategyType   string          `json:"strategy_type"`
	TotalShares    int64           `json:"total_shares"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	FirstEntryDate time.Time       `json:"first_entry_date"`
	EntryDays      int             `json:"entry_days"`
	Notes          string          `json:"notes,omitempty"`
	LotIDs         []string        `json:"lot_ids"`
}

// Key returns the grouping key for the position.
func (p *Position) Key() PositionKey {
	return PositionKey{Ticker: p.Ticker, StrategyType: p.StrategyType}
}
