package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Strategy types. Basic positions trail the 20-day moving average; Add
// positions trail the low of the two closes before the current bar.
const (
	StrategyBasic = "Basic"
	StrategyAdd   = "Add"
)

// ValidStrategy reports whether s is a known strategy type.
func ValidStrategy(s string) bool {
	return s == StrategyBasic || s == StrategyAdd
}

// Lot represents one recorded purchase of a ticker. Lots are never
// deleted; selling flips is_sold and records the proceeds.
type Lot struct {
	ID           string           `json:"id"`
	Ticker       string           `json:"ticker"`
	EntryDate    time.Time        `json:"entry_date"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	Shares       int64            `json:"shares"`
	StrategyType string           `json:"strategy_type"`
	IsSold       bool             `json:"is_sold"`
	Notes        string           `json:"notes,omitempty"`
	SellAmount   *decimal.Decimal `json:"sell_amount,omitempty"`
	SellDate     *time.Time       `json:"sell_date,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NormalizeTicker uppercases a ticker and strips any Taiwan exchange
// suffix, so "2330.tw" and "2330" key the same position.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.TrimSuffix(t, ".TWO")
	t = strings.TrimSuffix(t, ".TW")
	return t
}

// NewLotID builds a lot id from the ticker, the entry date and the
// creation time, e.g. "2330_2026-01-05_20260105093012".
func NewLotID(ticker string, entryDate, createdAt time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		NormalizeTicker(ticker),
		entryDate.Format("2006-01-02"),
		createdAt.Format("20060102150405"))
}

// Validate checks the fields every stored lot must have.
func (l *Lot) Validate() error {
	if l.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if l.Shares <= 0 {
		return fmt.Errorf("shares must be positive, got %d", l.Shares)
	}
	if !l.TotalCost.IsPositive() {
		return fmt.Errorf("total cost must be positive, got %s", l.TotalCost)
	}
	if !ValidStrategy(l.StrategyType) {
		return fmt.Errorf("unknown strategy type: %s", l.StrategyType)
	}
	return nil
}
