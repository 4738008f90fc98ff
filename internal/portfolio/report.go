package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// HoldingsReport is the unrealized-P&L view over all evaluated positions.
type HoldingsReport struct {
	AsOf           time.Time        `json:"as_of"`
	Signals        []*models.Signal `json:"signals"`
	TotalPositions int              `json:"total_positions"`
	SellSignals    int              `json:"sell_signals"`
	UnrealizedPnl  decimal.Decimal  `json:"unrealized_pnl"`
	Skipped        []string         `json:"skipped,omitempty"`
}

// Summarize folds the evaluated signals into a holdings report. It is a
// pure fold: per-position figures pass through, only totals are added.
func Summarize(asOf time.Time, signals []*models.Signal) *HoldingsReport {
	report := &HoldingsReport{
		AsOf:           asOf,
		Signals:        signals,
		TotalPositions: len(signals),
		UnrealizedPnl:  decimal.Zero,
	}
	for _, s := range signals {
		report.UnrealizedPnl = report.UnrealizedPnl.Add(s.PLAmount)
		if s.Recommendation == models.RecommendationSell {
			report.SellSignals++
		}
	}
	return report
}

// RealizedReport is the recent realized-P&L view over closed lots.
type RealizedReport struct {
	WindowDays  int                   `json:"window_days"`
	Trades      []*models.ClosedTrade `json:"trades"`
	RealizedPnl decimal.Decimal       `json:"realized_pnl"`
}

// RecentPnL reports realized P&L for lots sold within the trailing
// window, inclusive of the boundary day. A sale recorded without an
// amount contributes zero P&L; that is a placeholder, not an error.
// Output is sorted by sell date descending, stable over input order.
func RecentPnL(lots []models.Lot, windowDays int, now time.Time) *RealizedReport {
	cutoff := now.AddDate(0, 0, -windowDays)
	cutoffDay := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)

	report := &RealizedReport{WindowDays: windowDays, RealizedPnl: decimal.Zero}
	for _, lot := range lots {
		if !lot.IsSold || lot.SellDate == nil || lot.SellDate.Before(cutoffDay) {
			continue
		}

		trade := &models.ClosedTrade{
			LotID:        lot.ID,
			Ticker:       lot.Ticker,
			StrategyType: lot.StrategyType,
			Shares:       lot.Shares,
			TotalCost:    lot.TotalCost,
			SellDate:     *lot.SellDate,
			Notes:        lot.Notes,
			PLAmount:     decimal.Zero,
			ROIPct:       decimal.Zero,
		}
		if lot.SellAmount != nil && lot.SellAmount.IsPositive() {
			trade.SellAmount = *lot.SellAmount
			trade.PLAmount = trade.SellAmount.Sub(lot.TotalCost)
			if !lot.TotalCost.IsZero() {
				trade.ROIPct = trade.PLAmount.Div(lot.TotalCost).Mul(decimal.NewFromInt(100))
			}
		}
		report.Trades = append(report.Trades, trade)
		report.RealizedPnl = report.RealizedPnl.Add(trade.PLAmount)
	}

	sort.SliceStable(report.Trades, func(i, j int) bool {
		return report.Trades[i].SellDate.After(report.Trades[j].SellDate)
	})
	return report
}
