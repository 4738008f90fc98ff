package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/indicators"
	"github.com/clin-tw/trend-tracker/internal/models"
)

// MinBars is the minimum price history required to evaluate a position.
// The MA20 stop needs a full window; positions with less history are
// excluded from the report rather than evaluated on thin data.
const MinBars = 20

// maPeriod is the Basic strategy moving-average window.
const maPeriod = 20

// lookbackDays is the Add strategy stop window: the closes of the two
// bars preceding the current one.
const lookbackDays = 2

// ErrInsufficientHistory marks a position that cannot be evaluated
// because fewer than MinBars bars exist at or before the analysis date.
// Callers skip the position and log it apart from fetch failures.
var ErrInsufficientHistory = errors.New("insufficient price history")

// Evaluate classifies one position against its price series as of the
// given date, returning the stop price, P&L and a HOLD/SELL
// recommendation.
func Evaluate(pos *models.Position, series *models.PriceSeries, asOf time.Time) (*models.Signal, error) {
	filtered := series.Through(asOf)
	if len(filtered.Bars) < MinBars {
		return nil, fmt.Errorf("%w: %s has %d bars through %s, need %d",
			ErrInsufficientHistory, pos.Ticker, len(filtered.Bars), asOf.Format("2006-01-02"), MinBars)
	}

	last, _ := filtered.Last()
	closes := filtered.Closes()
	currentClose := last.Close

	marketValue := currentClose.Mul(decimal.NewFromInt(pos.TotalShares))
	plAmount := marketValue.Sub(pos.TotalCost)
	roiPct := decimal.Zero
	if !pos.TotalCost.IsZero() {
		roiPct = plAmount.Div(pos.TotalCost).Mul(decimal.NewFromInt(100))
	}

	var stopPrice decimal.Decimal
	var reason string
	recommendation := models.RecommendationHold

	switch pos.StrategyType {
	case models.StrategyAdd:
		// Stop at the lower of the two closes preceding the current bar.
		stop, ok := indicators.PriorWindowMin(closes, lookbackDays)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no prior bars for two-day low", ErrInsufficientHistory, pos.Ticker)
		}
		stopPrice = stop
		if currentClose.LessThan(stopPrice) {
			recommendation = models.RecommendationSell
			reason = fmt.Sprintf("closed below two-day low (%s)", stopPrice.StringFixed(2))
		} else {
			reason = fmt.Sprintf("holding above two-day low (%s)", stopPrice.StringFixed(2))
		}
	default:
		// Basic strategy: stop at the 20-day moving average.
		stopPrice = indicators.SMA(closes, maPeriod)
		if currentClose.LessThan(stopPrice) {
			recommendation = models.RecommendationSell
			reason = fmt.Sprintf("closed below MA20 (%s)", stopPrice.StringFixed(2))
		} else {
			reason = fmt.Sprintf("holding above MA20 (%s)", stopPrice.StringFixed(2))
		}
	}

	return &models.Signal{
		Position:       pos,
		AsOf:           last.Date,
		StopPrice:      stopPrice,
		CurrentClose:   currentClose,
		MarketValue:    marketValue,
		PLAmount:       plAmount,
		ROIPct:         roiPct,
		Recommendation: recommendation,
		Reason:         reason,
	}, nil
}
