package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// seriesFromCloses builds a daily series ending the day before asOfDay,
// one bar per close in order.
func seriesFromCloses(ticker string, start time.Time, closes []float64) *models.PriceSeries {
	series := &models.PriceSeries{Ticker: ticker}
	for i, c := range closes {
		d := decimal.NewFromFloat(c)
		series.Bars = append(series.Bars, models.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   d,
			High:   d,
			Low:    d,
			Close:  d,
			Volume: 1000,
		})
	}
	return series
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func basicPosition(shares int64, cost string) *models.Position {
	return &models.Position{
		Ticker:       "2330",
		StrategyType: models.StrategyBasic,
		TotalShares:  shares,
		TotalCost:    decimal.RequireFromString(cost),
	}
}

func TestEvaluate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	asOf := start.AddDate(0, 0, 60)

	t.Run("basic strategy sells below MA20", func(t *testing.T) {
		// Nineteen closes at 10 and a final close at 5: MA20 is 9.75,
		// the close is under it.
		closes := append(repeat(10, 19), 5)
		series := seriesFromCloses("2330", start, closes)

		signal, err := Evaluate(basicPosition(1000, "10000"), series, asOf)
		require.NoError(t, err)
		assert.Equal(t, models.RecommendationSell, signal.Recommendation)
		assert.True(t, decimal.RequireFromString("9.75").Equal(signal.StopPrice), "stop %s", signal.StopPrice)
		assert.Contains(t, signal.Reason, "below MA20")
	})

	t.Run("basic strategy holds at or above MA20", func(t *testing.T) {
		series := seriesFromCloses("2330", start, repeat(10, 20))

		signal, err := Evaluate(basicPosition(1000, "10000"), series, asOf)
		require.NoError(t, err)
		assert.Equal(t, models.RecommendationHold, signal.Recommendation)
		assert.Contains(t, signal.Reason, "above MA20")
	})

	t.Run("add strategy sells below two-day low", func(t *testing.T) {
		// Prior two closes 8 and 9, current close 7: stop is 8.
		closes := append(repeat(10, 18), 8, 9, 7)
		series := seriesFromCloses("2330", start, closes)

		pos := basicPosition(1000, "10000")
		pos.StrategyType = models.StrategyAdd

		signal, err := Evaluate(pos, series, asOf)
		require.NoError(t, err)
		assert.Equal(t, models.RecommendationSell, signal.Recommendation)
		assert.True(t, decimal.NewFromInt(8).Equal(signal.StopPrice), "stop %s", signal.StopPrice)
		assert.Contains(t, signal.Reason, "two-day low")
	})

	t.Run("add strategy holds above two-day low", func(t *testing.T) {
		closes := append(repeat(10, 18), 8, 9, 10)
		series := seriesFromCloses("2330", start, closes)

		pos := basicPosition(1000, "10000")
		pos.StrategyType = models.StrategyAdd

		signal, err := Evaluate(pos, series, asOf)
		require.NoError(t, err)
		assert.Equal(t, models.RecommendationHold, signal.Recommendation)
	})

	t.Run("add strategy stop ignores the current close", func(t *testing.T) {
		// The current bar is the lowest close; the stop still comes from
		// the two bars before it, so this is a sell, not a self-lowered hold.
		closes := append(repeat(10, 18), 9, 8, 7)
		series := seriesFromCloses("2330", start, closes)

		pos := basicPosition(1000, "10000")
		pos.StrategyType = models.StrategyAdd

		signal, err := Evaluate(pos, series, asOf)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(8).Equal(signal.StopPrice), "stop %s", signal.StopPrice)
		assert.Equal(t, models.RecommendationSell, signal.Recommendation)
	})

	t.Run("nineteen bars is insufficient history", func(t *testing.T) {
		series := seriesFromCloses("2330", start, repeat(10, 19))

		_, err := Evaluate(basicPosition(1000, "10000"), series, asOf)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientHistory))
	})

	t.Run("twenty bars is enough", func(t *testing.T) {
		series := seriesFromCloses("2330", start, repeat(10, 20))

		_, err := Evaluate(basicPosition(1000, "10000"), series, asOf)
		require.NoError(t, err)
	})

	t.Run("bars after the analysis date are excluded", func(t *testing.T) {
		// 25 bars total, but only 20 fall at or before asOf; the later
		// crash must not leak into the evaluation.
		closes := append(repeat(10, 20), 1, 1, 1, 1, 1)
		series := seriesFromCloses("2330", start, closes)
		cutoff := start.AddDate(0, 0, 19)

		signal, err := Evaluate(basicPosition(1000, "10000"), series, cutoff)
		require.NoError(t, err)
		assert.Equal(t, cutoff, signal.AsOf)
		assert.True(t, decimal.NewFromInt(10).Equal(signal.CurrentClose))
		assert.Equal(t, models.RecommendationHold, signal.Recommendation)
	})

	t.Run("computes market value and P&L", func(t *testing.T) {
		series := seriesFromCloses("2330", start, repeat(12, 20))

		signal, err := Evaluate(basicPosition(1000, "10000"), series, asOf)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(12000).Equal(signal.MarketValue), "market value %s", signal.MarketValue)
		assert.True(t, decimal.NewFromInt(2000).Equal(signal.PLAmount), "pl %s", signal.PLAmount)
		assert.True(t, decimal.NewFromInt(20).Equal(signal.ROIPct), "roi %s", signal.ROIPct)
	})

	t.Run("zero cost yields zero ROI", func(t *testing.T) {
		series := seriesFromCloses("2330", start, repeat(12, 20))
		pos := &models.Position{
			Ticker:       "2330",
			StrategyType: models.StrategyBasic,
			TotalShares:  1000,
		}

		signal, err := Evaluate(pos, series, asOf)
		require.NoError(t, err)
		assert.True(t, signal.ROIPct.IsZero())
	})
}
