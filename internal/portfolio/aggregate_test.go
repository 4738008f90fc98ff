package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clin-tw/trend-tracker/internal/models"
)

func lot(id, ticker, strategy string, entryDate time.Time, shares int64, cost string) models.Lot {
	return models.Lot{
		ID:           id,
		Ticker:       ticker,
		EntryDate:    entryDate,
		TotalCost:    decimal.RequireFromString(cost),
		Shares:       shares,
		StrategyType: strategy,
	}
}

func TestAggregate(t *testing.T) {
	day1 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	t.Run("sums shares and cost per ticker and strategy", func(t *testing.T) {
		lots := []models.Lot{
			lot("a", "2330", models.StrategyBasic, day1, 1000, "580000"),
			lot("b", "2330", models.StrategyBasic, day2, 500, "300000"),
			lot("c", "2330", models.StrategyAdd, day2, 200, "120000"),
			lot("d", "2454", models.StrategyBasic, day1, 100, "120000"),
		}

		positions := Aggregate(lots)
		require.Len(t, positions, 3)

		basic := positions[models.PositionKey{Ticker: "2330", StrategyType: models.StrategyBasic}]
		require.NotNil(t, basic)
		assert.Equal(t, int64(1500), basic.TotalShares)
		assert.True(t, decimal.RequireFromString("880000").Equal(basic.TotalCost))
		assert.Equal(t, []string{"a", "b"}, basic.LotIDs)
		assert.Equal(t, day1, basic.FirstEntryDate)
		assert.Equal(t, 2, basic.EntryDays)

		add := positions[models.PositionKey{Ticker: "2330", StrategyType: models.StrategyAdd}]
		require.NotNil(t, add)
		assert.Equal(t, int64(200), add.TotalShares)
	})

	t.Run("skips sold lots", func(t *testing.T) {
		sold := lot("a", "2330", models.StrategyBasic, day1, 1000, "580000")
		sold.IsSold = true
		lots := []models.Lot{
			sold,
			lot("b", "2330", models.StrategyBasic, day2, 500, "300000"),
		}

		positions := Aggregate(lots)
		require.Len(t, positions, 1)
		pos := positions[models.PositionKey{Ticker: "2330", StrategyType: models.StrategyBasic}]
		assert.Equal(t, int64(500), pos.TotalShares)
		assert.Equal(t, []string{"b"}, pos.LotIDs)
	})

	t.Run("same-day lots count one entry day", func(t *testing.T) {
		lots := []models.Lot{
			lot("a", "2330", models.StrategyBasic, day1, 1000, "580000"),
			lot("b", "2330", models.StrategyBasic, day1, 500, "290000"),
		}

		positions := Aggregate(lots)
		pos := positions[models.PositionKey{Ticker: "2330", StrategyType: models.StrategyBasic}]
		assert.Equal(t, 1, pos.EntryDays)
	})

	t.Run("merges notes without duplicates", func(t *testing.T) {
		a := lot("a", "2330", models.StrategyBasic, day1, 100, "58000")
		a.Notes = "breakout"
		b := lot("b", "2330", models.StrategyBasic, day2, 100, "59000")
		b.Notes = "breakout"
		c := lot("c", "2330", models.StrategyBasic, day2, 100, "59000")
		c.Notes = "added on dip"

		positions := Aggregate([]models.Lot{a, b, c})
		pos := positions[models.PositionKey{Ticker: "2330", StrategyType: models.StrategyBasic}]
		assert.Equal(t, "breakout; added on dip", pos.Notes)
	})

	t.Run("empty input yields empty map", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil))
	})

	t.Run("is deterministic over the same input", func(t *testing.T) {
		lots := []models.Lot{
			lot("a", "2330", models.StrategyBasic, day1, 1000, "580000"),
			lot("b", "2454", models.StrategyAdd, day2, 500, "600000"),
		}
		first := Aggregate(lots)
		second := Aggregate(lots)
		assert.Equal(t, first, second)
	})
}
