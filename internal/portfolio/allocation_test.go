package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clin-tw/trend-tracker/internal/models"
)

func TestAllocateSale(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	t.Run("splits proportionally by share count", func(t *testing.T) {
		lots := []models.Lot{
			lot("a", "2330", models.StrategyBasic, day, 100, "50000"),
			lot("b", "2330", models.StrategyBasic, day, 300, "150000"),
		}
		amount := decimal.RequireFromString("4000")

		allocations := AllocateSale(lots, &amount)
		require.Len(t, allocations, 2)
		require.NotNil(t, allocations[0].Amount)
		require.NotNil(t, allocations[1].Amount)
		assert.True(t, decimal.RequireFromString("1000").Equal(*allocations[0].Amount), "got %s", allocations[0].Amount)
		assert.True(t, decimal.RequireFromString("3000").Equal(*allocations[1].Amount), "got %s", allocations[1].Amount)
	})

	t.Run("allocations sum exactly to the aggregate", func(t *testing.T) {
		// 1/3 splits do not terminate in decimal; the last lot absorbs
		// the rounding remainder.
		lots := []models.Lot{
			lot("a", "2330", models.StrategyBasic, day, 1, "100"),
			lot("b", "2330", models.StrategyBasic, day, 1, "100"),
			lot("c", "2330", models.StrategyBasic, day, 1, "100"),
		}
		amount := decimal.RequireFromString("100")

		allocations := AllocateSale(lots, &amount)
		require.Len(t, allocations, 3)

		sum := decimal.Zero
		for _, a := range allocations {
			require.NotNil(t, a.Amount)
			sum = sum.Add(*a.Amount)
		}
		assert.True(t, amount.Equal(sum), "sum %s", sum)
	})

	t.Run("nil amount yields allocations without amounts", func(t *testing.T) {
		lots := []models.Lot{
			lot("a", "2330", models.StrategyBasic, day, 100, "50000"),
		}

		allocations := AllocateSale(lots, nil)
		require.Len(t, allocations, 1)
		assert.Equal(t, "a", allocations[0].LotID)
		assert.Nil(t, allocations[0].Amount)
	})
}
