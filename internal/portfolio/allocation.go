package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// SaleAllocation is one lot's share of an aggregate sale.
type SaleAllocation struct {
	LotID  string
	Shares int64
	// Amount is nil when no aggregate amount was given, or when the
	// named lots carry zero shares and no proportional split exists.
	Amount *decimal.Decimal
}

// AllocateSale splits one aggregate sell amount across the named lots in
// proportion to their share counts. The allocations sum exactly to the
// aggregate: every lot but the last gets its proportional slice, the last
// absorbs the remainder.
func AllocateSale(lots []models.Lot, sellAmount *decimal.Decimal) []SaleAllocation {
	allocations := make([]SaleAllocation, 0, len(lots))

	var totalShares int64
	for _, lot := range lots {
		totalShares += lot.Shares
	}

	if sellAmount == nil || totalShares == 0 {
		for _, lot := range lots {
			allocations = append(allocations, SaleAllocation{LotID: lot.ID, Shares: lot.Shares})
		}
		return allocations
	}

	totalDec := decimal.NewFromInt(totalShares)
	remaining := *sellAmount
	for i, lot := range lots {
		var amount decimal.Decimal
		if i == len(lots)-1 {
			amount = remaining
		} else {
			amount = sellAmount.Mul(decimal.NewFromInt(lot.Shares)).Div(totalDec)
			remaining = remaining.Sub(amount)
		}
		a := amount
		allocations = append(allocations, SaleAllocation{LotID: lot.ID, Shares: lot.Shares, Amount: &a})
	}
	return allocations
}
