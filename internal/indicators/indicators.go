// Package indicators provides the rolling computations the strategy rules
// and the daily price refresh share. All math is decimal to match the
// money types used everywhere else.
package indicators

import "github.com/shopspring/decimal"

// SMA returns the simple moving average of the last n values. If fewer
// than n values are available the average covers what is there; an empty
// input or non-positive n yields zero.
func SMA(values []decimal.Decimal, n int) decimal.Decimal {
	if len(values) == 0 || n <= 0 {
		return decimal.Zero
	}
	if n > len(values) {
		n = len(values)
	}
	sum := decimal.Zero
	for _, v := range values[len(values)-n:] {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

// RollingMin returns the minimum of the last n values, and false if the
// input is empty or n is non-positive.
func RollingMin(values []decimal.Decimal, n int) (decimal.Decimal, bool) {
	if len(values) == 0 || n <= 0 {
		return decimal.Zero, false
	}
	if n > len(values) {
		n = len(values)
	}
	window := values[len(values)-n:]
	min := window[0]
	for _, v := range window[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return min, true
}

// PriorWindowMin returns the minimum of the n values immediately before
// the last value, excluding the last value itself. Used by the Add
// strategy stop: the two closes preceding the current bar.
func PriorWindowMin(values []decimal.Decimal, n int) (decimal.Decimal, bool) {
	if len(values) < 2 || n <= 0 {
		return decimal.Zero, false
	}
	return RollingMin(values[:len(values)-1], n)
}
