package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tolerant parsers for values arriving from spreadsheets and external
// event payloads, where numbers carry thousands separators and booleans
// come in several spellings.

// ParseBool interprets the usual spreadsheet spellings of a boolean and
// falls back to def for anything unrecognized.
func ParseBool(value string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "t", "yes", "y", "1":
		return true
	case "false", "f", "no", "n", "0":
		return false
	default:
		return def
	}
}

// ParseShares parses a share count, tolerating commas and surrounding
// whitespace.
func ParseShares(value string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid share count %q: %w", value, err)
	}
	return n, nil
}

// ParseAmount parses a monetary amount, tolerating commas and
// surrounding whitespace.
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD date, returning the zero time when the
// value does not parse.
func ParseDate(value string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}
