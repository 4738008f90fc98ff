package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar represents one daily OHLCV bar.
type PriceBar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// PriceSeries is a daily price series for one ticker, ascending by date
// with no duplicate dates. All downstream computations rely on the order.
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Name   string     `json:"name,omitempty"`
	Source string     `json:"source,omitempty"`
	Bars   []PriceBar `json:"bars"`
}

// Through returns the sub-series of bars dated at or before asOf.
// The underlying bar slice is shared, not copied.
func (s *PriceSeries) Through(asOf time.Time) *PriceSeries {
	n := len(s.Bars)
	for n > 0 && s.Bars[n-1].Date.After(asOf) {
		n--
	}
	return &PriceSeries{Ticker: s.Ticker, Name: s.Name, Source: s.Source, Bars: s.Bars[:n]}
}

// Closes returns the closing prices in date order.
func (s *PriceSeries) Closes() []decimal.Decimal {
	closes := make([]decimal.Decimal, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar, or false if the series is empty.
func (s *PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// PriceHistoryRow is the persisted denormalized form of one daily bar,
// with the indicator columns the daily refresh job materializes.
type PriceHistoryRow struct {
	ID        int              `json:"id"`
	Ticker    string           `json:"ticker"`
	Date      time.Time        `json:"date"`
	Name      string           `json:"name,omitempty"`
	Open      decimal.Decimal  `json:"open"`
	High      decimal.Decimal  `json:"high"`
	Low       decimal.Decimal  `json:"low"`
	Close     decimal.Decimal  `json:"close"`
	Volume    int64            `json:"volume"`
	MA5       *decimal.Decimal `json:"ma5,omitempty"`
	MA10      *decimal.Decimal `json:"ma10,omitempty"`
	MA20      *decimal.Decimal `json:"ma20,omitempty"`
	MA60      *decimal.Decimal `json:"ma60,omitempty"`
	TwoDayLow *decimal.Decimal `json:"two_day_low,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}
