package models

import "time"

// Event type constants
const (
	EventLotAdded        = "LOT_ADDED"
	EventLotsSold        = "LOTS_SOLD"
	EventLotRecorded     = "LOT_RECORDED"
	EventPricesRefreshed = "PRICES_REFRESHED"
)

// LotEvent is the Kafka envelope for lot lifecycle changes. LOT_RECORDED
// events arrive from the external trade recorder with stringly-typed
// fields; the consumer converts them through the tolerant parsers.
type LotEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	Source    string        `json:"source,omitempty"`
	Ticker    string        `json:"ticker"`
	Lot       *Lot          `json:"lot,omitempty"`
	LotIDs    []string      `json:"lot_ids,omitempty"`
	Data      *LotEventData `json:"data,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// LotEventData carries the raw recorder payload for LOT_RECORDED events.
type LotEventData struct {
	LotID        string `json:"lot_id"`
	Ticker       string `json:"ticker"`
	EntryDate    string `json:"entry_date"`
	TotalCost    string `json:"total_cost"`
	Shares       string `json:"shares"`
	StrategyType string `json:"strategy_type"`
	IsSold       string `json:"is_sold,omitempty"`
	SellAmount   string `json:"sell_amount,omitempty"`
	SellDate     string `json:"sell_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// PriceEvent announces that a ticker's persisted price history was
// refreshed by the daily batch job.
type PriceEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Ticker    string    `json:"ticker"`
	Bars      int       `json:"bars"`
	Timestamp time.Time `json:"timestamp"`
}
