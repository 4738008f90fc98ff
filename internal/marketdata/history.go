package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// historyWindow caps how many persisted bars a series read pulls back.
// Three months of trading days covers the longest stop window in use.
const historyWindow = 90

// HistoryStore reads the persisted price-history table.
type HistoryStore interface {
	GetPriceHistory(ticker string, asOf time.Time, limit int) (*models.PriceSeries, error)
}

// HistoryProvider serves series from the persisted price-history table,
// the primary source refreshed by the daily batch job.
type HistoryProvider struct {
	store HistoryStore
}

// NewHistoryProvider creates a provider backed by the given store.
func NewHistoryProvider(store HistoryStore) *HistoryProvider {
	return &HistoryProvider{store: store}
}

// Name implements Provider.
func (p *HistoryProvider) Name() string {
	return "history"
}

// GetSeries implements Provider.
func (p *HistoryProvider) GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error) {
	series, err := p.store.GetPriceHistory(ticker, asOf, historyWindow)
	if err != nil {
		return nil, err
	}
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("no persisted history for %s", ticker)
	}
	return series, nil
}
