package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clin-tw/trend-tracker/internal/indicators"
	"github.com/clin-tw/trend-tracker/internal/models"
)

// TickerSource lists the tickers whose history needs refreshing.
type TickerSource interface {
	ActiveTickers() ([]string, error)
}

// HistoryWriter persists refreshed price rows.
type HistoryWriter interface {
	UpsertPriceHistory(rows []*models.PriceHistoryRow) error
}

// RefreshPublisher announces completed refreshes. May be nil.
type RefreshPublisher interface {
	PublishPricesRefreshed(ctx context.Context, ticker string, bars int) error
}

// Updater is the daily batch job: fetch each active ticker's recent
// history from the remote providers, materialize the indicator columns,
// and upsert into the price-history table. One ticker failing never
// stops the others.
type Updater struct {
	tickers   TickerSource
	writer    HistoryWriter
	fetchers  []Provider
	publisher RefreshPublisher
	logger    *zap.Logger

	maxRetries  uint64
	tickerDelay time.Duration
}

// NewUpdater builds the refresh job. fetchers are tried in order per
// ticker; tickerDelay spaces successive tickers to stay under the
// upstream rate limits.
func NewUpdater(tickers TickerSource, writer HistoryWriter, fetchers []Provider, publisher RefreshPublisher, logger *zap.Logger, maxRetries int, tickerDelay time.Duration) *Updater {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Updater{
		tickers:     tickers,
		writer:      writer,
		fetchers:    fetchers,
		publisher:   publisher,
		logger:      logger,
		maxRetries:  uint64(maxRetries),
		tickerDelay: tickerDelay,
	}
}

// Run refreshes every active ticker's history through asOf. It returns
// an error only when the ticker list itself cannot be read; per-ticker
// failures are logged and counted.
func (u *Updater) Run(ctx context.Context, asOf time.Time) error {
	tickers, err := u.tickers.ActiveTickers()
	if err != nil {
		return fmt.Errorf("failed to list active tickers: %w", err)
	}
	u.logger.Info("refreshing price history", zap.Int("tickers", len(tickers)))

	var failures int
	for i, ticker := range tickers {
		if i > 0 && u.tickerDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(u.tickerDelay):
			}
		}

		if err := u.refreshTicker(ctx, ticker, asOf); err != nil {
			failures++
			u.logger.Error("ticker refresh failed",
				zap.String("ticker", ticker), zap.Error(err))
			continue
		}
	}

	u.logger.Info("price refresh finished",
		zap.Int("tickers", len(tickers)), zap.Int("failures", failures))
	return nil
}

func (u *Updater) refreshTicker(ctx context.Context, ticker string, asOf time.Time) error {
	series, err := u.fetchWithRetry(ctx, ticker, asOf)
	if err != nil {
		return err
	}

	rows := BuildHistoryRows(series)
	if err := u.writer.UpsertPriceHistory(rows); err != nil {
		return err
	}

	u.logger.Info("refreshed ticker",
		zap.String("ticker", ticker),
		zap.String("source", series.Source),
		zap.Int("bars", len(rows)))

	if u.publisher != nil {
		if err := u.publisher.PublishPricesRefreshed(ctx, ticker, len(rows)); err != nil {
			u.logger.Warn("failed to publish refresh event",
				zap.String("ticker", ticker), zap.Error(err))
		}
	}
	return nil
}

// fetchWithRetry walks the fetcher list under bounded exponential
// backoff. Every fetcher failing on an attempt triggers another round
// until the retries are used up.
func (u *Updater) fetchWithRetry(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error) {
	var series *models.PriceSeries

	operation := func() error {
		var lastErr error
		for _, f := range u.fetchers {
			s, err := f.GetSeries(ctx, ticker, asOf)
			if err != nil {
				lastErr = err
				continue
			}
			s.Source = f.Name()
			series = s
			return nil
		}
		return lastErr
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), u.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", ticker, err)
	}
	return series, nil
}

// BuildHistoryRows converts a series into persisted rows with the
// moving-average and two-day-low columns filled in. An indicator column
// stays empty until its full window is available, matching how the
// refreshed table has always been populated.
func BuildHistoryRows(series *models.PriceSeries) []*models.PriceHistoryRow {
	closes := series.Closes()
	lows := make([]decimal.Decimal, len(series.Bars))
	for i, b := range series.Bars {
		lows[i] = b.Low
	}

	rows := make([]*models.PriceHistoryRow, len(series.Bars))
	for i, bar := range series.Bars {
		row := &models.PriceHistoryRow{
			Ticker: series.Ticker,
			Date:   bar.Date,
			Name:   series.Name,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
		row.MA5 = windowSMA(closes[:i+1], 5)
		row.MA10 = windowSMA(closes[:i+1], 10)
		row.MA20 = windowSMA(closes[:i+1], 20)
		row.MA60 = windowSMA(closes[:i+1], 60)
		if i >= 1 {
			if min, ok := indicators.RollingMin(lows[:i+1], 2); ok {
				row.TwoDayLow = &min
			}
		}
		rows[i] = row
	}
	return rows
}

// windowSMA returns the n-period average or nil before the window fills.
func windowSMA(values []decimal.Decimal, n int) *decimal.Decimal {
	if len(values) < n {
		return nil
	}
	v := indicators.SMA(values, n)
	return &v
}
