// Package marketdata serves daily price series through an ordered chain
// of providers: the persisted history table first, then the exchange
// API, then the chart-API fallback. Which source answered is recorded on
// the series so a fallback is observable instead of silent.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// DefaultMinBars is the minimum series length a provider response must
// have to be usable by the strategy rules.
const DefaultMinBars = 20

// ErrExhausted means every provider in the chain failed or returned too
// little history for the ticker.
var ErrExhausted = errors.New("all price providers exhausted")

// Provider serves an ordered daily series ending at or before asOf.
type Provider interface {
	Name() string
	GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error)
}

// Chain tries providers in order and returns the first usable series,
// stamped with the name of the provider that served it.
type Chain struct {
	providers []Provider
	minBars   int
	logger    *zap.Logger
}

// NewChain builds a provider chain. minBars <= 0 uses DefaultMinBars.
func NewChain(logger *zap.Logger, minBars int, providers ...Provider) *Chain {
	if minBars <= 0 {
		minBars = DefaultMinBars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{providers: providers, minBars: minBars, logger: logger}
}

// GetSeries implements the portfolio.SeriesProvider contract.
func (c *Chain) GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error) {
	ticker = models.NormalizeTicker(ticker)

	for _, p := range c.providers {
		series, err := p.GetSeries(ctx, ticker, asOf)
		if err != nil {
			c.logger.Debug("provider failed",
				zap.String("provider", p.Name()),
				zap.String("ticker", ticker),
				zap.Error(err))
			continue
		}
		usable := series.Through(asOf)
		if len(usable.Bars) < c.minBars {
			c.logger.Debug("provider returned too little history",
				zap.String("provider", p.Name()),
				zap.String("ticker", ticker),
				zap.Int("bars", len(usable.Bars)))
			continue
		}
		usable.Source = p.Name()
		return usable, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrExhausted, ticker)
}
