package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// SeriesFetcher is the part of the chain the cache sits in front of.
type SeriesFetcher interface {
	GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error)
}

// CachedProvider wraps a fetcher with a redis TTL cache. The cache only
// saves redundant fetches during repeated report requests; it carries no
// correctness weight, so any redis failure falls through to the fetcher.
type CachedProvider struct {
	inner  SeriesFetcher
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps inner with a TTL cache. client may be nil, in
// which case caching is disabled and every call hits the fetcher.
func NewCachedProvider(inner SeriesFetcher, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{inner: inner, client: client, ttl: ttl, logger: logger}
}

// GetSeries implements the portfolio.SeriesProvider contract.
func (c *CachedProvider) GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error) {
	key := fmt.Sprintf("series:%s:%s", models.NormalizeTicker(ticker), asOf.Format("2006-01-02"))

	if c.client != nil {
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			var series models.PriceSeries
			if err := json.Unmarshal([]byte(raw), &series); err == nil {
				return &series, nil
			}
			c.logger.Warn("dropping unreadable cache entry", zap.String("key", key))
			c.client.Del(ctx, key)
		}
	}

	series, err := c.inner.GetSeries(ctx, ticker, asOf)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if raw, err := json.Marshal(series); err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("failed to cache price series", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return series, nil
}
