package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/models"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// yahooSuffixes are tried in order: listed market first, then OTC.
var yahooSuffixes = []string{".TW", ".TWO"}

// YahooProvider fetches daily OHLCV from the Yahoo Finance chart API.
// It is the fallback source when the exchange endpoint fails.
type YahooProvider struct {
	client  *http.Client
	baseURL string
}

// NewYahooProvider creates a provider against the public chart API.
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: yahooBaseURL,
	}
}

// NewYahooProviderWithBaseURL is for tests pointing at a fake server.
func NewYahooProviderWithBaseURL(baseURL string) *YahooProvider {
	p := NewYahooProvider()
	p.baseURL = baseURL
	return p
}

// Name implements Provider.
func (p *YahooProvider) Name() string {
	return "yahoo"
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetSeries implements Provider. Ticker suffixes are tried in order
// since the listing market is not known locally.
func (p *YahooProvider) GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error) {
	start := asOf.AddDate(0, 0, -twseLookbackDays)

	var lastErr error
	for _, suffix := range yahooSuffixes {
		series, err := p.fetch(ctx, ticker, ticker+suffix, start, asOf)
		if err != nil {
			lastErr = err
			continue
		}
		return series, nil
	}
	return nil, fmt.Errorf("yahoo fetch failed for %s: %w", ticker, lastErr)
}

func (p *YahooProvider) fetch(ctx context.Context, ticker, symbol string, start, end time.Time) (*models.PriceSeries, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		p.baseURL, symbol, start.Unix(), end.AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", "trend-tracker/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, symbol)
	}

	var payload yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo returned no data for %s", symbol)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	series := &models.PriceSeries{Ticker: ticker}
	for i, ts := range result.Timestamp {
		if quote.Close == nil || i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.PriceBar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: decimal.NewFromFloat(*quote.Close[i]),
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = decimal.NewFromFloat(*quote.Open[i])
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = decimal.NewFromFloat(*quote.High[i])
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = decimal.NewFromFloat(*quote.Low[i])
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		series.Bars = append(series.Bars, bar)
	}

	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("yahoo returned no usable bars for %s", symbol)
	}
	return series, nil
}
