package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// twseBaseURL is the exchange's daily quote endpoint host.
const twseBaseURL = "https://www.twse.com.tw"

// twseLookbackDays is how far back the provider fetches when asked for a
// series. 90 calendar days comfortably yields the 20 trading bars the
// strategies need.
const twseLookbackDays = 90

// TWSEProvider fetches daily OHLCV from the Taiwan Stock Exchange
// monthly report endpoint.
type TWSEProvider struct {
	client  *http.Client
	baseURL string
}

// NewTWSEProvider creates a provider against the public exchange API.
func NewTWSEProvider() *TWSEProvider {
	return &TWSEProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: twseBaseURL,
	}
}

// NewTWSEProviderWithBaseURL is for tests pointing at a fake server.
func NewTWSEProviderWithBaseURL(baseURL string) *TWSEProvider {
	p := NewTWSEProvider()
	p.baseURL = baseURL
	return p
}

// Name implements Provider.
func (p *TWSEProvider) Name() string {
	return "twse"
}

// twseResponse is the exchange's monthly report payload. Each data row is
// [ROC date, traded shares, turnover, open, high, low, close, change, transactions].
type twseResponse struct {
	Stat string     `json:"stat"`
	Data [][]string `json:"data"`
}

// GetSeries implements Provider. The endpoint is month-granular, so the
// lookback window is fetched month by month and filtered to asOf.
func (p *TWSEProvider) GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error) {
	start := asOf.AddDate(0, 0, -twseLookbackDays)
	series := &models.PriceSeries{Ticker: ticker}

	for month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !month.After(asOf); month = month.AddDate(0, 1, 0) {
		bars, err := p.fetchMonth(ctx, ticker, month)
		if err != nil {
			return nil, err
		}
		for _, bar := range bars {
			if bar.Date.Before(start) || bar.Date.After(asOf) {
				continue
			}
			series.Bars = append(series.Bars, bar)
		}
	}

	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("twse returned no data for %s", ticker)
	}
	return series, nil
}

func (p *TWSEProvider) fetchMonth(ctx context.Context, ticker string, month time.Time) ([]models.PriceBar, error) {
	endpoint := fmt.Sprintf("%s/exchangeReport/STOCK_DAY?response=json&date=%s&stockNo=%s",
		p.baseURL, month.Format("20060102"), url.QueryEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build twse request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twse returned status %d", resp.StatusCode)
	}

	var payload twseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode twse response: %w", err)
	}
	if payload.Stat != "OK" {
		// A month with no listings reports a non-OK stat; not an error.
		return nil, nil
	}

	var bars []models.PriceBar
	for _, row := range payload.Data {
		if len(row) < 7 {
			continue
		}
		bar, err := parseTWSERow(row)
		if err != nil {
			// Suspended days carry "--" placeholders; skip them.
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseTWSERow(row []string) (models.PriceBar, error) {
	date, err := parseROCDate(row[0])
	if err != nil {
		return models.PriceBar{}, err
	}

	open, err := parseTWSENumber(row[3])
	if err != nil {
		return models.PriceBar{}, err
	}
	high, err := parseTWSENumber(row[4])
	if err != nil {
		return models.PriceBar{}, err
	}
	low, err := parseTWSENumber(row[5])
	if err != nil {
		return models.PriceBar{}, err
	}
	closePrice, err := parseTWSENumber(row[6])
	if err != nil {
		return models.PriceBar{}, err
	}

	volume := int64(0)
	if v, err := parseTWSENumber(row[1]); err == nil {
		volume = v.IntPart()
	}

	return models.PriceBar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}

// parseROCDate converts a Republic-of-China calendar date like
// "114/01/27" to its Gregorian equivalent (2025-01-27).
func parseROCDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("malformed ROC date: %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed ROC year: %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed ROC month: %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed ROC day: %q", s)
	}
	return time.Date(year+1911, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// parseTWSENumber parses an exchange-formatted number, stripping
// thousands separators. "--" marks a value absent for the day.
func parseTWSENumber(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" {
		return decimal.Zero, fmt.Errorf("no value")
	}
	return decimal.NewFromString(s)
}
