package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yahooPayload(timestamps []int64, closes []any) string {
	closeJSON := "["
	for i, c := range closes {
		if i > 0 {
			closeJSON += ","
		}
		if c == nil {
			closeJSON += "null"
		} else {
			closeJSON += fmt.Sprintf("%v", c)
		}
	}
	closeJSON += "]"

	tsJSON := "["
	for i, ts := range timestamps {
		if i > 0 {
			tsJSON += ","
		}
		tsJSON += fmt.Sprintf("%d", ts)
	}
	tsJSON += "]"

	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"symbol":"2330.TW"},
		"timestamp":%s,
		"indicators":{"quote":[{
			"open":%s,"high":%s,"low":%s,"close":%s,
			"volume":[1000,1000,1000]
		}]}
	}],"error":null}}`, tsJSON, closeJSON, closeJSON, closeJSON, closeJSON)
}

func TestYahooProviderGetSeries(t *testing.T) {
	asOf := time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)
	day := func(n int) int64 {
		return time.Date(2025, 1, 20+n, 9, 0, 0, 0, time.UTC).Unix()
	}

	t.Run("parses bars and skips null closes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v8/finance/chart/2330.TW", r.URL.Path)
			assert.NotEmpty(t, r.URL.Query().Get("period1"))
			fmt.Fprint(w, yahooPayload(
				[]int64{day(0), day(1), day(2)},
				[]any{580.5, nil, 585.0},
			))
		}))
		defer server.Close()

		provider := NewYahooProviderWithBaseURL(server.URL)

		series, err := provider.GetSeries(context.Background(), "2330", asOf)
		require.NoError(t, err)
		require.Len(t, series.Bars, 2)
		assert.True(t, decimal.NewFromFloat(580.5).Equal(series.Bars[0].Close))
		assert.True(t, decimal.NewFromFloat(585.0).Equal(series.Bars[1].Close))
		assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), series.Bars[0].Date)
	})

	t.Run("falls back to the OTC suffix", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v8/finance/chart/6488.TW" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			assert.Equal(t, "/v8/finance/chart/6488.TWO", r.URL.Path)
			fmt.Fprint(w, yahooPayload([]int64{day(0)}, []any{120.0}))
		}))
		defer server.Close()

		provider := NewYahooProviderWithBaseURL(server.URL)

		series, err := provider.GetSeries(context.Background(), "6488", asOf)
		require.NoError(t, err)
		require.Len(t, series.Bars, 1)
	})

	t.Run("both suffixes failing is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		provider := NewYahooProviderWithBaseURL(server.URL)

		_, err := provider.GetSeries(context.Background(), "9999", asOf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "yahoo fetch failed")
	})
}
