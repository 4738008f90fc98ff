package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// UpsertPriceHistory writes daily price rows in one transaction,
// idempotent on (ticker, date): re-running the daily refresh over the
// same range updates in place instead of duplicating rows.
func (db *DB) UpsertPriceHistory(rows []*models.PriceHistoryRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_history (
			ticker, date, name, open, high, low, close, volume,
			ma5, ma10, ma20, ma60, two_day_low, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (ticker, date) DO UPDATE SET
			name = EXCLUDED.name,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			ma5 = EXCLUDED.ma5,
			ma10 = EXCLUDED.ma10,
			ma20 = EXCLUDED.ma20,
			ma60 = EXCLUDED.ma60,
			two_day_low = EXCLUDED.two_day_low,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range rows {
		_, err := stmt.Exec(
			r.Ticker, r.Date, r.Name, r.Open, r.High, r.Low, r.Close, r.Volume,
			r.MA5, r.MA10, r.MA20, r.MA60, r.TwoDayLow, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert price row for %s: %w", r.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceHistory retrieves up to limit daily bars for a ticker dated at
// or before asOf, ascending by date.
func (db *DB) GetPriceHistory(ticker string, asOf time.Time, limit int) (*models.PriceSeries, error) {
	query := `
		SELECT date, name, open, high, low, close, volume
		FROM (
			SELECT date, name, open, high, low, close, volume
			FROM price_history
			WHERE ticker = $1 AND date <= $2
			ORDER BY date DESC
			LIMIT $3
		) recent
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, ticker, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	series := &models.PriceSeries{Ticker: ticker}
	for rows.Next() {
		var bar models.PriceBar
		var name sql.NullString
		err := rows.Scan(&bar.Date, &name, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		if name.Valid && series.Name == "" {
			series.Name = name.String
		}
		series.Bars = append(series.Bars, bar)
	}

	return series, nil
}

// TickerName returns the display name recorded for a ticker, taken from
// its most recent price history row. An empty string means no name is
// known; callers fall back to the ticker itself.
func (db *DB) TickerName(ticker string) (string, error) {
	query := `
		SELECT name FROM price_history
		WHERE ticker = $1 AND name <> ''
		ORDER BY date DESC
		LIMIT 1
	`
	var name string
	err := db.conn.QueryRow(query, ticker).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get ticker name: %w", err)
	}
	return name, nil
}

// LatestIndicators returns the MA and two-day-low columns of the most
// recent row for a ticker, for callers that want the materialized values
// without recomputing them.
func (db *DB) LatestIndicators(ticker string) (*models.PriceHistoryRow, error) {
	query := `
		SELECT id, ticker, date, name, open, high, low, close, volume,
		       ma5, ma10, ma20, ma60, two_day_low, updated_at
		FROM price_history
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1
	`
	var r models.PriceHistoryRow
	var name sql.NullString
	var ma5, ma10, ma20, ma60, twoDayLow sql.NullString

	err := db.conn.QueryRow(query, ticker).Scan(
		&r.ID, &r.Ticker, &r.Date, &name, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume,
		&ma5, &ma10, &ma20, &ma60, &twoDayLow, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no price history for %s", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest indicators: %w", err)
	}

	if name.Valid {
		r.Name = name.String
	}
	r.MA5 = nullDecimal(ma5)
	r.MA10 = nullDecimal(ma10)
	r.MA20 = nullDecimal(ma20)
	r.MA60 = nullDecimal(ma60)
	r.TwoDayLow = nullDecimal(twoDayLow)
	return &r, nil
}

func nullDecimal(v sql.NullString) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil
	}
	return &d
}
