package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/models"
	"github.com/clin-tw/trend-tracker/internal/portfolio"
)

// CreateLot inserts a new lot record.
func (db *DB) CreateLot(l *models.Lot) error {
	query := `
		INSERT INTO lots (
			id, ticker, entry_date, total_cost, shares, strategy_type,
			is_sold, notes, sell_amount, sell_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	now := time.Now()
	_, err := db.conn.Exec(query,
		l.ID, l.Ticker, l.EntryDate, l.TotalCost, l.Shares, l.StrategyType,
		l.IsSold, l.Notes, l.SellAmount, l.SellDate, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create lot: %w", err)
	}
	l.CreatedAt = now
	return nil
}

// ListLots retrieves all lot records, oldest entry first.
func (db *DB) ListLots() ([]models.Lot, error) {
	query := `
		SELECT id, ticker, entry_date, total_cost, shares, strategy_type,
		       is_sold, notes, sell_amount, sell_date, created_at
		FROM lots
		ORDER BY entry_date ASC, id ASC
	`
	return db.scanLots(db.conn.Query(query))
}

// LotsByIDs retrieves the lots with the given ids, in id order.
func (db *DB) LotsByIDs(ids []string) ([]models.Lot, error) {
	query := `
		SELECT id, ticker, entry_date, total_cost, shares, strategy_type,
		       is_sold, notes, sell_amount, sell_date, created_at
		FROM lots
		WHERE id = ANY($1)
		ORDER BY id ASC
	`
	return db.scanLots(db.conn.Query(query, pq.Array(ids)))
}

// MarkLotsSold flips the named lots to sold in one transaction, writing
// the per-lot amounts precomputed by the sale allocation and one shared
// sell date. Lots allocated no amount get only the flag and the date.
func (db *DB) MarkLotsSold(allocations []portfolio.SaleAllocation, sellDate time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		UPDATE lots
		SET is_sold = TRUE,
		    sell_amount = COALESCE($2, sell_amount),
		    sell_date = $3
		WHERE id = $1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range allocations {
		result, err := stmt.Exec(a.LotID, a.Amount, sellDate)
		if err != nil {
			return fmt.Errorf("failed to mark lot %s sold: %w", a.LotID, err)
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return fmt.Errorf("lot not found: %s", a.LotID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecentLotExists reports whether an identical unsold lot was created at
// or after the given time. Used to make add-position idempotent against
// repeated submissions.
func (db *DB) RecentLotExists(l *models.Lot, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM lots
			WHERE ticker = $1 AND entry_date = $2 AND shares = $3
			  AND total_cost = $4 AND is_sold = FALSE AND created_at >= $5
		)
	`
	var exists bool
	err := db.conn.QueryRow(query, l.Ticker, l.EntryDate, l.Shares, l.TotalCost, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for recent lot: %w", err)
	}
	return exists, nil
}

// LotExists reports whether a lot with the given id is already stored.
func (db *DB) LotExists(id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM lots WHERE id = $1)`
	var exists bool
	if err := db.conn.QueryRow(query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for lot %s: %w", id, err)
	}
	return exists, nil
}

// ActiveTickers returns the distinct tickers with at least one unsold lot.
func (db *DB) ActiveTickers() ([]string, error) {
	query := `SELECT DISTINCT ticker FROM lots WHERE is_sold = FALSE ORDER BY ticker`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, nil
}

func (db *DB) scanLots(rows *sql.Rows, err error) ([]models.Lot, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var lots []models.Lot
	for rows.Next() {
		var l models.Lot
		var notes, sellAmount sql.NullString
		var sellDate sql.NullTime

		err := rows.Scan(
			&l.ID, &l.Ticker, &l.EntryDate, &l.TotalCost, &l.Shares, &l.StrategyType,
			&l.IsSold, &notes, &sellAmount, &sellDate, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}

		if notes.Valid {
			l.Notes = notes.String
		}
		if sellAmount.Valid {
			amount, err := decimal.NewFromString(sellAmount.String)
			if err == nil {
				l.SellAmount = &amount
			}
		}
		if sellDate.Valid {
			l.SellDate = &sellDate.Time
		}
		lots = append(lots, l)
	}

	return lots, nil
}
