package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// addDedupWindow is how long an identical lot submission is treated as a
// duplicate of an earlier one rather than a new purchase.
const addDedupWindow = 2 * time.Minute

// Store is the lot persistence the service depends on.
type Store interface {
	ListLots() ([]models.Lot, error)
	CreateLot(lot *models.Lot) error
	LotsByIDs(ids []string) ([]models.Lot, error)
	MarkLotsSold(allocations []SaleAllocation, sellDate time.Time) error
	RecentLotExists(lot *models.Lot, since time.Time) (bool, error)
	TickerName(ticker string) (string, error)
}

// SeriesProvider serves daily price series ending at or before a date.
type SeriesProvider interface {
	GetSeries(ctx context.Context, ticker string, asOf time.Time) (*models.PriceSeries, error)
}

// EventPublisher announces lot lifecycle changes. Publishing is
// best-effort; failures are logged, never surfaced to the caller.
type EventPublisher interface {
	PublishLotAdded(ctx context.Context, lot *models.Lot) error
	PublishLotsSold(ctx context.Context, lotIDs []string, sellDate time.Time) error
}

// Service wires the store, the price provider and the strategy rules into
// the portfolio operations the API exposes.
type Service struct {
	store     Store
	provider  SeriesProvider
	publisher EventPublisher
	logger    *zap.Logger
	nowFn     func() time.Time
}

// NewService creates a portfolio service. publisher may be nil.
func NewService(store Store, provider SeriesProvider, publisher EventPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		provider:  provider,
		publisher: publisher,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// AddLotRequest carries the add-position command fields.
type AddLotRequest struct {
	Ticker       string
	Shares       int64
	TotalCost    decimal.Decimal
	EntryDate    time.Time
	StrategyType string
	Notes        string
}

// AddLot validates and persists a new lot. Re-submitting an identical lot
// within a short window returns without creating a second row, so a
// double-clicked form does not double-count a purchase.
func (s *Service) AddLot(ctx context.Context, req AddLotRequest) (*models.Lot, error) {
	now := s.nowFn()
	lot := &models.Lot{
		ID:           models.NewLotID(req.Ticker, req.EntryDate, now),
		Ticker:       models.NormalizeTicker(req.Ticker),
		EntryDate:    req.EntryDate,
		TotalCost:    req.TotalCost,
		Shares:       req.Shares,
		StrategyType: req.StrategyType,
		Notes:        req.Notes,
	}
	if err := lot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lot: %w", err)
	}

	exists, err := s.store.RecentLotExists(lot, now.Add(-addDedupWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate lot: %w", err)
	}
	if exists {
		s.logger.Info("duplicate lot submission ignored",
			zap.String("ticker", lot.Ticker),
			zap.String("entry_date", lot.EntryDate.Format("2006-01-02")))
		return lot, nil
	}

	if err := s.store.CreateLot(lot); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLotAdded(ctx, lot); err != nil {
			s.logger.Warn("failed to publish lot added event", zap.Error(err))
		}
	}
	return lot, nil
}

// MarkSold flags the named lots as sold with one shared sell date,
// splitting the aggregate sell amount across them by share count.
func (s *Service) MarkSold(ctx context.Context, lotIDs []string, sellAmount *decimal.Decimal, sellDate time.Time) error {
	if len(lotIDs) == 0 {
		return fmt.Errorf("no lot ids given")
	}
	if sellAmount != nil && !sellAmount.IsPositive() {
		return fmt.Errorf("sell amount must be positive, got %s", sellAmount)
	}

	lots, err := s.store.LotsByIDs(lotIDs)
	if err != nil {
		return err
	}
	if len(lots) != len(lotIDs) {
		return fmt.Errorf("found %d of %d lots", len(lots), len(lotIDs))
	}

	allocations := AllocateSale(lots, sellAmount)
	if err := s.store.MarkLotsSold(allocations, sellDate); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLotsSold(ctx, lotIDs, sellDate); err != nil {
			s.logger.Warn("failed to publish lots sold event", zap.Error(err))
		}
	}
	return nil
}

// Holdings builds the holdings report as of the given date: aggregate
// open lots, evaluate each position, fold into totals. A position whose
// price data is missing or too short is skipped and logged; one ticker's
// failure never aborts the rest of the report.
func (s *Service) Holdings(ctx context.Context, asOf time.Time) (*HoldingsReport, error) {
	lots, err := s.store.ListLots()
	if err != nil {
		return nil, err
	}

	positions := Aggregate(lots)
	keys := make([]models.PositionKey, 0, len(positions))
	for key := range positions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Ticker != keys[j].Ticker {
			return keys[i].Ticker < keys[j].Ticker
		}
		return keys[i].StrategyType < keys[j].StrategyType
	})

	seriesByTicker := make(map[string]*models.PriceSeries)
	failed := make(map[string]bool)

	var signals []*models.Signal
	var skipped []string
	for _, key := range keys {
		pos := positions[key]
		if pos.TotalShares <= 0 || !pos.TotalCost.IsPositive() {
			skipped = append(skipped, pos.Ticker)
			continue
		}

		series, ok := seriesByTicker[pos.Ticker]
		if !ok && !failed[pos.Ticker] {
			series, err = s.provider.GetSeries(ctx, pos.Ticker, asOf)
			if err != nil {
				s.logger.Warn("price fetch failed, skipping ticker",
					zap.String("ticker", pos.Ticker), zap.Error(err))
				failed[pos.Ticker] = true
			} else {
				seriesByTicker[pos.Ticker] = series
			}
		}
		if failed[pos.Ticker] {
			skipped = append(skipped, pos.Ticker)
			continue
		}

		if name, err := s.store.TickerName(pos.Ticker); err == nil && name != "" {
			pos.Name = name
		} else {
			pos.Name = pos.Ticker
		}

		signal, err := Evaluate(pos, series, asOf)
		if err != nil {
			if errors.Is(err, ErrInsufficientHistory) {
				s.logger.Info("not enough history to evaluate position",
					zap.String("ticker", pos.Ticker),
					zap.String("strategy", pos.StrategyType))
			} else {
				s.logger.Warn("evaluation failed",
					zap.String("ticker", pos.Ticker), zap.Error(err))
			}
			skipped = append(skipped, pos.Ticker)
			continue
		}
		signal.Source = series.Source
		signals = append(signals, signal)
	}

	report := Summarize(asOf, signals)
	report.Skipped = skipped
	return report, nil
}

// RecentPnL reports realized P&L for lots sold within the trailing window.
func (s *Service) RecentPnL(ctx context.Context, windowDays int) (*RealizedReport, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("window days must be positive, got %d", windowDays)
	}

	lots, err := s.store.ListLots()
	if err != nil {
		return nil, err
	}

	report := RecentPnL(lots, windowDays, s.nowFn())
	for _, trade := range report.Trades {
		if name, err := s.store.TickerName(trade.Ticker); err == nil && name != "" {
			trade.Name = name
		} else {
			trade.Name = trade.Ticker
		}
	}
	return report, nil
}
