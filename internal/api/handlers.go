package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/clin-tw/trend-tracker/internal/models"
	"github.com/clin-tw/trend-tracker/internal/portfolio"
)

// pnlWindows are the realized P&L lookbacks the API serves.
var pnlWindows = map[int]bool{3: true, 7: true, 14: true, 30: true}

const defaultPnlWindow = 3

// IndicatorStore reads the materialized indicator columns.
type IndicatorStore interface {
	LatestIndicators(ticker string) (*models.PriceHistoryRow, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service    *portfolio.Service
	indicators IndicatorStore
}

// NewHandler creates a new Handler
func NewHandler(service *portfolio.Service, indicators IndicatorStore) *Handler {
	return &Handler{service: service, indicators: indicators}
}

// AddLot handles POST /lots
func (h *Handler) AddLot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker       string          `json:"ticker"`
		Shares       int64           `json:"shares"`
		TotalCost    decimal.Decimal `json:"total_cost"`
		EntryDate    string          `json:"entry_date"`
		StrategyType string          `json:"strategy_type"`
		Notes        string          `json:"notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entryDate := models.ParseDate(req.EntryDate)
	if entryDate.IsZero() {
		http.Error(w, "entry_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if req.StrategyType == "" {
		req.StrategyType = models.StrategyBasic
	}

	lot, err := h.service.AddLot(r.Context(), portfolio.AddLotRequest{
		Ticker:       req.Ticker,
		Shares:       req.Shares,
		TotalCost:    req.TotalCost,
		EntryDate:    entryDate,
		StrategyType: req.StrategyType,
		Notes:        req.Notes,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusCreated, lot)
}

// SellLots handles POST /lots/sell
func (h *Handler) SellLots(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LotIDs     []string         `json:"lot_ids"`
		SellAmount *decimal.Decimal `json:"sell_amount"`
		SellDate   string           `json:"sell_date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sellDate := time.Now()
	if req.SellDate != "" {
		sellDate = models.ParseDate(req.SellDate)
		if sellDate.IsZero() {
			http.Error(w, "sell_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	if err := h.service.MarkSold(r.Context(), req.LotIDs, req.SellAmount, sellDate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lot_ids":   req.LotIDs,
		"sell_date": sellDate.Format("2006-01-02"),
	})
}

// GetHoldings handles GET /holdings
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		asOf = models.ParseDate(v)
		if asOf.IsZero() {
			http.Error(w, "as_of must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	report, err := h.service.Holdings(r.Context(), asOf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetRecentPnL handles GET /pnl/recent
func (h *Handler) GetRecentPnL(w http.ResponseWriter, r *http.Request) {
	days := defaultPnlWindow
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := models.ParseShares(v)
		if err != nil || !pnlWindows[int(parsed)] {
			http.Error(w, "days must be one of 3, 7, 14, 30", http.StatusBadRequest)
			return
		}
		days = int(parsed)
	}

	report, err := h.service.RecentPnL(r.Context(), days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetLatestIndicators handles GET /prices/{ticker}/latest
func (h *Handler) GetLatestIndicators(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker := models.NormalizeTicker(vars["ticker"])

	row, err := h.indicators.LatestIndicators(ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, row)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
