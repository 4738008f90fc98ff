package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Portfolio routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/lots", handler.AddLot).Methods("POST")
	api.HandleFunc("/lots/sell", handler.SellLots).Methods("POST")
	api.HandleFunc("/holdings", handler.GetHoldings).Methods("GET")
	api.HandleFunc("/pnl/recent", handler.GetRecentPnL).Methods("GET")
	api.HandleFunc("/prices/{ticker}/latest", handler.GetLatestIndicators).Methods("GET")

	return r
}
