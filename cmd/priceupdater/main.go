package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/clin-tw/trend-tracker/internal/config"
	"github.com/clin-tw/trend-tracker/internal/database"
	"github.com/clin-tw/trend-tracker/internal/kafka"
	"github.com/clin-tw/trend-tracker/internal/marketdata"
)

// Refreshes the persisted price history for every ticker with an open
// lot. Meant to run once per day after the market close, from cron or a
// scheduled container.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	fetchers := []marketdata.Provider{
		marketdata.NewTWSEProvider(),
		marketdata.NewYahooProvider(),
	}
	updater := marketdata.NewUpdater(db, db, fetchers, producer, logger,
		cfg.MarketData.FetchRetries, cfg.MarketData.TickerDelay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Info("interrupted, stopping refresh")
		cancel()
	}()

	if err := updater.Run(ctx, time.Now()); err != nil {
		logger.Fatal("price refresh failed", zap.Error(err))
	}
}
