package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clin-tw/trend-tracker/internal/api"
	"github.com/clin-tw/trend-tracker/internal/config"
	"github.com/clin-tw/trend-tracker/internal/database"
	"github.com/clin-tw/trend-tracker/internal/kafka"
	"github.com/clin-tw/trend-tracker/internal/marketdata"
	"github.com/clin-tw/trend-tracker/internal/portfolio"
)

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

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	chain := marketdata.NewChain(logger, marketdata.DefaultMinBars,
		marketdata.NewHistoryProvider(db),
		marketdata.NewTWSEProvider(),
		marketdata.NewYahooProvider(),
	)
	provider := marketdata.NewCachedProvider(chain, redisClient, cfg.Redis.TTL, logger)

	service := portfolio.NewService(db, provider, producer, logger)
	handler := api.NewHandler(service, db)
	router := api.SetupRoutes(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ingest LOT_RECORDED events from the external trade recorder.
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup, db)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("kafka consumer stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
