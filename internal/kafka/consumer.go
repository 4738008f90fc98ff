package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// LotRepository defines the interface for lot database operations
type LotRepository interface {
	CreateLot(l *models.Lot) error
	LotExists(id string) (bool, error)
}

// Consumer handles consuming lot events from Kafka
// Note: This consumer only ingests LOT_RECORDED events published by the
// external trade recorder. Lots added through the HTTP API are written
// directly and never pass through here.
type Consumer struct {
	reader *kafka.Reader
	repo   LotRepository
}

// NewConsumer creates a new Kafka consumer for lot events
func NewConsumer(brokers []string, topic, groupID string, repo LotRepository) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	log.Printf("Received message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event models.LotEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal lot event: %w", err)
	}

	// Only process LOT_RECORDED events
	if event.EventType != models.EventLotRecorded {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}
	if event.Data == nil {
		return fmt.Errorf("LOT_RECORDED event %s has no payload", event.EventID)
	}

	lot, err := c.convertEventToLot(event)
	if err != nil {
		return fmt.Errorf("failed to convert event to lot: %w", err)
	}

	// Check for duplicate (idempotency)
	exists, err := c.repo.LotExists(lot.ID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate lot: %w", err)
	}
	if exists {
		log.Printf("Lot %s already exists, skipping", lot.ID)
		return nil
	}

	if err := c.repo.CreateLot(lot); err != nil {
		return fmt.Errorf("failed to save lot: %w", err)
	}

	log.Printf("Saved lot: %d shares of %s for %s (lot_id: %s)",
		lot.Shares, lot.Ticker, lot.TotalCost, lot.ID)

	return nil
}

// convertEventToLot maps a LOT_RECORDED payload to a Lot model
func (c *Consumer) convertEventToLot(event models.LotEvent) (*models.Lot, error) {
	data := event.Data

	ticker := models.NormalizeTicker(data.Ticker)
	if ticker == "" {
		ticker = models.NormalizeTicker(event.Ticker)
	}

	entryDate := models.ParseDate(data.EntryDate)
	if entryDate.IsZero() {
		entryDate = event.Timestamp
	}

	totalCost, err := models.ParseAmount(data.TotalCost)
	if err != nil {
		return nil, fmt.Errorf("invalid total cost %s: %w", data.TotalCost, err)
	}

	shares, err := models.ParseShares(data.Shares)
	if err != nil {
		return nil, fmt.Errorf("invalid shares %s: %w", data.Shares, err)
	}

	strategy := data.StrategyType
	if !models.ValidStrategy(strategy) {
		strategy = models.StrategyBasic
	}

	id := data.LotID
	if id == "" {
		id = models.NewLotID(ticker, entryDate, time.Now())
	}

	lot := &models.Lot{
		ID:           id,
		Ticker:       ticker,
		EntryDate:    entryDate,
		TotalCost:    totalCost,
		Shares:       shares,
		StrategyType: strategy,
		IsSold:       models.ParseBool(data.IsSold, false),
		Notes:        data.Notes,
	}

	// Some recorders deliver rows already closed out
	if lot.IsSold {
		if amount, err := models.ParseAmount(data.SellAmount); err == nil && amount.IsPositive() {
			lot.SellAmount = &amount
		}
		if sellDate := models.ParseDate(data.SellDate); !sellDate.IsZero() {
			lot.SellDate = &sellDate
		}
	}

	if err := lot.Validate(); err != nil {
		return nil, err
	}
	return lot, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
