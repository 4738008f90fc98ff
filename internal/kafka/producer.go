package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/clin-tw/trend-tracker/internal/models"
)

// Producer handles publishing portfolio events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishLotAdded publishes a lot added event
func (p *Producer) PublishLotAdded(ctx context.Context, lot *models.Lot) error {
	event := models.LotEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventLotAdded,
		Ticker:    lot.Ticker,
		Lot:       lot,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, lot.Ticker, event)
}

// PublishLotsSold publishes a lots sold event
func (p *Producer) PublishLotsSold(ctx context.Context, lotIDs []string, sellDate time.Time) error {
	event := models.LotEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventLotsSold,
		LotIDs:    lotIDs,
		Timestamp: sellDate,
	}
	key := ""
	if len(lotIDs) > 0 {
		key = lotIDs[0]
	}
	return p.publish(ctx, key, event)
}

// PublishPricesRefreshed publishes a price history refresh event
func (p *Producer) PublishPricesRefreshed(ctx context.Context, ticker string, bars int) error {
	event := models.PriceEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventPricesRefreshed,
		Ticker:    ticker,
		Bars:      bars,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, ticker, event)
}

func (p *Producer) publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
