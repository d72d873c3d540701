package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bcsync/internal/logger"

	"github.com/segmentio/kafka-go"
)

const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
)

type Event struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	SKU       string    `json:"sku"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes catalog events to Kafka for downstream consumers
// (storefront cache invalidation, webhook fan-out).
type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(brokers, topic string, logger *logger.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(brokers, ",")...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{
		writer: writer,
		logger: logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SKU),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Published %s for %s", event.Type, event.SKU)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
