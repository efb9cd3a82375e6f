package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/config"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/models"
	"github.com/segmentio/kafka-go"
)

// Publisher emits order lifecycle events once the producing transaction has
// committed.
type Publisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewPublisher returns a kafka backed publisher, or a logging one when no
// brokers are configured.
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		slog.Info("No kafka brokers configured, order events will only be logged")
		return NewLogPublisher()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return NewKafkaPublisher(writer, cfg.WriteTimeout)
}

func NewKafkaPublisher(writer MessageWriter, timeout time.Duration) Publisher {
	return &kafkaPublisher{writer: writer, timeout: timeout}
}

// Publish keys every message by order id so all events of one order land on
// the same partition in order.
func (p *kafkaPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type logPublisher struct{}

func NewLogPublisher() Publisher {
	return logPublisher{}
}

func (logPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	middleware.LoggerFromContext(ctx).Info("Order event",
		slog.String("type", string(event.Type)),
		slog.String("orderId", event.OrderID.String()),
		slog.String("status", string(event.Status)),
	)

	return nil
}

func (logPublisher) Close() error {
	return nil
}
