package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/retail-pos-engine/internal/config"
	"github.com/segmentio/kafka-go"
)

const HeaderEventType = "event-type"

// EventProducer writes register events synchronously so the outbox only marks
// a message processed once the broker acknowledged it.
type EventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*EventProducer, error) {
	if cfg.EventTopic == "" {
		return nil, fmt.Errorf("kafka event topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for event producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.EventTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger, defaultTopicRetry); err != nil {
		return nil, fmt.Errorf("failed to ensure event topic %s exists: %w", cfg.EventTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return NewEventProducerWithWriter(logger, writer, cfg.EventTopic), nil
}

func NewEventProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *EventProducer {
	return &EventProducer{logger: logger, writer: writer, topic: topic}
}

// Publish writes value keyed by key. Events of one register share a key and
// therefore a partition, which keeps them ordered.
func (p *EventProducer) Publish(ctx context.Context, key string, eventType string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			"topic", p.topic,
			"key", key,
			"event_type", eventType,
			"error", err,
		)
		return fmt.Errorf("failed to publish event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published event", "topic", p.topic, "key", key, "event_type", eventType)
	return nil
}

func (p *EventProducer) Close() error {
	p.logger.Info("Closing event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
