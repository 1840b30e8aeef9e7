// Package kafka publishes record lifecycle events to the audit topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/config"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// AuditWriter produces record events to the audit Kafka topic.
// It implements lifecycle.EventPublisher.
type AuditWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAuditWriter creates a Kafka producer for the configured audit topic.
func NewAuditWriter(cfg *config.Config, logger *slog.Logger) *AuditWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AuditWriter{writer: w, logger: logger}
}

// Publish serializes and writes a single record event. Events are keyed by
// record UUID so a record's history lands on one partition in order.
func (w *AuditWriter) Publish(ctx context.Context, event domain.RecordEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *AuditWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RecordEvent into a Kafka message.
func serializeToMessage(event domain.RecordEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Record.UUID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
