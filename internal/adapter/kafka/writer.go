package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/config"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every mirrored history entry.
const (
	HeaderOriginMessage = "origin_message"
	HeaderCreatedAt     = "created_at"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer mirrors history entries onto a Kafka topic.
// It implements domain.History.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured history topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.HistoryKafkaBrokers...),
		Topic:        cfg.HistoryKafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Append publishes one message per entry, keyed by MMSI so a vessel's history
// stays ordered within a partition.
func (w *Writer) Append(ctx context.Context, entry domain.HistoryEntry) error {
	msg, err := serializeToMessage(entry)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish history entry %s: %w", entry.ID, err)
	}
	w.logger.Debug("history entry mirrored", "id", entry.ID, "mmsi", entry.Record.Position.Key)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a HistoryEntry into a Kafka message.
func serializeToMessage(entry domain.HistoryEntry) (kafkago.Message, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize history entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(entry.Record.Position.Key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderOriginMessage, Value: []byte(entry.OriginMessage)},
			{Key: HeaderCreatedAt, Value: []byte(entry.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
