// Package kafka publishes resolved-location events so downstream consumers
// can pick up coordinates the facility backend never stored.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/smkmitra/pkl-location-service/internal/config"
	"github.com/smkmitra/pkl-location-service/internal/domain"
)

// Writer produces resolved-location events to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishResolved serializes and publishes the events in a single
// WriteMessages call.
func (w *Writer) PublishResolved(ctx context.Context, events []domain.ResolvedLocation) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("published resolved locations", "count", len(events))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ResolvedLocation into a Kafka message keyed
// by facility ID so all resolutions for one facility land on one partition.
func serializeToMessage(event domain.ResolvedLocation) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize resolved location: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.FacilityID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "resolved_at", Value: []byte(event.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
