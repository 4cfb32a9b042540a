// Package kafka publishes persisted anomaly reports to the downstream feed
// topic consumed by dashboards and alerting.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/urbanwatch/city-anomaly-ingest/internal/config"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
)

// Writer produces anomaly reports to the feed topic. It implements
// pipeline.ReportPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured feed topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes one report. Keying by report_id gives
// consumers a stable identity for idempotent processing.
func (w *Writer) Publish(ctx context.Context, report domain.CityAnomalyReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message. Event type and
// severity ride as headers so consumers can route without parsing the body.
func serializeToMessage(report domain.CityAnomalyReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report %s: %w", report.ReportID, err)
	}
	return kafkago.Message{
		Key:   []byte(report.ReportID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(report.EventType)},
			{Key: "severity_score", Value: []byte(strconv.Itoa(report.SeverityScore))},
			{Key: "severity_band", Value: []byte(domain.SeverityBand(report.SeverityScore))},
		},
	}, nil
}
