package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// EventMessageCreated is the type of the exported event
const EventMessageCreated = "message.created"

// MessageCreated is the payload exported for every persisted chat message
type MessageCreated struct {
	Type        string                  `json:"type"`
	WorkspaceID string                  `json:"workspaceId"`
	Message     dto.ChatMessageResponse `json:"message"`
	OccurredAt  time.Time               `json:"occurredAt"`
}

// Exporter publishes chat events to downstream consumers
type Exporter interface {
	MessageCreated(ctx context.Context, workspaceID string, message dto.ChatMessageResponse) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const writeBatchTimeout = 5 * time.Millisecond

// KafkaExporter writes events to a Kafka topic keyed by group ID, so the
// messages of one group stay ordered within a partition.
type KafkaExporter struct {
	writer  messageWriter
	timeout time.Duration
	log     zerolog.Logger
}

// NewKafkaExporter creates an exporter for the given brokers and topic
func NewKafkaExporter(brokers []string, topic string, log zerolog.Logger) *KafkaExporter {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		// Each send exports one message; the 1s default would hold the request.
		BatchTimeout: writeBatchTimeout,
	}
	return newKafkaExporter(w, log)
}

func newKafkaExporter(w messageWriter, log zerolog.Logger) *KafkaExporter {
	return &KafkaExporter{
		writer:  w,
		timeout: 5 * time.Second,
		log:     log.With().Str("component", "kafka-exporter").Logger(),
	}
}

// MessageCreated exports one message.created event
func (e *KafkaExporter) MessageCreated(ctx context.Context, workspaceID string, message dto.ChatMessageResponse) error {
	payload, err := json.Marshal(MessageCreated{
		Type:        EventMessageCreated,
		WorkspaceID: workspaceID,
		Message:     message,
		OccurredAt:  message.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", EventMessageCreated, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err = e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(message.GroupID),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventMessageCreated)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write %s event: %w", EventMessageCreated, err)
	}

	e.log.Debug().Str("groupId", message.GroupID).Str("messageId", message.ID).Msg("Exported chat message")
	return nil
}

// Close flushes and closes the writer
func (e *KafkaExporter) Close() error {
	return e.writer.Close()
}

// NopExporter discards events; used when Kafka is disabled
type NopExporter struct{}

// MessageCreated implements Exporter
func (NopExporter) MessageCreated(context.Context, string, dto.ChatMessageResponse) error { return nil }

// Close implements Exporter
func (NopExporter) Close() error { return nil }
