// Package feed publishes ledger change events to Kafka.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/sikndrR/fitnessApp/internal/events"
	"github.com/sikndrR/fitnessApp/internal/observability"
)

// Header keys set on every published record.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
	HeaderUserKey   = "user_key"
)

// Producer is the subset of KafkaProducer the Publisher needs.
type Producer interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// Option configures optional behaviour for the Publisher.
type Option func(*Publisher)

// WithLogger overrides the logger used to report failures.
func WithLogger(logger *log.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Publisher encodes events as JSON records keyed by user.
type Publisher struct {
	producer Producer
	topic    string
	logger   *log.Logger
}

// NewPublisher constructs a Publisher writing to topic.
func NewPublisher(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		logger:   log.New(log.Writer(), "[feed] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish implements domain.Publisher.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	msg, err := Encode(event)
	if err != nil {
		observability.RecordPublishFailure(event.Type)
		return err
	}
	if err := p.producer.WriteMessages(ctx, p.topic, msg); err != nil {
		observability.RecordPublishFailure(event.Type)
		p.logger.Printf("write %s to %s failed: %v", event.Type, p.topic, err)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	observability.RecordPublished(event.Type)
	return nil
}

// Encode builds the Kafka record for event.
func Encode(event events.Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.UserKey),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.Type)},
			{Key: HeaderEventID, Value: []byte(event.ID)},
			{Key: HeaderUserKey, Value: []byte(event.UserKey)},
		},
	}, nil
}

// NoopPublisher drops every event. It is used when the feed is disabled.
type NoopPublisher struct{}

// Publish implements domain.Publisher.
func (NoopPublisher) Publish(context.Context, events.Event) error { return nil }
