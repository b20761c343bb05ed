// Package consumer reads the ledger change feed and hands each event to a Handler.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is a decoded change event together with its Kafka coordinates.
type Message struct {
	Topic      string
	Partition  int
	Offset     int64
	Timestamp  time.Time
	EventID    string
	EventType  string
	UserKey    string
	OccurredAt time.Time
	Payload    json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor pulls messages, decodes them and dispatches them to a Handler.
// Messages are committed only after the handler succeeds.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *log.Logger
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes messages until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Printf("fetch error: %v", err)
			continue
		}

		event, decodeErr := decodeMessage(msg)
		if decodeErr != nil {
			p.logger.Printf("decode error (topic=%s, partition=%d, offset=%d): %v", msg.Topic, msg.Partition, msg.Offset, decodeErr)
			recordDecodeError(msg.Topic)
			// Malformed records are committed so they cannot block the partition.
			if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
				p.logger.Printf("commit error after decode failure: %v", commitErr)
			}
			continue
		}

		if handleErr := p.handler.Handle(ctx, event); handleErr != nil {
			p.logger.Printf("handler error (event_type=%s, user=%s): %v", event.EventType, event.UserKey, handleErr)
			recordHandlerError(event)
			continue
		}

		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.logger.Printf("commit error: %v", commitErr)
		} else {
			recordProcessed(event)
		}
	}
}

type envelope struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"event_type"`
	UserKey    string          `json:"user_key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func decodeMessage(msg kafka.Message) (Message, error) {
	eventType, ok := headerValue(msg, "event_type")
	if !ok {
		return Message{}, errors.New("missing event_type header")
	}

	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.ID == "" {
		if id, ok := headerValue(msg, "event_id"); ok {
			env.ID = string(id)
		}
	}
	if env.ID == "" {
		return Message{}, errors.New("missing event id")
	}
	if env.UserKey == "" {
		userKey, _ := headerValue(msg, "user_key")
		env.UserKey = string(userKey)
	}
	if env.Type != "" && env.Type != string(eventType) {
		return Message{}, fmt.Errorf("event_type header %q does not match body %q", eventType, env.Type)
	}
	if len(env.Payload) == 0 {
		env.Payload = json.RawMessage("null")
	}

	return Message{
		Topic:      msg.Topic,
		Partition:  msg.Partition,
		Offset:     msg.Offset,
		Timestamp:  msg.Time,
		EventID:    env.ID,
		EventType:  string(eventType),
		UserKey:    env.UserKey,
		OccurredAt: env.OccurredAt,
		Payload:    env.Payload,
	}, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
