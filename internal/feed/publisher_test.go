package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/sikndrR/fitnessApp/internal/events"
)

type stubProducer struct {
	topic string
	msgs  []kafka.Message
	err   error
}

func (s *stubProducer) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.topic = topic
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishWritesKeyedRecord(t *testing.T) {
	producer := &stubProducer{}
	pub := NewPublisher(producer, "ledger.events")

	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	event := events.New(events.TypeEntryUpserted, "alice@example", at, events.EntryUpserted{
		Date:       "2024-05-01",
		Category:   "food",
		Name:       "Apple",
		Attributes: map[string]string{"Calories": "95"},
	})
	require.NoError(t, pub.Publish(context.Background(), event))

	require.Equal(t, "ledger.events", producer.topic)
	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	require.Equal(t, "alice@example", string(msg.Key))
	require.Equal(t, events.TypeEntryUpserted, header(msg, HeaderEventType))
	require.Equal(t, event.ID, header(msg, HeaderEventID))
	require.Equal(t, "alice@example", header(msg, HeaderUserKey))
	require.Equal(t, at, msg.Time)

	var decoded struct {
		Type    string `json:"event_type"`
		Payload struct {
			Name       string            `json:"name"`
			Attributes map[string]string `json:"attributes"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, events.TypeEntryUpserted, decoded.Type)
	require.Equal(t, "Apple", decoded.Payload.Name)
	require.Equal(t, "95", decoded.Payload.Attributes["Calories"])
}

func TestPublishWrapsProducerError(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewPublisher(&stubProducer{err: boom}, "ledger.events", WithLogger(log.New(io.Discard, "", 0)))

	err := pub.Publish(context.Background(), events.New(events.TypeGoalsUpdated, "bob@example", time.Now(), events.GoalsUpdated{}))
	require.ErrorIs(t, err, boom)
}

func TestNoopPublisher(t *testing.T) {
	require.NoError(t, NoopPublisher{}.Publish(context.Background(), events.Event{}))
}
