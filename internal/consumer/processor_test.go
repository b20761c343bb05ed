package consumer

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/sikndrR/fitnessApp/internal/events"
	"github.com/sikndrR/fitnessApp/internal/feed"
)

func encoded(t *testing.T, event events.Event) kafka.Message {
	t.Helper()
	msg, err := feed.Encode(event)
	require.NoError(t, err)
	msg.Topic = "ledger.events"
	msg.Offset = 10
	return msg
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	event := events.New(events.TypeDateBootstrapped, "alice@example", at, events.DateBootstrapped{Date: "2024-05-01"})
	reader := &stubReader{messages: []kafka.Message{encoded(t, event)}, after: contextCanceled}
	handler := &stubHandler{}

	before := testutil.ToFloat64(handledCounter.WithLabelValues(events.TypeDateBootstrapped))
	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.TypeDateBootstrapped, handler.last.EventType)
	require.Equal(t, event.ID, handler.last.EventID)
	require.Equal(t, "alice@example", handler.last.UserKey)
	require.True(t, at.Equal(handler.last.OccurredAt))
	require.Equal(t, int64(10), handler.last.Offset)
	require.JSONEq(t, `{"date":"2024-05-01"}`, string(handler.last.Payload))
	require.Equal(t, before+1, testutil.ToFloat64(handledCounter.WithLabelValues(events.TypeDateBootstrapped)))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	event := events.New(events.TypeEntryRemoved, "bob@example", time.Now(), events.EntryRemoved{
		Date: "2024-05-01", Category: "food", Name: "Apple",
	})
	reader := &stubReader{messages: []kafka.Message{encoded(t, event)}, after: contextCanceled}
	handler := &stubHandler{err: errors.New("boom")}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsUndecodableRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	missingHeader := kafka.Message{Topic: "ledger.bad", Value: []byte(`{"event_id":"x"}`)}
	badJSON := kafka.Message{
		Topic:   "ledger.bad",
		Value:   []byte(`not json`),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(events.TypeGoalsUpdated)}},
	}
	mismatched := kafka.Message{
		Topic:   "ledger.bad",
		Value:   []byte(`{"event_id":"y","event_type":"ledger.entry_removed"}`),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(events.TypeGoalsUpdated)}},
	}
	reader := &stubReader{messages: []kafka.Message{missingHeader, badJSON, mismatched}, after: contextCanceled}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))
	require.ErrorIs(t, processor.Run(ctx), context.Canceled)

	require.Zero(t, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
	require.Equal(t, 3.0, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("ledger.bad")))
}

func TestDecodeFallsBackToHeaders(t *testing.T) {
	msg := kafka.Message{
		Value: []byte(`{"payload":{"display_name":"Ann"}}`),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeUserRegistered)},
			{Key: "event_id", Value: []byte("evt-1")},
			{Key: "user_key", Value: []byte("ann@example")},
		},
	}

	decoded, err := decodeMessage(msg)
	require.NoError(t, err)
	require.Equal(t, "evt-1", decoded.EventID)
	require.Equal(t, "ann@example", decoded.UserKey)
	require.True(t, decoded.OccurredAt.IsZero())
	require.JSONEq(t, `{"display_name":"Ann"}`, string(decoded.Payload))
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
