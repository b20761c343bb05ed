package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	handledCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_ledger",
		Subsystem: "consumer",
		Name:      "events_handled_total",
		Help:      "Number of change events handled and committed, per event type.",
	}, []string{"event_type"})

	handlerErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_ledger",
		Subsystem: "consumer",
		Name:      "handler_errors_total",
		Help:      "Number of handler failures per event type.",
	}, []string{"event_type"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_ledger",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Number of records that could not be decoded, per topic.",
	}, []string{"topic"})

	eventDelay = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitness_ledger",
		Subsystem: "consumer",
		Name:      "event_delay_seconds",
		Help:      "Time between a ledger change and its handling by the consumer.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	})
)

func init() {
	prometheus.MustRegister(handledCounter, handlerErrorCounter, decodeErrorCounter, eventDelay)
}

func recordProcessed(msg Message) {
	handledCounter.WithLabelValues(msg.EventType).Inc()
	if !msg.OccurredAt.IsZero() {
		eventDelay.Observe(time.Since(msg.OccurredAt).Seconds())
	}
}

func recordHandlerError(msg Message) {
	handlerErrorCounter.WithLabelValues(msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}
