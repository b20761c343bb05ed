// Package observability holds the Prometheus collectors shared by the ledger binaries.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitness_ledger",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Latency of store operations grouped by backend and operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op"})

	storeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_ledger",
		Subsystem: "store",
		Name:      "operation_errors_total",
		Help:      "Number of failed store operations grouped by backend and operation.",
	}, []string{"backend", "op"})

	feedPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_ledger",
		Subsystem: "feed",
		Name:      "events_published_total",
		Help:      "Number of change events handed to the broker per event type.",
	}, []string{"event_type"})

	feedFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_ledger",
		Subsystem: "feed",
		Name:      "publish_failures_total",
		Help:      "Number of change events the broker rejected per event type.",
	}, []string{"event_type"})

	lastWriteGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitness_ledger",
		Subsystem: "store",
		Name:      "last_write_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful store write.",
	})
)

func init() {
	prometheus.MustRegister(storeLatency, storeErrors, feedPublished, feedFailed, lastWriteGauge)
}

// ObserveStoreOp records the latency and outcome of one store call. Cancelled
// requests are not counted as errors.
func ObserveStoreOp(backend, op string, started time.Time, err error) {
	storeLatency.WithLabelValues(backend, op).Observe(time.Since(started).Seconds())
	if err != nil && !errors.Is(err, context.Canceled) {
		storeErrors.WithLabelValues(backend, op).Inc()
	}
}

// RecordWrite updates the last-write watermark.
func RecordWrite(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastWriteGauge.Set(float64(ts.Unix()))
}

// RecordPublished counts an event accepted by the broker.
func RecordPublished(eventType string) {
	feedPublished.WithLabelValues(eventType).Inc()
}

// RecordPublishFailure counts an event the broker did not accept.
func RecordPublishFailure(eventType string) {
	feedFailed.WithLabelValues(eventType).Inc()
}
