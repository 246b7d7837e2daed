package dev

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/myvite-dev/myvite/internal/hmr"
)

// Metrics holds the dev server's Prometheus collectors.
type Metrics struct {
	requests          *prometheus.CounterVec
	transformDuration *prometheus.HistogramVec
	messages          *prometheus.CounterVec
	fsEvents          *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. clients reports the number
// of connected browsers.
func NewMetrics(reg prometheus.Registerer, clients func() int) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "myvite",
		Name:      "hmr_clients",
		Help:      "Number of browsers connected to the update channel",
	}, func() float64 { return float64(clients()) })

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myvite",
			Name:      "requests_total",
			Help:      "Total number of served module requests",
		}, []string{"kind", "status"}),

		transformDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "myvite",
			Name:      "transform_duration_seconds",
			Help:      "Time spent transforming a served file",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myvite",
			Name:      "hmr_messages_total",
			Help:      "Total number of update messages broadcast",
		}, []string{"type"}),

		fsEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myvite",
			Name:      "fs_events_total",
			Help:      "Total number of filesystem events after settling",
		}, []string{"op"}),
	}
}

func (m *Metrics) observeRequest(kind string, status int, d time.Duration) {
	m.requests.WithLabelValues(kind, statusClass(status)).Inc()
	m.transformDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) observeEvent(ev hmr.Event) {
	m.fsEvents.WithLabelValues(ev.Op.String()).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

// countingBroadcaster counts every message it broadcasts.
type countingBroadcaster struct {
	next    hmr.Broadcaster
	metrics *Metrics
}

func (b countingBroadcaster) Broadcast(msg hmr.Message) int {
	b.metrics.messages.WithLabelValues(string(msg.Type)).Inc()
	return b.next.Broadcast(msg)
}
