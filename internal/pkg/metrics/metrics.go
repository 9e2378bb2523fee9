package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oficina"

// Metrics holds the chat collectors and the registry they are exposed from
type Metrics struct {
	registry *prometheus.Registry

	MessagesSent            *prometheus.CounterVec
	RealtimeEventsDelivered prometheus.Counter
	RealtimeEventsDropped   prometheus.Counter
	ActiveSubscriptions     prometheus.Gauge
	ExportFailures          prometheus.Counter
}

// New registers the chat collectors, plus Go runtime collectors, on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_sent_total",
			Help:      "Chat messages persisted, by kind.",
		}, []string{"kind"}),
		RealtimeEventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_delivered_total",
			Help:      "Insert events written to subscriber send buffers.",
		}),
		RealtimeEventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Insert events dropped because a subscriber buffer was full.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "active_subscriptions",
			Help:      "Open websocket subscriptions.",
		}),
		ExportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "failures_total",
			Help:      "message.created events that could not be exported.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MessagesSent,
		m.RealtimeEventsDelivered,
		m.RealtimeEventsDropped,
		m.ActiveSubscriptions,
		m.ExportFailures,
	)
	return m
}

// NewNop returns metrics registered on a private registry; used where
// nothing scrapes them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
