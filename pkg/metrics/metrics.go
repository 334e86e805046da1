package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/streamhub/pkg/stream"
)

const namespace = "streaming"

// Collector exports hub activity as Prometheus metrics. It implements
// stream.Metrics. Labels are bounded enums; per-connection figures are served
// by the stats endpoint instead.
type Collector struct {
	connections    prometheus.Gauge
	closed         *prometheus.CounterVec
	subscriptions  *prometheus.GaugeVec
	published      *prometheus.CounterVec
	delivered      *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	lookupFailures *prometheus.CounterVec
	inconsistent   *prometheus.CounterVec
	ingested       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var _ stream.Metrics = (*Collector)(nil)

// New creates a collector and registers it with a fresh registry, which also
// carries the Go runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collector's metrics with reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Collector {
	c := &Collector{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of open streaming connections.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Closed streaming connections by reason.",
		}, []string{"reason"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions",
			Help:      "Active subscriptions by stream kind.",
		}, []string{"stream"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events published to the hub by kind.",
		}, []string{"kind"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Events enqueued to connections by kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_dropped_total",
			Help:      "Deliveries dropped by kind and reason.",
		}, []string{"kind", "reason"}),
		lookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationship_lookup_failures_total",
			Help:      "Failed relationship lookups by operation.",
		}, []string{"op"}),
		inconsistent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_inconsistencies_total",
			Help:      "Registry states that should be impossible.",
		}, []string{"what"}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Messages read from the event bus by result.",
		}, []string{"result"}),
		gatherer: g,
	}

	reg.MustRegister(
		c.connections,
		c.closed,
		c.subscriptions,
		c.published,
		c.delivered,
		c.dropped,
		c.lookupFailures,
		c.inconsistent,
		c.ingested,
	)
	return c
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ConnectionOpened() { c.connections.Inc() }

func (c *Collector) ConnectionClosed(reason string) {
	c.connections.Dec()
	c.closed.WithLabelValues(reason).Inc()
}

func (c *Collector) SubscriptionAdded(kind stream.SelectorKind) {
	c.subscriptions.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) SubscriptionRemoved(kind stream.SelectorKind) {
	c.subscriptions.WithLabelValues(kind.String()).Dec()
}

func (c *Collector) EventPublished(kind stream.EventKind) {
	c.published.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) EventDelivered(kind stream.EventKind) {
	c.delivered.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) EventDropped(kind stream.EventKind, reason stream.DropReason) {
	c.dropped.WithLabelValues(kind.String(), string(reason)).Inc()
}

func (c *Collector) LookupFailed(op string) {
	c.lookupFailures.WithLabelValues(op).Inc()
}

func (c *Collector) Inconsistency(what string) {
	c.inconsistent.WithLabelValues(what).Inc()
}

// MessageIngested counts a bus message; result is "ok" or "invalid".
func (c *Collector) MessageIngested(result string) {
	c.ingested.WithLabelValues(result).Inc()
}
