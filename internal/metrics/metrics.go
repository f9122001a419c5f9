package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wiremeet"

// Metrics holds the relay's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	connections     prometheus.Gauge
	rooms           prometheus.Gauge
	relayed         *prometheus.CounterVec
	peerUnavailable prometheus.Counter
	protocolErrors  *prometheus.CounterVec
	evictions       prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live signaling connections.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms with at least one member.",
		}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_events_total",
			Help:      "Events delivered to connections, by kind.",
		}, []string{"kind"}),
		peerUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "peer_unavailable_total",
			Help:      "Negotiation messages dropped because the target was gone.",
		}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Inbound events rejected, by error code.",
		}, []string{"code"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_consumer_evictions_total",
			Help:      "Connections terminated because their outbound queue was full.",
		}),
	}
	m.registry.MustRegister(
		m.connections,
		m.rooms,
		m.relayed,
		m.peerUnavailable,
		m.protocolErrors,
		m.evictions,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

// SetRooms records the current number of live rooms.
func (m *Metrics) SetRooms(n int) {
	if m != nil {
		m.rooms.Set(float64(n))
	}
}

func (m *Metrics) Relayed(kind string) {
	if m != nil {
		m.relayed.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) PeerUnavailable() {
	if m != nil {
		m.peerUnavailable.Inc()
	}
}

func (m *Metrics) ProtocolError(code string) {
	if m != nil {
		m.protocolErrors.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) Evicted() {
	if m != nil {
		m.evictions.Inc()
	}
}
