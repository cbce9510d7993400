// Package metrics exposes Prometheus metrics for agent decisions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mindfultube"

// Metrics holds the agent metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Messages          *prometheus.CounterVec
	Searches          *prometheus.CounterVec
	SearchLatency     prometheus.Histogram
	Intents           *prometheus.CounterVec
	Engagements       *prometheus.CounterVec
	Recommendations   *prometheus.CounterVec
	AgentFailures     *prometheus.CounterVec
	SessionsBlocked   prometheus.Counter
	DiscoveryInjected prometheus.Counter
	WebSocketClients  prometheus.Gauge
}

// New registers all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound page-layer messages by action",
		}, []string{"action"}),

		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches by outcome (ranked or standard)",
		}, []string{"outcome"}),

		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search pipeline latency",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),

		Intents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Dominant intent category per search",
		}, []string{"category"}),

		Engagements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engagements_total",
			Help:      "Video end events by engagement kind",
		}, []string{"kind"}), // positive, negative, neutral

		Recommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Next-watch recommendations by type",
		}, []string{"type"}),

		AgentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_failures_total",
			Help:      "Agent calls that degraded to a default",
		}, []string{"agent"}),

		SessionsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_blocked_total",
			Help:      "Session starts refused by the time limit",
		}),

		DiscoveryInjected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_injected_total",
			Help:      "Knowledge-gap results placed into search results",
		}),

		WebSocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected page-layer WebSocket clients",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Message(action string) {
	if m != nil {
		m.Messages.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) Search(outcome string, started time.Time) {
	if m != nil {
		m.Searches.WithLabelValues(outcome).Inc()
		m.SearchLatency.Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) Intent(category string) {
	if m != nil {
		m.Intents.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) Engagement(kind string) {
	if m != nil {
		m.Engagements.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Recommendation(kind string) {
	if m != nil {
		m.Recommendations.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) AgentFailure(agent string) {
	if m != nil {
		m.AgentFailures.WithLabelValues(agent).Inc()
	}
}

func (m *Metrics) SessionBlocked() {
	if m != nil {
		m.SessionsBlocked.Inc()
	}
}

func (m *Metrics) Injected(n int) {
	if m != nil && n > 0 {
		m.DiscoveryInjected.Add(float64(n))
	}
}

func (m *Metrics) ClientConnected() {
	if m != nil {
		m.WebSocketClients.Inc()
	}
}

func (m *Metrics) ClientDisconnected() {
	if m != nil {
		m.WebSocketClients.Dec()
	}
}
