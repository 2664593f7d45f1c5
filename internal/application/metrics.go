package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "annoirc"

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	commands   *prometheus.CounterVec
	fetchTime  *prometheus.HistogramVec
	connects   *prometheus.CounterVec
	throttled  *prometheus.CounterVec
	replies    *prometheus.CounterVec
	sessionsUp prometheus.Gauge
}

// NewMetrics registers collectors on reg. A nil reg gets a private registry,
// which keeps tests from colliding on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Command dispatch events by outcome.",
		}, []string{"event"}),
		fetchTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent resolving commands, by command kind.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind"}),
		connects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connects_total",
			Help:      "Connection attempts by network and result.",
		}, []string{"network", "result"}),
		throttled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "throttled_messages_total",
			Help:      "Messages whose remaining candidates were dropped by the rate limiter.",
		}, []string{"network"}),
		replies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replies_total",
			Help:      "Outbound reply lines by network and result.",
		}, []string{"network", "result"}),
		sessionsUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_active",
			Help:      "Sessions currently holding a registered connection.",
		}),
	}
}

func (m *Metrics) command(event string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(event).Inc()
}

func (m *Metrics) observeFetch(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTime.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) connect(network, result string) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(network, result).Inc()
}

func (m *Metrics) throttle(network string) {
	if m == nil {
		return
	}
	m.throttled.WithLabelValues(network).Inc()
}

func (m *Metrics) reply(network, result string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(network, result).Inc()
}

func (m *Metrics) sessionUp(delta float64) {
	if m == nil {
		return
	}
	m.sessionsUp.Add(delta)
}
