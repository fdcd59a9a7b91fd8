package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the API
type Metrics struct {
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	VotesTotal       *prometheus.CounterVec
	OpinionsTotal    prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg. Passing a
// fresh prometheus.NewRegistry() keeps tests independent of each other.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pollhub_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by route, method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pollhub_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		VotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pollhub_votes_total",
				Help: "Vote attempts, by outcome.",
			},
			[]string{"outcome"},
		),
		OpinionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pollhub_opinions_total",
			Help: "Opinions accepted.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RequestDuration,
		m.RequestsInFlight,
		m.VotesTotal,
		m.OpinionsTotal,
	)
	return m
}

// Middleware records request duration and in-flight count.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		m.RequestsInFlight.Inc()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestDuration.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(start).Seconds())
		m.RequestsInFlight.Dec()
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveVote counts a vote attempt. Safe on a nil receiver.
func (m *Metrics) ObserveVote(outcome string) {
	if m == nil {
		return
	}
	m.VotesTotal.WithLabelValues(outcome).Inc()
}

// ObserveOpinion counts an accepted opinion. Safe on a nil receiver.
func (m *Metrics) ObserveOpinion() {
	if m == nil {
		return
	}
	m.OpinionsTotal.Inc()
}
