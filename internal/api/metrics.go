package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts and times API calls. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on reg. Create it once and share
// it between the farmer and admin clients.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agromitra",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by client, resource group, method and status code (0 when no response).",
		}, []string{"client", "group", "method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agromitra",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"client", "group"}),
	}
}

func (m *Metrics) observe(client, group, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(client, group, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(client, group).Observe(d.Seconds())
}
