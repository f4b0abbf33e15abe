package client

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

var (
	apiMetricsOnce sync.Once
	apiMetricsInst *apiMetrics
)

func globalAPIMetrics() *apiMetrics {
	apiMetricsOnce.Do(func() {
		apiMetricsInst = newAPIMetrics()
	})
	return apiMetricsInst
}

func newAPIMetrics() *apiMetrics {
	return &apiMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "querypro",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests issued by the client, labeled by operation and outcome",
		}, []string{"operation", "outcome"}),
		durations: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "querypro",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *apiMetrics) start(operation string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	timer := prometheus.NewTimer(m.durations.WithLabelValues(operation))
	return func(outcome string) {
		timer.ObserveDuration()
		m.requests.WithLabelValues(operation, outcome).Inc()
	}
}

func outcomeLabel(status int, code string) string {
	if code == "" {
		return "success"
	}
	if status > 0 {
		return code + "/" + strconv.Itoa(status)
	}
	return code
}
