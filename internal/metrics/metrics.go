package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logoproxy",
			Name:      "upstream_requests_total",
			Help:      "Total upstream API round-trips by variant and result",
		},
		[]string{"variant", "result"},
	)

	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "logoproxy",
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream API round-trips by variant",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	upstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logoproxy",
			Name:      "upstream_retries_total",
			Help:      "Total rate-limit retries by variant",
		},
		[]string{"variant"},
	)

	generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logoproxy",
			Name:      "generations_total",
			Help:      "Generation requests handled, by variant and result",
		},
		[]string{"variant", "result"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(upstreamReqs, upstreamLatency, upstreamRetries, generations)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveUpstream(variant, result string, dur time.Duration) {
	upstreamReqs.WithLabelValues(variant, result).Inc()
	upstreamLatency.WithLabelValues(variant).Observe(dur.Seconds())
}

func IncRetry(variant string) { upstreamRetries.WithLabelValues(variant).Inc() }

func IncGeneration(variant, result string) {
	generations.WithLabelValues(variant, result).Inc()
}
