package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "jrblog"

type metrics struct {
	requests       *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	reloads        prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Views served, by the kind of view asked for and the status code.",
		}, []string{"kind", "code"}),
		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "render_duration_seconds",
			Help:      "Time taken to load and render a view.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		reloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "content_reloads_total",
			Help:      "Times the content repository has been replaced.",
		}),
	}
}
