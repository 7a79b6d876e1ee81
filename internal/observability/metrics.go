// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/monomonedula/monquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// QueryMetrics counts parsed and rejected list queries and times the finds
// that follow them.
//
// Metrics:
//   - <ns>_queries_total: parsed queries by collection and outcome
//   - <ns>_query_rejections_total: rejected queries by collection and stage
//   - <ns>_find_duration_seconds: store find latency by collection and status
//
// A nil *QueryMetrics records nothing.
type QueryMetrics struct {
	registry     *prometheus.Registry
	queries      *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	findDuration *prometheus.HistogramVec
}

// NewQueryMetrics creates the metrics on a fresh registry.
func NewQueryMetrics(namespace string) *QueryMetrics {
	m := &QueryMetrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of list queries parsed",
			},
			[]string{"collection", "outcome"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_rejections_total",
				Help:      "Total number of list queries rejected, by failing stage",
			},
			[]string{"collection", "stage"},
		),
		findDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "find_duration_seconds",
				Help:      "Duration of store find calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection", "status"},
		),
	}

	m.registry.MustRegister(m.queries, m.rejections, m.findDuration)
	return m
}

// ObserveParse records the outcome of parsing a query for collection.
func (m *QueryMetrics) ObserveParse(collection string, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.queries.WithLabelValues(collection, "ok").Inc()
		return
	}

	m.queries.WithLabelValues(collection, "rejected").Inc()
	stage := "unknown"
	var qe *monquery.QueryError
	if errors.As(err, &qe) {
		stage = string(qe.Stage)
	}
	m.rejections.WithLabelValues(collection, stage).Inc()
}

// ObserveFind records one store find.
func (m *QueryMetrics) ObserveFind(collection string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.findDuration.WithLabelValues(collection, status).Observe(took.Seconds())
}

// Registry exposes the registry for additional collectors.
func (m *QueryMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *QueryMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
