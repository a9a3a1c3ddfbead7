// In file: internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the assistant's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   prometheus.Histogram
	SubQueriesTotal *prometheus.CounterVec
	WeatherFetches  *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_assistant_queries_total",
				Help: "Total number of answered user queries by outcome",
			},
			[]string{"outcome"},
		),
		QueryDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weather_assistant_query_duration_seconds",
				Help:    "End-to-end duration of a user query in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
		),
		SubQueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_assistant_subqueries_total",
				Help: "Total number of resolved sub-queries by fetch path",
			},
			[]string{"path"},
		),
		WeatherFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_assistant_weather_fetch_total",
				Help: "Total number of weather provider fetches by path and result",
			},
			[]string{"path", "result"},
		),
	}
}

// ObserveQuery records one finished query.
func (m *Metrics) ObserveQuery(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome).Inc()
	m.QueryDuration.Observe(d.Seconds())
}

// ObserveFetch records one weather fetch on the given path.
func (m *Metrics) ObserveFetch(path string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SubQueriesTotal.WithLabelValues(path).Inc()
	m.WeatherFetches.WithLabelValues(path, result).Inc()
}
