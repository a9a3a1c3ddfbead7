package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveQuery("ok", 1500*time.Millisecond)
	m.ObserveQuery("location_not_found", time.Second)
	m.ObserveFetch("forecast", nil)
	m.ObserveFetch("forecast", errors.New("boom"))
	m.ObserveFetch("historical", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("location_not_found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubQueriesTotal.WithLabelValues("forecast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WeatherFetches.WithLabelValues("forecast", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WeatherFetches.WithLabelValues("historical", "ok")))
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveQuery("ok", time.Second)
		m.ObserveFetch("current", nil)
	})
}
