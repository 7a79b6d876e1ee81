package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/sorting"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveParse(t *testing.T) {
	m := NewQueryMetrics("test")

	m.ObserveParse("todos", nil)
	m.ObserveParse("todos", nil)
	m.ObserveParse("todos", &monquery.QueryError{Stage: monquery.StageSort, Err: &sorting.KeyError{Key: "x"}})
	m.ObserveParse("todos", errors.New("plain"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.queries.WithLabelValues("todos", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.queries.WithLabelValues("todos", "rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("todos", "sort")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("todos", "unknown")))
}

func TestObserveFind(t *testing.T) {
	m := NewQueryMetrics("test")

	m.ObserveFind("todos", 20*time.Millisecond, nil)
	m.ObserveFind("todos", time.Second, errors.New("timeout"))

	require.Equal(t, 2, testutil.CollectAndCount(m.findDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *QueryMetrics
	require.NotPanics(t, func() {
		m.ObserveParse("todos", nil)
		m.ObserveFind("todos", time.Second, nil)
	})
}

func TestHandler(t *testing.T) {
	m := NewQueryMetrics("test")
	m.ObserveParse("todos", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `test_queries_total{collection="todos",outcome="ok"} 1`)
}
