package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return InitMetrics(prometheus.NewRegistry())
}

func TestObserveStore(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveStore("save_form", time.Now(), nil)
	m.ObserveStore("save_form", time.Now(), errors.New("boom"))
	m.ObserveStore("save_form", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("save_form", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("save_form", StatusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreDuration))
}

func TestCacheAndEvents(t *testing.T) {
	m := newTestMetrics(t)

	m.CacheLookup("form", true)
	m.CacheLookup("form", false)
	m.CacheLookup("form", false)
	m.EventPublished("form.saved", nil)
	m.EventConsumed("response.submitted")
	m.ResponseSubmitted()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("form", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("form", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("form.saved", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsConsumedTotal.WithLabelValues("response.submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResponsesTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveStore("get_form", time.Now(), nil)
		m.CacheLookup("form", true)
		m.EventPublished("form.saved", nil)
		m.EventConsumed("form.saved")
		m.ResponseSubmitted()
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := newTestMetrics(t)
	m.ResponseSubmitted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "questionnaire_responses_submitted_total 1")
}
