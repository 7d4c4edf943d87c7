package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveDocument(StatusOK, 20*time.Millisecond)
	m.ObserveDocument(StatusOK, 5*time.Millisecond)
	m.ObserveDocument(StatusError, time.Millisecond)
	m.ObserveEntities([]mention.Entity{{}, {Propagated: true}, {Propagated: true}})
	m.ObserveCallouts(4, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entities.WithLabelValues("labeled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.entities.WithLabelValues("propagated")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.refs.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refs.WithLabelValues("skipped")))

	t.Run("Handler exposes the registry", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		require.Equal(t, 200, rec.Code)
		assert.Contains(t, rec.Body.String(), "softmention_documents_total")
		assert.Contains(t, rec.Body.String(), "softmention_document_duration_seconds_bucket")
	})
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDocument(StatusOK, time.Second)
		m.ObserveEntities([]mention.Entity{{}})
		m.ObserveCallouts(1, 1)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
