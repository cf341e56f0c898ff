package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCache(t *testing.T) {
	before := testutil.ToFloat64(CacheTotal.WithLabelValues("memory", "hit"))
	RecordCache("memory", true)
	RecordCache("memory", false)
	assert.Equal(t, before+1, testutil.ToFloat64(CacheTotal.WithLabelValues("memory", "hit")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(CacheTotal.WithLabelValues("memory", "miss")), 1.0)
}

func TestRecordFetchAndDegraded(t *testing.T) {
	before := testutil.ToFloat64(FetchTotal.WithLabelValues("test", "error"))
	RecordFetch("test", "error", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(FetchTotal.WithLabelValues("test", "error")))

	beforeDeg := testutil.ToFloat64(DegradedMentionsTotal.WithLabelValues("fetch_error"))
	RecordDegraded("fetch_error")
	assert.Equal(t, beforeDeg+1, testutil.ToFloat64(DegradedMentionsTotal.WithLabelValues("fetch_error")))

	beforeDoc := testutil.ToFloat64(DocumentsTotal.WithLabelValues("ok"))
	RecordDocument("ok")
	assert.Equal(t, beforeDoc+1, testutil.ToFloat64(DocumentsTotal.WithLabelValues("ok")))
}

func TestHandler(t *testing.T) {
	RecordDocument("ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catflow_documents_total")
}
