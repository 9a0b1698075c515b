package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordProviderCall(t *testing.T) {
	before := testutil.ToFloat64(ProviderCalls.WithLabelValues("rawg", "none"))
	RecordProviderCall("rawg", "none", time.Now().Add(-50*time.Millisecond))
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderCalls.WithLabelValues("rawg", "none")))
}

func TestRecordFlush(t *testing.T) {
	flushes := testutil.ToFloat64(Flushes)
	written := testutil.ToFloat64(RecordsWritten)

	RecordFlush(10)
	RecordFlush(3)

	assert.Equal(t, flushes+2, testutil.ToFloat64(Flushes))
	assert.Equal(t, written+13, testutil.ToFloat64(RecordsWritten))
}

func TestHandler(t *testing.T) {
	Entities.WithLabelValues(OutcomeSucceeded).Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gamemeta_entities_total")
}
