package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	docs := testutil.ToFloat64(documentsTotal)
	ObserveBuild(time.Millisecond, 3, 20)
	assert.Equal(t, docs+3, testutil.ToFloat64(documentsTotal))

	failed := testutil.ToFloat64(pipelineTotal.WithLabelValues("default", "error"))
	PipelineRun("default", errors.New("failed"))
	assert.Equal(t, failed+1, testutil.ToFloat64(pipelineTotal.WithLabelValues("default", "error")))

	done := TaskStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(tasksInFlight))
	done(nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(tasksInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(tasksTotal.WithLabelValues("success")))
}

func TestHandler(t *testing.T) {
	ObserveExport("json", time.Millisecond)

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "gst_export_duration_seconds")
}
