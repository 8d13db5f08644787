package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler(t *testing.T) {
	// given
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/record/{recordId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")
	before := testutil.ToFloat64(httpRequests.WithLabelValues("DELETE", "/api/record/{recordId}", "204"))

	// when
	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/record/"+id, nil))
	}

	// then
	after := testutil.ToFloat64(httpRequests.WithLabelValues("DELETE", "/api/record/{recordId}", "204"))
	assert.Equal(t, 2.0, after-before)
}

func TestRecordLLMCall(t *testing.T) {
	before := testutil.ToFloat64(llmCalls.WithLabelValues("categorize", "ok"))

	RecordLLMCall("categorize", "ok", 120*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(llmCalls.WithLabelValues("categorize", "ok"))-before)
}

func TestHandler(t *testing.T) {
	RecordInsightSource("insights", "rule")
	w := httptest.NewRecorder()

	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "expenses_insights_results_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
