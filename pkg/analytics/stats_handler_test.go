package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/expensetracker/expenses/pkg/user"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) (*mux.Router, fixture) {
	f := setupStatsTest()
	f.add(t, "Pizza", "20", "Food", day(2025, 3, 10))
	f.add(t, "Bus", "2.50", "Transportation", day(2025, 2, 10))

	handler := NewStatsHandler(f.service, NewCsvStatsRenderer())
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), user.User{Id: 1})))
		})
	})
	r.HandleFunc("/api/analytics/stats", handler.GetStats).Methods("GET")
	r.HandleFunc("/api/analytics/totals", handler.GetTotals).Methods("GET")
	r.HandleFunc("/api/analytics/best-worst", handler.GetBestWorst).Methods("GET")
	r.HandleFunc("/api/analytics/export", handler.Export).Methods("GET")
	return r, f
}

func TestStatsHandler_GetStats(t *testing.T) {
	t.Run("should return json", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var stats ExpenseStatsDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		assert.Equal(t, 2, stats.TotalExpenses)
		assert.Equal(t, 22.5, stats.TotalAmount)
		assert.Equal(t, 11.25, stats.AverageAmount)
		require.Len(t, stats.MonthlyTrend, 12)
		assert.Equal(t, MonthlyAmountDTO{Month: "Mar 2025", Start: day(2025, 3, 1), Amount: 20}, stats.MonthlyTrend[11])
	})

	t.Run("should return csv when requested", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		req := httptest.NewRequest(http.MethodGet, "/api/analytics/stats", nil)
		req.Header.Set("Accept", "text/csv")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "Month,Amount\nApr 2024,0.00\n"))
	})
}

func TestStatsHandler_TotalsAndBestWorst(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/totals", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":22.5,"daysWithRecords":2}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/best-worst", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"best":20,"worst":2.5}`, w.Body.String())
}

func TestStatsHandler_Export(t *testing.T) {
	t.Run("should export filtered records", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/export?category=Food", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="expenses.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "Date,Description,Category,Amount\n2025-03-10,Pizza,Food,20.00\n", w.Body.String())
	})

	t.Run("should reject invalid filters", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/export?maxAmount=lots", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
