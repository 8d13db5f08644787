package app

import (
	"net/http"

	"github.com/expensetracker/expenses/internal/metrics"
	"github.com/expensetracker/expenses/internal/rest"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	r.HandleFunc("/health", health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Auth
	if deps.OAuthHandler != nil {
		r.HandleFunc("/api/auth/login", deps.OAuthHandler.Login).Methods("GET")
		r.HandleFunc("/api/auth/callback", deps.OAuthHandler.Callback).Methods("GET")
		r.HandleFunc("/api/auth/session", deps.OAuthHandler.Logout).Methods("DELETE")
	}

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current", deps.UserHandler.DeleteCurrentUser).Methods("DELETE")

	// AI routes share a per-user limiter
	ai := r.NewRoute().Subrouter()
	ai.Use(deps.AIRateLimiter.Handler)
	ai.HandleFunc("/api/record/suggest-category", deps.InsightHandler.SuggestCategory).Methods("POST")
	ai.HandleFunc("/api/insights", deps.InsightHandler.GetInsights).Methods("GET")
	ai.HandleFunc("/api/insights/answer", deps.InsightHandler.AnswerQuestion).Methods("POST")

	// Records
	r.HandleFunc("/api/record", deps.RecordHandler.GetRecords).Methods("GET")
	r.HandleFunc("/api/record", deps.RecordHandler.AddRecord).Methods("POST")
	r.HandleFunc("/api/record/search", deps.RecordHandler.SearchRecords).Methods("GET")
	r.HandleFunc("/api/record/categories", deps.RecordHandler.GetCategories).Methods("GET")
	r.HandleFunc("/api/record/{recordId}", deps.RecordHandler.DeleteRecord).Methods("DELETE")

	// Budgets
	r.HandleFunc("/api/budget", deps.BudgetHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/budget", deps.BudgetHandler.Register).Methods("POST")
	r.HandleFunc("/api/budget/overview", deps.BudgetHandler.Overview).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}", deps.BudgetHandler.Delete).Methods("DELETE")

	// Analytics
	r.HandleFunc("/api/analytics/stats", deps.StatsHandler.GetStats).Methods("GET")
	r.HandleFunc("/api/analytics/totals", deps.StatsHandler.GetTotals).Methods("GET")
	r.HandleFunc("/api/analytics/best-worst", deps.StatsHandler.GetBestWorst).Methods("GET")
	r.HandleFunc("/api/analytics/export", deps.StatsHandler.Export).Methods("GET")
}

func health(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
