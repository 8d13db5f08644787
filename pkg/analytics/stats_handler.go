package analytics

import (
	"errors"
	"net/http"
	"time"

	"github.com/expensetracker/expenses/internal/rest"
	"github.com/expensetracker/expenses/pkg/record"
	"github.com/expensetracker/expenses/pkg/user"
	log "github.com/sirupsen/logrus"
)

type MonthlyAmountDTO struct {
	Month  string    `json:"month"`
	Start  time.Time `json:"start"`
	Amount float64   `json:"amount"`
}

type ExpenseStatsDTO struct {
	TotalExpenses  int                `json:"totalExpenses"`
	TotalAmount    float64            `json:"totalAmount"`
	AverageAmount  float64            `json:"averageAmount"`
	CategoryCounts map[string]int     `json:"categoryCounts"`
	MonthlyTrend   []MonthlyAmountDTO `json:"monthlyTrend"`
}

type UserTotalsDTO struct {
	Total           float64 `json:"total"`
	DaysWithRecords int     `json:"daysWithRecords"`
}

type BestWorstDTO struct {
	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer}
}

// GetStats godoc
// @Summary Expense statistics
// @Description Totals, category counts and the spending of the last 12 months. Sends CSV when Accept is text/csv.
// @Tags Analytics
// @Produce json
// @Produce text/csv
// @Success 200 {object} ExpenseStatsDTO
// @Router /api/analytics/stats [get]
// @Security BearerAuth
func (handler *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := handler.statsService.GetExpenseStats(r.Context())
	if err != nil {
		writeStatsError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvStatsRenderer.RenderStats(stats)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeCsvResponse(w, csv, "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, statsToDTO(stats))
}

// GetTotals godoc
// @Summary Spending totals
// @Tags Analytics
// @Produce json
// @Success 200 {object} UserTotalsDTO
// @Router /api/analytics/totals [get]
// @Security BearerAuth
func (handler *StatsHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := handler.statsService.GetUserTotals(r.Context())
	if err != nil {
		writeStatsError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, UserTotalsDTO{
		Total:           totals.Total.InexactFloat64(),
		DaysWithRecords: totals.DaysWithRecords,
	})
}

// GetBestWorst godoc
// @Summary Largest and smallest expense
// @Tags Analytics
// @Produce json
// @Success 200 {object} BestWorstDTO
// @Router /api/analytics/best-worst [get]
// @Security BearerAuth
func (handler *StatsHandler) GetBestWorst(w http.ResponseWriter, r *http.Request) {
	bestWorst, err := handler.statsService.GetBestWorst(r.Context())
	if err != nil {
		writeStatsError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BestWorstDTO{
		Best:  bestWorst.Best.InexactFloat64(),
		Worst: bestWorst.Worst.InexactFloat64(),
	})
}

// Export godoc
// @Summary Export records as CSV
// @Description Exports every record matching the search filters
// @Tags Analytics
// @Produce text/csv
// @Param q query string false "Text contained in the description"
// @Param category query string false "Category or all"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD (inclusive)"
// @Success 200 {string} string "CSV"
// @Failure 400 {object} rest.ErrorResponse "Invalid filters"
// @Router /api/analytics/export [get]
// @Security BearerAuth
func (handler *StatsHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters, _, _, err := record.ParseSearchQuery(r.URL.Query(), record.UserLocation(r))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid search filters", err.Error())
		return
	}

	records, err := handler.statsService.ExportRecords(r.Context(), filters)
	if err != nil {
		writeStatsError(w, err)
		return
	}
	log.Debugf("Exporting %d records", len(records))

	csv, err := handler.csvStatsRenderer.RenderRecords(records)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeCsvResponse(w, csv, "expenses.csv")
}

func writeCsvResponse(w http.ResponseWriter, csv string, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write csv response: %v", err)
	}
}

func writeStatsError(w http.ResponseWriter, err error) {
	if errors.Is(err, user.ErrNoUser) {
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	log.Errorf("analytics request failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func statsToDTO(stats ExpenseStats) ExpenseStatsDTO {
	trend := make([]MonthlyAmountDTO, 0, len(stats.MonthlyTrend))
	for _, month := range stats.MonthlyTrend {
		trend = append(trend, MonthlyAmountDTO{
			Month:  month.Label,
			Start:  month.Month,
			Amount: month.Amount.InexactFloat64(),
		})
	}
	return ExpenseStatsDTO{
		TotalExpenses:  stats.TotalExpenses,
		TotalAmount:    stats.TotalAmount.InexactFloat64(),
		AverageAmount:  stats.AverageAmount.InexactFloat64(),
		CategoryCounts: stats.CategoryCounts,
		MonthlyTrend:   trend,
	}
}
