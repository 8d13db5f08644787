package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/expensetracker/expenses/internal/rest"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type RecordDTO struct {
	Id        int       `json:"id"`
	Text      string    `json:"text"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRecordRequest struct {
	Text     string          `json:"text"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
}

type CategoryTotalDTO struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type SearchResultDTO struct {
	Records           []RecordDTO                 `json:"records"`
	Page              int                         `json:"page"`
	Limit             int                         `json:"limit"`
	TotalCount        int                         `json:"totalCount"`
	TotalAmount       float64                     `json:"totalAmount"`
	AverageAmount     float64                     `json:"averageAmount"`
	CategoryBreakdown map[string]CategoryTotalDTO `json:"categoryBreakdown"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetRecords godoc
// @Summary Latest records
// @Description Returns the latest records of the current user ordered by date
// @Tags Record
// @Produce json
// @Param limit query int false "Number of records (default 10)"
// @Success 200 {array} RecordDTO
// @Router /api/record [get]
// @Security BearerAuth
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting records")

	limit := DefaultRecentLimit
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive number")
			return
		}
		limit = min(parsed, MaxSearchLimit)
	}

	records, err := h.service.GetRecords(r.Context(), limit)
	if err != nil {
		writeRecordError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, recordsToDTO(records))
}

// AddRecord godoc
// @Summary Add a record
// @Description Stores a new expense record for the current user
// @Tags Record
// @Accept json
// @Produce json
// @Param record body CreateRecordRequest true "Record"
// @Success 201 {object} RecordDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid record"
// @Router /api/record [post]
// @Security BearerAuth
func (h *Handler) AddRecord(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Adding record")

	var request CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	var date time.Time
	if strings.TrimSpace(request.Date) != "" {
		parsed, err := ParseDate(request.Date, UserLocation(r))
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid record", err.Error())
			return
		}
		date = parsed
	}

	created, err := h.service.AddRecord(r.Context(), Record{
		Text:     request.Text,
		Amount:   request.Amount,
		Category: request.Category,
		Date:     date,
	})
	if err != nil {
		writeRecordError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, recordToDTO(created))
}

// DeleteRecord godoc
// @Summary Delete a record
// @Tags Record
// @Param recordId path int true "Record ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Record not found"
// @Router /api/record/{recordId} [delete]
// @Security BearerAuth
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordId, err := strconv.Atoi(mux.Vars(r)["recordId"])
	if err != nil {
		http.Error(w, "Invalid record ID", http.StatusBadRequest)
		return
	}
	log.Debugf("Deleting record %d", recordId)

	if err := h.service.DeleteRecord(r.Context(), recordId); err != nil {
		writeRecordError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchRecords godoc
// @Summary Search records
// @Description Filters, sorts and pages the records of the current user. Totals cover all matches.
// @Tags Record
// @Produce json
// @Param q query string false "Text contained in the description"
// @Param category query string false "Category or all"
// @Param minAmount query number false "Minimum amount (inclusive)"
// @Param maxAmount query number false "Maximum amount (inclusive)"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD (inclusive)"
// @Param sortBy query string false "date, amount or category"
// @Param sortOrder query string false "asc or desc"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size (1-100, default 20)"
// @Success 200 {object} SearchResultDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filters"
// @Router /api/record/search [get]
// @Security BearerAuth
func (h *Handler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Searching records")

	filters, page, limit, err := ParseSearchQuery(r.URL.Query(), UserLocation(r))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid search filters", err.Error())
		return
	}

	result, err := h.service.Search(r.Context(), filters, page, limit)
	if err != nil {
		writeRecordError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SearchResultToDTO(result))
}

// GetCategories godoc
// @Summary Used categories
// @Description Distinct categories of the current user's records
// @Tags Record
// @Produce json
// @Success 200 {array} string
// @Router /api/record/categories [get]
// @Security BearerAuth
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeRecordError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, categories)
}

func writeRecordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, ErrInvalidRecord):
		rest.WriteError(w, http.StatusBadRequest, "Invalid record", err.Error())
	case errors.Is(err, ErrRecordNotFound):
		rest.WriteError(w, http.StatusNotFound, "Record not found", "")
	default:
		log.Errorf("record request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ParseDate accepts YYYY-MM-DD, interpreted as midnight in loc, or an RFC3339 timestamp.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}

// ParseSearchQuery reads search filters and paging from query parameters.
func ParseSearchQuery(query url.Values, loc *time.Location) (SearchFilters, int, int, error) {
	filters := SearchFilters{
		Query:     query.Get("q"),
		Category:  query.Get("category"),
		SortBy:    SortField(strings.ToLower(query.Get("sortBy"))),
		SortOrder: query.Get("sortOrder"),
	}
	if filters.SortBy != "" {
		if _, ok := sortColumns[filters.SortBy]; !ok {
			return SearchFilters{}, 0, 0, fmt.Errorf("unsupported sortBy %q", filters.SortBy)
		}
	}
	if order := strings.ToLower(filters.SortOrder); order != "" && order != "asc" && order != "desc" {
		return SearchFilters{}, 0, 0, fmt.Errorf("unsupported sortOrder %q", filters.SortOrder)
	}

	for name, target := range map[string]**decimal.Decimal{"minAmount": &filters.MinAmount, "maxAmount": &filters.MaxAmount} {
		if value := query.Get(name); value != "" {
			d, err := decimal.NewFromString(value)
			if err != nil {
				return SearchFilters{}, 0, 0, fmt.Errorf("invalid %s %q", name, value)
			}
			*target = &d
		}
	}
	for name, target := range map[string]**time.Time{"startDate": &filters.StartDate, "endDate": &filters.EndDate} {
		if value := query.Get(name); value != "" {
			t, err := ParseDate(value, loc)
			if err != nil {
				return SearchFilters{}, 0, 0, fmt.Errorf("invalid %s: %v", name, err)
			}
			*target = &t
		}
	}

	page, limit := 1, DefaultSearchLimit
	if value := query.Get("page"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return SearchFilters{}, 0, 0, fmt.Errorf("invalid page %q", value)
		}
		page = parsed
	}
	if value := query.Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return SearchFilters{}, 0, 0, fmt.Errorf("invalid limit %q", value)
		}
		limit = parsed
	}
	page, limit = normalizePaging(page, limit)
	return filters, page, limit, nil
}

// UserLocation returns the timezone of the current user, UTC when unknown.
func UserLocation(r *http.Request) *time.Location {
	u, err := user.CurrentUser(r.Context())
	if err != nil || u.Settings.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Settings.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func recordToDTO(r Record) RecordDTO {
	return RecordDTO{
		Id:        r.Id,
		Text:      r.Text,
		Amount:    r.Amount.InexactFloat64(),
		Category:  r.Category,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
	}
}

func recordsToDTO(records []Record) []RecordDTO {
	dtos := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		dtos = append(dtos, recordToDTO(r))
	}
	return dtos
}

func SearchResultToDTO(result SearchResult) SearchResultDTO {
	breakdown := make(map[string]CategoryTotalDTO, len(result.CategoryBreakdown))
	for category, ct := range result.CategoryBreakdown {
		breakdown[category] = CategoryTotalDTO{Count: ct.Count, Total: ct.Total.InexactFloat64()}
	}
	return SearchResultDTO{
		Records:           recordsToDTO(result.Records),
		Page:              result.Page,
		Limit:             result.Limit,
		TotalCount:        result.TotalCount,
		TotalAmount:       result.TotalAmount.InexactFloat64(),
		AverageAmount:     result.AverageAmount.InexactFloat64(),
		CategoryBreakdown: breakdown,
	}
}
