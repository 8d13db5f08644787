package insight

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/expensetracker/expenses/internal/rest"
	"github.com/expensetracker/expenses/pkg/user"
	log "github.com/sirupsen/logrus"
)

type InsightDTO struct {
	Id         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Action     string  `json:"action,omitempty"`
	Confidence float64 `json:"confidence"`
}

type QuestionRequest struct {
	Question string `json:"question"`
}

type AnswerDTO struct {
	Answer string `json:"answer"`
}

type SuggestCategoryRequest struct {
	Description string `json:"description"`
}

type CategorySuggestionDTO struct {
	Category string `json:"category"`
	Error    string `json:"error,omitempty"`
}

var suggestionMessages = map[error]string{
	ErrDescriptionTooShort:   "Description too short for AI analysis (minimum 2 characters)",
	ErrDescriptionTooLong:    "Description too long for AI analysis (maximum 200 characters)",
	ErrSuggestionUnavailable: "Unable to suggest category at this time. Please try again.",
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetInsights godoc
// @Summary AI insights
// @Description Up to four insights on the spending of the last 30 days, rule-based first
// @Tags Insights
// @Produce json
// @Success 200 {array} InsightDTO
// @Failure 429 {string} string "Too many requests"
// @Router /api/insights [get]
// @Security BearerAuth
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Getting insights")

	insights, err := h.service.GetInsights(r.Context())
	if err != nil {
		writeInsightError(w, err)
		return
	}
	dtos := make([]InsightDTO, 0, len(insights))
	for _, i := range insights {
		dtos = append(dtos, InsightDTO{
			Id:         i.Id,
			Type:       string(i.Type),
			Title:      i.Title,
			Message:    i.Message,
			Action:     i.Action,
			Confidence: i.Confidence,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// AnswerQuestion godoc
// @Summary Ask about your spending
// @Tags Insights
// @Accept json
// @Produce json
// @Param question body QuestionRequest true "Question (max 500 characters)"
// @Success 200 {object} AnswerDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid question"
// @Failure 429 {string} string "Too many requests"
// @Router /api/insights/answer [post]
// @Security BearerAuth
func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var request QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	answer, err := h.service.AnswerQuestion(r.Context(), request.Question)
	if err != nil {
		writeInsightError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AnswerDTO{Answer: answer})
}

// SuggestCategory godoc
// @Summary Suggest a category
// @Description Suggests the category of an expense from its description. Falls back to Other.
// @Tags Insights
// @Accept json
// @Produce json
// @Param description body SuggestCategoryRequest true "Expense description"
// @Success 200 {object} CategorySuggestionDTO
// @Failure 400 {object} CategorySuggestionDTO "Description too short or too long"
// @Failure 429 {string} string "Too many requests"
// @Router /api/record/suggest-category [post]
// @Security BearerAuth
func (h *Handler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var request SuggestCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	if _, err := user.CurrentId(r.Context()); err != nil {
		writeInsightError(w, err)
		return
	}

	category, err := h.service.SuggestCategory(r.Context(), request.Description)
	response := CategorySuggestionDTO{Category: category}
	status := http.StatusOK
	if err != nil {
		response.Error = suggestionMessages[ErrSuggestionUnavailable]
		for known, message := range suggestionMessages {
			if errors.Is(err, known) {
				response.Error = message
			}
		}
		if errors.Is(err, ErrDescriptionTooShort) || errors.Is(err, ErrDescriptionTooLong) {
			status = http.StatusBadRequest
		}
	}
	rest.WriteJSON(w, status, response)
}

func writeInsightError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, ErrInvalidQuestion):
		rest.WriteError(w, http.StatusBadRequest, "Invalid question", err.Error())
	default:
		log.Errorf("insight request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
