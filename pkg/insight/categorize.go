package insight

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/expensetracker/expenses/internal/metrics"
	"github.com/expensetracker/expenses/pkg/llm"
	"github.com/expensetracker/expenses/pkg/record"
	log "github.com/sirupsen/logrus"
)

var (
	ErrDescriptionTooShort   = errors.New("description too short for AI analysis (minimum 2 characters)")
	ErrDescriptionTooLong    = errors.New("description too long for AI analysis (maximum 200 characters)")
	ErrSuggestionUnavailable = errors.New("unable to suggest category at this time")
)

const (
	minDescriptionLength = 2
	maxDescriptionLength = 200
)

type categoryKeywords struct {
	category string
	keywords []string
}

// categoryRules are checked in order, the first category with a matching keyword wins.
var categoryRules = []categoryKeywords{
	{record.CategoryFood, []string{"coffee", "restaurant", "food", "lunch", "dinner", "breakfast", "starbucks", "mcdonalds", "grocery", "takeout", "pizza", "burger"}},
	{record.CategoryTransport, []string{"gas", "fuel", "uber", "taxi", "bus", "train", "parking", "car", "transport"}},
	{record.CategoryShopping, []string{"amazon", "target", "walmart", "clothes", "shopping", "store", "purchase", "buy"}},
	{record.CategoryEntertainment, []string{"movie", "netflix", "spotify", "game", "concert", "entertainment"}},
	{record.CategoryBills, []string{"electric", "water", "internet", "phone", "rent", "insurance", "bill", "utility"}},
	{record.CategoryHealthcare, []string{"doctor", "pharmacy", "medicine", "hospital", "dental", "health"}},
}

// fuzzyCategories maps fragments of a model answer to a category.
var fuzzyCategories = []struct {
	fragment string
	category string
}{
	{"food", record.CategoryFood},
	{"transport", record.CategoryTransport},
	{"shop", record.CategoryShopping},
	{"entertain", record.CategoryEntertainment},
	{"bill", record.CategoryBills},
	{"health", record.CategoryHealthcare},
}

const categorizeSystemPrompt = `You are an expense categorization AI. You must categorize expenses into exactly one of these categories:

Food - restaurants, groceries, coffee, takeout, dining
Transportation - gas, uber, taxi, bus, parking, car expenses
Shopping - clothes, electronics, retail purchases, amazon
Entertainment - movies, streaming, games, concerts, fun activities
Bills - utilities, rent, phone, internet, insurance, recurring payments
Healthcare - doctor visits, pharmacy, medicine, medical expenses
Other - anything that doesn't fit the above categories

IMPORTANT: Respond with ONLY the exact category name from the list above. No explanations, no extra text.`

// SuggestCategory returns the category for an expense description. On any error the category is
// Other.
func (s *ServiceImpl) SuggestCategory(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	switch length := utf8.RuneCountInString(description); {
	case length < minDescriptionLength:
		return record.CategoryOther, ErrDescriptionTooShort
	case length > maxDescriptionLength:
		return record.CategoryOther, ErrDescriptionTooLong
	}

	if category, ok := keywordCategory(description); ok {
		metrics.RecordInsightSource("category", "rule")
		return category, nil
	}

	response, err := s.llm.Complete(ctx, llm.Request{
		Purpose: "categorize",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: categorizeSystemPrompt},
			{Role: llm.RoleUser, Content: `Categorize: "` + description + `"`},
		},
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if err != nil {
		log.Debugf("category suggestion for %q failed: %v", description, err)
		metrics.RecordInsightSource("category", "fallback")
		return record.CategoryOther, ErrSuggestionUnavailable
	}

	category := normalizeModelCategory(response)
	log.Debugf("AI categorization: %q -> %s", description, category)
	metrics.RecordInsightSource("category", "ai")
	return category, nil
}

func keywordCategory(description string) (string, bool) {
	lower := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category, true
			}
		}
	}
	return "", false
}

func normalizeModelCategory(response string) string {
	answer := strings.TrimSpace(response)
	answer, _, _ = strings.Cut(answer, "\n")
	answer, _, _ = strings.Cut(answer, ".")
	answer, _, _ = strings.Cut(answer, ",")
	answer = strings.TrimSpace(answer)
	answer = strings.NewReplacer(`"`, "", "'", "").Replace(answer)

	lower := strings.ToLower(answer)
	for _, f := range fuzzyCategories {
		if strings.Contains(lower, f.fragment) {
			return f.category
		}
	}
	if category, ok := record.NormalizeCategory(answer); ok {
		return category
	}
	return record.CategoryOther
}
