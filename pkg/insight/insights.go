package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/expensetracker/expenses/internal/metrics"
	"github.com/expensetracker/expenses/pkg/llm"
	log "github.com/sirupsen/logrus"
)

const insightsSystemPrompt = "You are a financial advisor. Return ONLY valid JSON arrays. Be concise and helpful."

const insightsPromptTemplate = `Analyze expenses and provide 1-2 brief financial insights:

Total: %s, Average: %s
Categories: %s
Recent expenses: %s

Return ONLY a JSON array with this exact format:
[{"type":"tip","title":"Short Title","message":"Brief insight under 80 chars","action":"Action under 40 chars","confidence":0.8}]

Types: "warning", "info", "success", "tip"
Keep titles under 25 chars, messages under 80 chars, actions under 40 chars.`

// GetInsights returns up to four insights for the current user, rule-based ones first. Storage
// and model failures never surface: they result in fallback or rule-only insights.
func (s *ServiceImpl) GetInsights(ctx context.Context) ([]Insight, error) {
	userId, err := currentUserId(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(userId); ok {
		metrics.RecordInsightSource("insights", "cache")
		return copyInsights(cached), nil
	}

	expenses, err := s.loadContext(ctx)
	if err != nil {
		log.Errorf("failed to load expenses for insights of user %d: %v", userId, err)
		metrics.RecordInsightSource("insights", "fallback")
		return copyInsights(fallbackInsights), nil
	}

	var insights []Insight
	if expenses.empty() {
		insights = copyInsights(welcomeInsights)
	} else {
		insights = ruleInsights(expenses, s.clock.Now())
		metrics.RecordInsightSource("insights", "rule")
		if aiInsights := s.modelInsights(ctx, expenses); len(aiInsights) > 0 {
			metrics.RecordInsightSource("insights", "ai")
			insights = append(insights, aiInsights...)
		}
		if len(insights) > maxInsights {
			insights = insights[:maxInsights]
		}
	}

	s.cache.Add(userId, insights)
	return copyInsights(insights), nil
}

func (s *ServiceImpl) modelInsights(ctx context.Context, expenses expenseContext) []Insight {
	prompt := fmt.Sprintf(insightsPromptTemplate,
		money(expenses.total),
		money(expenses.average),
		strings.Join(expenses.categoryNames(), ", "),
		expenses.promptExpenses(10, 50),
	)
	response, err := s.llm.Complete(ctx, llm.Request{
		Purpose: "insights",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: insightsSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		if !isDisabled(err) {
			log.Warnf("AI insights unavailable, using rule-based insights only: %v", err)
		}
		return nil
	}

	insights, ok := parseModelInsights(response)
	if !ok {
		log.Warnf("failed to parse AI insights response: %q", response)
		return nil
	}
	return insights
}
