package insight

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	highAverageThreshold = decimal.NewFromInt(50)
	smallInsightAmount   = decimal.NewFromInt(10)
	smallAnswerAmount    = decimal.NewFromInt(15)
	topCategoryShare     = decimal.RequireFromString("0.4")
	smallExpenseShare    = decimal.RequireFromString("0.6")
	budgetSuggestion     = decimal.RequireFromString("1.1")
)

const (
	activeTrackingDays    = 3
	activeTrackingRecords = 5
)

// ruleInsights checks the rules in order and returns at most two matches.
func ruleInsights(c expenseContext, now time.Time) []Insight {
	insights := make([]Insight, 0, maxRuleInsights)

	if c.average.GreaterThan(highAverageThreshold) {
		insights = append(insights, Insight{
			Id:         "rule-high-avg",
			Type:       TypeWarning,
			Title:      "High Average Spending",
			Message:    fmt.Sprintf("Your average expense is %s. Consider budgeting.", money(c.average)),
			Action:     "Create budget",
			Confidence: 0.9,
		})
	}

	if top := c.top(); top.total.GreaterThan(c.total.Mul(topCategoryShare)) {
		insights = append(insights, Insight{
			Id:         "rule-top-category",
			Type:       TypeInfo,
			Title:      top.category + " Focus",
			Message:    fmt.Sprintf("%s is %s%% of your spending.", top.category, c.share(top.total)),
			Action:     "Review category",
			Confidence: 0.95,
		})
	}

	since := now.AddDate(0, 0, -activeTrackingDays)
	recent := 0
	for _, r := range c.records {
		if !r.CreatedAt.Before(since) {
			recent++
		}
	}
	if recent > activeTrackingRecords {
		insights = append(insights, Insight{
			Id:         "rule-active",
			Type:       TypeSuccess,
			Title:      "Active Tracking",
			Message:    fmt.Sprintf("Great job! You've logged %d expenses recently.", recent),
			Action:     "Keep it up",
			Confidence: 1.0,
		})
	}

	smallCount, smallTotal := smallExpenses(c, smallInsightAmount)
	if decimal.NewFromInt(int64(smallCount)).GreaterThan(decimal.NewFromInt(int64(len(c.records))).Mul(smallExpenseShare)) {
		insights = append(insights, Insight{
			Id:         "rule-small",
			Type:       TypeTip,
			Title:      "Small Expenses Add Up",
			Message:    fmt.Sprintf("%d small purchases total %s.", smallCount, money(smallTotal)),
			Action:     "Review small purchases",
			Confidence: 0.8,
		})
	}

	if len(insights) > maxRuleInsights {
		insights = insights[:maxRuleInsights]
	}
	return insights
}

func smallExpenses(c expenseContext, below decimal.Decimal) (int, decimal.Decimal) {
	count, total := 0, decimal.Zero
	for _, r := range c.records {
		if r.Amount.LessThan(below) {
			count++
			total = total.Add(r.Amount)
		}
	}
	return count, total
}

// ruleAnswer answers common questions from the records alone. ok is false when no rule applies.
func ruleAnswer(question string, c expenseContext) (string, bool) {
	if c.empty() {
		return "You don't have any expenses recorded yet. Start by adding some expenses to get personalized insights and answers.", true
	}

	q := strings.ToLower(question)
	top := c.top()
	switch {
	case strings.Contains(q, "budget") || strings.Contains(q, "limit"):
		return fmt.Sprintf("Based on your spending of %s across %d expenses, I'd suggest setting a monthly budget of %s. Your top spending category is %s at %s.",
			money(c.total), len(c.records), money(c.total.Mul(budgetSuggestion)), top.category, money(top.total)), true
	case strings.Contains(q, "spending") || strings.Contains(q, "pattern"):
		return fmt.Sprintf("Your spending pattern shows %s as your largest expense category (%s%% of total). Your average expense is %s. Consider tracking daily to identify trends.",
			top.category, c.share(top.total), money(c.average)), true
	case strings.Contains(q, "save") || strings.Contains(q, "reduce"):
		count, total := smallExpenses(c, smallAnswerAmount)
		return fmt.Sprintf("You could save by reviewing small purchases: %d expenses under $15 total %s. Also focus on %s spending which is your largest category.",
			count, money(total), top.category), true
	case strings.Contains(q, "category") || strings.Contains(q, "food") || strings.Contains(q, "transport"):
		parts := make([]string, 0, 3)
		for _, ct := range c.categories[:min(3, len(c.categories))] {
			parts = append(parts, fmt.Sprintf("%s (%s)", ct.category, money(ct.total)))
		}
		return fmt.Sprintf("Your top spending categories are: %s. Focus on the highest ones for potential savings.", strings.Join(parts, ", ")), true
	}
	return "", false
}
