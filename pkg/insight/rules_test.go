package insight

import (
	"testing"
	"time"

	"github.com/expensetracker/expenses/pkg/record"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func rec(value string, category string, date time.Time) record.Record {
	return record.Record{Text: "expense", Amount: decimal.RequireFromString(value), Category: category, Date: date, CreatedAt: date}
}

func TestRuleInsights(t *testing.T) {
	old := now.AddDate(0, 0, -20)

	t.Run("should report top category and active tracking", func(t *testing.T) {
		records := make([]record.Record, 0, 7)
		for i := 0; i < 7; i++ {
			records = append(records, rec("5", "Food", now.AddDate(0, 0, -1)))
		}

		insights := ruleInsights(newExpenseContext(records), now)

		assert.Equal(t, []string{"rule-top-category", "rule-active"}, ids(insights))
		assert.Equal(t, "Food Focus", insights[0].Title)
		assert.Equal(t, "Great job! You've logged 7 expenses recently.", insights[1].Message)
	})

	t.Run("should count records by when they were logged", func(t *testing.T) {
		backdated := make([]record.Record, 0, 6)
		futureDated := make([]record.Record, 0, 6)
		for i := 0; i < 6; i++ {
			r := rec("20", []string{"Food", "Bills", "Shopping"}[i%3], now.AddDate(0, 0, -10))
			r.CreatedAt = now.Add(-time.Hour)
			backdated = append(backdated, r)

			f := rec("20", []string{"Food", "Bills", "Shopping"}[i%3], now.AddDate(0, 0, 30))
			f.CreatedAt = now.AddDate(0, 0, -20)
			futureDated = append(futureDated, f)
		}

		assert.Equal(t, []string{"rule-active"}, ids(ruleInsights(newExpenseContext(backdated), now)))
		assert.Empty(t, ruleInsights(newExpenseContext(futureDated), now))
	})

	t.Run("should report small expenses", func(t *testing.T) {
		records := []record.Record{
			rec("5", "Food", old),
			rec("4", "Bills", old),
			rec("3", "Shopping", old),
			rec("100", "Other", old),
		}

		insights := ruleInsights(newExpenseContext(records), now)

		assert.Equal(t, []string{"rule-top-category", "rule-small"}, ids(insights))
		assert.Equal(t, "Other is 89% of your spending.", insights[0].Message)
		assert.Equal(t, "3 small purchases total $12.00.", insights[1].Message)
	})

	t.Run("should return nothing for balanced spending", func(t *testing.T) {
		records := []record.Record{
			rec("20", "Food", old),
			rec("20", "Bills", old),
			rec("20", "Shopping", old),
		}

		assert.Empty(t, ruleInsights(newExpenseContext(records), now))
	})
}

func TestRuleAnswer(t *testing.T) {
	expenses := newExpenseContext([]record.Record{
		rec("60", "Food", now),
		rec("80", "Food", now),
		rec("12", "Bills", now),
	})
	tests := []struct {
		question string
		want     string
	}{
		{
			question: "Can you help me with a budget?",
			want:     "Based on your spending of $152.00 across 3 expenses, I'd suggest setting a monthly budget of $167.20. Your top spending category is Food at $140.00.",
		},
		{
			question: "What is my spending pattern?",
			want:     "Your spending pattern shows Food as your largest expense category (92% of total). Your average expense is $50.67. Consider tracking daily to identify trends.",
		},
		{
			question: "How can I SAVE money?",
			want:     "You could save by reviewing small purchases: 1 expenses under $15 total $12.00. Also focus on Food spending which is your largest category.",
		},
		{
			question: "Which category is the largest?",
			want:     "Your top spending categories are: Food ($140.00), Bills ($12.00). Focus on the highest ones for potential savings.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			answer, ok := ruleAnswer(tt.question, expenses)

			assert.True(t, ok)
			assert.Equal(t, tt.want, answer)
		})
	}

	t.Run("should not answer other questions", func(t *testing.T) {
		_, ok := ruleAnswer("Am I rich?", expenses)

		assert.False(t, ok)
	})
}
