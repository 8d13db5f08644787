package insight

import (
	"encoding/json"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/expensetracker/expenses/pkg/record"
	"github.com/shopspring/decimal"
)

const (
	contextDays  = 30
	contextLimit = 50
)

// expenseContext is the view of recent records the rules and prompts work on. Records are
// newest first.
type expenseContext struct {
	records []record.Record
	total   decimal.Decimal
	average decimal.Decimal
	// categories ordered by total spend, largest first, ties in order of appearance
	categories []categoryTotal
}

type categoryTotal struct {
	category string
	total    decimal.Decimal
}

func newExpenseContext(records []record.Record) expenseContext {
	c := expenseContext{records: records, total: decimal.Zero, average: decimal.Zero}
	index := map[string]int{}
	for _, r := range records {
		c.total = c.total.Add(r.Amount)
		i, ok := index[r.Category]
		if !ok {
			i = len(c.categories)
			index[r.Category] = i
			c.categories = append(c.categories, categoryTotal{category: r.Category, total: decimal.Zero})
		}
		c.categories[i].total = c.categories[i].total.Add(r.Amount)
	}
	if len(records) > 0 {
		c.average = c.total.Div(decimal.NewFromInt(int64(len(records))))
	}
	sort.SliceStable(c.categories, func(i, j int) bool {
		return c.categories[i].total.GreaterThan(c.categories[j].total)
	})
	return c
}

func (c expenseContext) empty() bool {
	return len(c.records) == 0
}

func (c expenseContext) top() categoryTotal {
	if len(c.categories) == 0 {
		return categoryTotal{total: decimal.Zero}
	}
	return c.categories[0]
}

// share returns part as a whole percentage of the context total.
func (c expenseContext) share(part decimal.Decimal) string {
	if !c.total.IsPositive() {
		return "0"
	}
	return part.Div(c.total).Mul(decimal.NewFromInt(100)).StringFixed(0)
}

func (c expenseContext) categoryNames() []string {
	names := make([]string, 0, len(c.categories))
	seen := map[string]bool{}
	for _, r := range c.records {
		if !seen[r.Category] {
			seen[r.Category] = true
			names = append(names, r.Category)
		}
	}
	return names
}

type promptExpense struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// promptExpenses renders up to limit records as the JSON list sent to the model.
func (c expenseContext) promptExpenses(limit int, descriptionLength int) string {
	expenses := make([]promptExpense, 0, min(limit, len(c.records)))
	for _, r := range c.records[:min(limit, len(c.records))] {
		expenses = append(expenses, promptExpense{
			Amount:      r.Amount.InexactFloat64(),
			Category:    r.Category,
			Description: truncate(r.Text, descriptionLength),
			Date:        r.CreatedAt.UTC().Format(time.DateOnly),
		})
	}
	data, err := json.Marshal(expenses)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func truncate(s string, length int) string {
	if utf8.RuneCountInString(s) <= length {
		return s
	}
	return string([]rune(s)[:length])
}
