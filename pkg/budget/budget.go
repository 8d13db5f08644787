package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// NearLimitPercentage is the spent percentage from which a budget counts as near its limit.
const NearLimitPercentage = 80

type Budget struct {
	Id        int
	UserId    int
	Category  string
	Amount    decimal.Decimal
	Period    Period
	StartDate time.Time
	EndDate   *time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BudgetStatus struct {
	Budget      Budget
	WindowStart time.Time
	// WindowEnd is exclusive.
	WindowEnd  time.Time
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percentage float64
}

func (s BudgetStatus) IsOverBudget() bool {
	return s.Spent.GreaterThan(s.Budget.Amount)
}

func (s BudgetStatus) IsNearLimit() bool {
	return s.Percentage >= NearLimitPercentage && s.Percentage < 100
}

type Overview struct {
	TotalBudget     decimal.Decimal
	TotalSpent      decimal.Decimal
	TotalRemaining  decimal.Decimal
	OverBudgetCount int
	NearLimitCount  int
	Budgets         []BudgetStatus
}

func NewStatus(budget Budget, windowStart, windowEnd time.Time, spent decimal.Decimal) BudgetStatus {
	if spent.IsNegative() {
		spent = decimal.Zero
	}
	remaining := budget.Amount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	percentage := 0.0
	if budget.Amount.IsPositive() {
		percentage = min(100, spent.Div(budget.Amount).Mul(decimal.NewFromInt(100)).InexactFloat64())
	}
	return BudgetStatus{
		Budget:      budget,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Spent:       spent,
		Remaining:   remaining,
		Percentage:  percentage,
	}
}

func NewOverview(statuses []BudgetStatus) Overview {
	overview := Overview{
		TotalBudget:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		TotalRemaining: decimal.Zero,
		Budgets:        statuses,
	}
	for _, s := range statuses {
		overview.TotalBudget = overview.TotalBudget.Add(s.Budget.Amount)
		overview.TotalSpent = overview.TotalSpent.Add(s.Spent)
		overview.TotalRemaining = overview.TotalRemaining.Add(s.Remaining)
		if s.IsOverBudget() {
			overview.OverBudgetCount++
		}
		if s.IsNearLimit() {
			overview.NearLimitCount++
		}
	}
	return overview
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func decimalToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}
