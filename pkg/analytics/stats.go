package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendMonths is the number of calendar months in the spending trend, the current one included.
const TrendMonths = 12

type MonthlyAmount struct {
	Month  time.Time
	Label  string
	Amount decimal.Decimal
}

type ExpenseStats struct {
	TotalExpenses  int
	TotalAmount    decimal.Decimal
	AverageAmount  decimal.Decimal
	CategoryCounts map[string]int
	MonthlyTrend   []MonthlyAmount
}

type UserTotals struct {
	Total decimal.Decimal
	// DaysWithRecords counts records with an amount above zero.
	DaysWithRecords int
}

type BestWorst struct {
	Best  decimal.Decimal
	Worst decimal.Decimal
}
