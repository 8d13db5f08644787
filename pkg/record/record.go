package record

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Record struct {
	Id        int
	UserId    int
	Text      string
	Amount    decimal.Decimal
	Category  string
	Date      time.Time
	CreatedAt time.Time
}

const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transportation"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategoryBills         = "Bills"
	CategoryHealthcare    = "Healthcare"
	CategoryOther         = "Other"
)

// Categories lists the categories a record can have, in display order.
var Categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryEntertainment,
	CategoryBills,
	CategoryHealthcare,
	CategoryOther,
}

// NormalizeCategory returns the canonical spelling of a known category, ignoring case.
func NormalizeCategory(category string) (string, bool) {
	category = strings.TrimSpace(category)
	for _, c := range Categories {
		if strings.EqualFold(c, category) {
			return c, true
		}
	}
	return "", false
}

const (
	MaxTextLength      = 200
	DefaultRecentLimit = 10
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	MaxSearchPage      = 100000
)

var MaxAmount = decimal.NewFromInt(1_000_000)

type SortField string

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"
)

type SearchFilters struct {
	Query     string
	Category  string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	StartDate *time.Time
	// EndDate is inclusive: records up to the end of that day match.
	EndDate   *time.Time
	SortBy    SortField
	SortOrder string
}

type CategoryTotal struct {
	Count int
	Total decimal.Decimal
}

type SearchResult struct {
	Records           []Record
	Page              int
	Limit             int
	TotalCount        int
	TotalAmount       decimal.Decimal
	AverageAmount     decimal.Decimal
	CategoryBreakdown map[string]CategoryTotal
}

// Summary aggregates all records of a user.
type Summary struct {
	Count          int
	PositiveCount  int
	Total          decimal.Decimal
	Max            decimal.Decimal
	Min            decimal.Decimal
	CategoryCounts map[string]int
}

type MonthTotal struct {
	Month  time.Time
	Amount decimal.Decimal
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func decimalToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}
