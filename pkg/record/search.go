package record

import (
	"fmt"
	"strings"

	"github.com/expensetracker/expenses/internal/utils"
)

var sortColumns = map[SortField]string{
	SortByDate:     "date",
	SortByAmount:   "amount_cents",
	SortByCategory: "category",
}

// whereClause translates search filters to a SQL condition over the record table. Arguments are
// numbered from $1 and the user id is always the first one.
func whereClause(userId int, filters SearchFilters) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{userId}
	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if q := strings.TrimSpace(filters.Query); q != "" {
		add(`text ILIKE $%d ESCAPE '\'`, "%"+escapeLike(q)+"%")
	}
	if filters.Category != "" && !strings.EqualFold(filters.Category, "all") {
		add("category = $%d", filters.Category)
	}
	if filters.MinAmount != nil {
		add("amount_cents >= $%d", decimalToCents(*filters.MinAmount))
	}
	if filters.MaxAmount != nil {
		add("amount_cents <= $%d", decimalToCents(*filters.MaxAmount))
	}
	if filters.StartDate != nil {
		add("date >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		add("date <= $%d", utils.EndOfDay(*filters.EndDate))
	}
	return strings.Join(conditions, " AND "), args
}

func orderClause(filters SearchFilters) string {
	column, ok := sortColumns[filters.SortBy]
	if !ok {
		return "created_at DESC, id DESC"
	}
	direction := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s, id %s", column, direction, direction)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// normalizePaging applies the search paging bounds.
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxSearchPage {
		page = MaxSearchPage
	}
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	return page, limit
}
