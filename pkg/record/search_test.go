package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWhereClause(t *testing.T) {
	t.Run("should only filter by user without filters", func(t *testing.T) {
		where, args := whereClause(7, SearchFilters{Category: "all"})

		assert.Equal(t, "user_id = $1", where)
		assert.Equal(t, []any{7}, args)
	})

	t.Run("should number placeholders in order", func(t *testing.T) {
		minAmount := amount("10.5")
		maxAmount := amount("99.999")
		start := day(2025, 1, 1)
		end := day(2025, 1, 31)

		where, args := whereClause(7, SearchFilters{
			Query:     "50%_off",
			Category:  "Food",
			MinAmount: &minAmount,
			MaxAmount: &maxAmount,
			StartDate: &start,
			EndDate:   &end,
		})

		assert.Equal(t, `user_id = $1 AND text ILIKE $2 ESCAPE '\' AND category = $3 AND amount_cents >= $4 AND `+
			`amount_cents <= $5 AND date >= $6 AND date <= $7`, where)
		assert.Equal(t, `%50\%\_off%`, args[1])
		assert.Equal(t, int64(1050), args[3])
		assert.Equal(t, int64(10000), args[4])
		assert.Equal(t, start, args[5])
		assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC), args[6])
	})
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "created_at DESC, id DESC", orderClause(SearchFilters{}))
	assert.Equal(t, "amount_cents ASC, id ASC", orderClause(SearchFilters{SortBy: SortByAmount, SortOrder: "asc"}))
	assert.Equal(t, "date DESC, id DESC", orderClause(SearchFilters{SortBy: SortByDate}))
	assert.Equal(t, "created_at DESC, id DESC", orderClause(SearchFilters{SortBy: "text; DROP TABLE record"}))
}
