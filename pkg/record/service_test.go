package record

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/expensetracker/expenses/internal/event_bus"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServiceTest() (context.Context, *ServiceImpl, *RepositoryStub, *event_bus.EventBus) {
	repo := NewRepositoryStub()
	bus := event_bus.NewEventBus()
	ctx := user.WithUser(context.Background(), user.User{Id: 1, Uid: "sub-1"})
	return ctx, NewService(repo, bus), repo, bus
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestServiceImpl_AddRecord(t *testing.T) {
	t.Run("should store valid record and publish event", func(t *testing.T) {
		// given
		ctx, service, _, bus := setupServiceTest()
		var published []event_bus.RecordCreated
		event_bus.SubscribeTyped(bus, event_bus.RecordCreatedEvent, func(e event_bus.EventT[event_bus.RecordCreated]) error {
			published = append(published, e.Data)
			return nil
		})

		// when
		created, err := service.AddRecord(ctx, Record{
			Text:     "  Lunch  ",
			Amount:   amount("12.345"),
			Category: "food",
			Date:     day(2025, 3, 1),
		})

		// then
		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.Equal(t, "Lunch", created.Text)
		assert.Equal(t, "Food", created.Category)
		assert.True(t, amount("12.35").Equal(created.Amount), created.Amount.String())
		require.Len(t, published, 1)
		assert.Equal(t, created.Id, published[0].Id)
		assert.Equal(t, 1, published[0].UserId)
	})

	invalid := map[string]Record{
		"missing text":     {Text: " ", Amount: amount("1"), Category: "Food", Date: day(2025, 1, 1)},
		"too long text":    {Text: string(make([]rune, 201)), Amount: amount("1"), Category: "Food", Date: day(2025, 1, 1)},
		"zero amount":      {Text: "x", Amount: amount("0"), Category: "Food", Date: day(2025, 1, 1)},
		"negative amount":  {Text: "x", Amount: amount("-5"), Category: "Food", Date: day(2025, 1, 1)},
		"rounds to zero":   {Text: "x", Amount: amount("0.004"), Category: "Food", Date: day(2025, 1, 1)},
		"too large amount": {Text: "x", Amount: amount("1000000.01"), Category: "Food", Date: day(2025, 1, 1)},
		"unknown category": {Text: "x", Amount: amount("1"), Category: "Travel", Date: day(2025, 1, 1)},
		"missing date":     {Text: "x", Amount: amount("1"), Category: "Food"},
	}
	for name, input := range invalid {
		t.Run("should reject "+name, func(t *testing.T) {
			ctx, service, repo, _ := setupServiceTest()

			_, err := service.AddRecord(ctx, input)

			assert.ErrorIs(t, err, ErrInvalidRecord)
			records, _ := repo.ListRecent(ctx, 1, 10)
			assert.Empty(t, records)
		})
	}

	t.Run("should fail without user", func(t *testing.T) {
		_, service, _, _ := setupServiceTest()

		_, err := service.AddRecord(context.Background(), Record{Text: "x", Amount: amount("1"), Category: "Food", Date: day(2025, 1, 1)})

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_DeleteRecord(t *testing.T) {
	t.Run("should delete own record and publish event", func(t *testing.T) {
		ctx, service, _, bus := setupServiceTest()
		deletedIds := []int{}
		event_bus.SubscribeTyped(bus, event_bus.RecordDeletedEvent, func(e event_bus.EventT[event_bus.RecordDeleted]) error {
			deletedIds = append(deletedIds, e.Data.Id)
			return nil
		})
		created, err := service.AddRecord(ctx, Record{Text: "Taxi", Amount: amount("20"), Category: "Transportation", Date: day(2025, 1, 1)})
		require.NoError(t, err)

		err = service.DeleteRecord(ctx, created.Id)

		require.NoError(t, err)
		assert.Equal(t, []int{created.Id}, deletedIds)
	})

	t.Run("should not delete record of another user", func(t *testing.T) {
		ctx, service, _, _ := setupServiceTest()
		created, err := service.AddRecord(ctx, Record{Text: "Taxi", Amount: amount("20"), Category: "Transportation", Date: day(2025, 1, 1)})
		require.NoError(t, err)
		otherCtx := user.WithUser(context.Background(), user.User{Id: 2})

		err = service.DeleteRecord(otherCtx, created.Id)

		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("should report missing record", func(t *testing.T) {
		ctx, service, _, _ := setupServiceTest()

		assert.ErrorIs(t, service.DeleteRecord(ctx, 42), ErrRecordNotFound)
	})
}

func TestServiceImpl_SubscriberFailure(t *testing.T) {
	// given
	ctx, service, repo, bus := setupServiceTest()
	bus.Subscribe(event_bus.RecordCreatedEvent, func(e event_bus.Event) error {
		return errors.New("cache unavailable")
	})
	bus.Subscribe(event_bus.RecordDeletedEvent, func(e event_bus.Event) error {
		return errors.New("cache unavailable")
	})

	// when
	created, addErr := service.AddRecord(ctx, Record{Text: "Taxi", Amount: amount("20"), Category: "Transportation", Date: day(2025, 1, 1)})

	// then
	require.NoError(t, addErr)
	assert.NotZero(t, created.Id)
	stored, err := repo.ListRecent(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	// when
	deleteErr := service.DeleteRecord(ctx, created.Id)

	// then
	require.NoError(t, deleteErr)
	stored, err = repo.ListRecent(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestServiceImpl_GetRecords(t *testing.T) {
	// given
	ctx, service, _, _ := setupServiceTest()
	for i := 1; i <= 12; i++ {
		_, err := service.AddRecord(ctx, Record{Text: "r", Amount: decimal.NewFromInt(int64(i)), Category: "Other", Date: day(2025, 1, i)})
		require.NoError(t, err)
	}

	// when
	records, err := service.GetRecords(ctx, 0)

	// then
	require.NoError(t, err)
	assert.Len(t, records, DefaultRecentLimit)
	assert.Equal(t, day(2025, 1, 12), records[0].Date)
	assert.Equal(t, day(2025, 1, 3), records[9].Date)
}

func TestServiceImpl_Search(t *testing.T) {
	seed := func(t *testing.T) (context.Context, *ServiceImpl) {
		ctx, service, _, _ := setupServiceTest()
		for _, r := range []Record{
			{Text: "Coffee at Starbucks", Amount: amount("4.50"), Category: "Food", Date: day(2025, 1, 5)},
			{Text: "Groceries", Amount: amount("80"), Category: "Food", Date: day(2025, 1, 10)},
			{Text: "Uber ride", Amount: amount("25"), Category: "Transportation", Date: day(2025, 1, 15)},
			{Text: "Netflix", Amount: amount("15.99"), Category: "Entertainment", Date: day(2025, 2, 1)},
		} {
			_, err := service.AddRecord(ctx, r)
			require.NoError(t, err)
		}
		return ctx, service
	}

	t.Run("should compute totals over all matches", func(t *testing.T) {
		ctx, service := seed(t)

		result, err := service.Search(ctx, SearchFilters{}, 1, 2)

		require.NoError(t, err)
		assert.Len(t, result.Records, 2)
		assert.Equal(t, 4, result.TotalCount)
		assert.True(t, amount("125.49").Equal(result.TotalAmount), result.TotalAmount.String())
		assert.True(t, amount("31.37").Equal(result.AverageAmount), result.AverageAmount.String())
		assert.Equal(t, 2, result.CategoryBreakdown["Food"].Count)
		assert.True(t, amount("84.5").Equal(result.CategoryBreakdown["Food"].Total))
	})

	t.Run("should filter by text, category, amount and inclusive end date", func(t *testing.T) {
		ctx, service := seed(t)
		minAmount := amount("5")
		endDate := day(2025, 1, 15)

		result, err := service.Search(ctx, SearchFilters{
			Category:  "all",
			MinAmount: &minAmount,
			EndDate:   &endDate,
			SortBy:    SortByAmount,
			SortOrder: "asc",
		}, 1, 20)

		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		assert.Equal(t, "Uber ride", result.Records[0].Text)
		assert.Equal(t, "Groceries", result.Records[1].Text)
	})

	t.Run("should match text case-insensitively", func(t *testing.T) {
		ctx, service := seed(t)

		result, err := service.Search(ctx, SearchFilters{Query: "STARBUCKS"}, 1, 20)

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "Coffee at Starbucks", result.Records[0].Text)
	})

	t.Run("should return empty result with zero average", func(t *testing.T) {
		ctx, service := seed(t)

		result, err := service.Search(ctx, SearchFilters{Category: "Healthcare"}, 1, 20)

		require.NoError(t, err)
		assert.Empty(t, result.Records)
		assert.Equal(t, 0, result.TotalCount)
		assert.True(t, result.AverageAmount.IsZero())
	})

	t.Run("should normalize paging", func(t *testing.T) {
		ctx, service := seed(t)

		result, err := service.Search(ctx, SearchFilters{}, 0, 500)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, MaxSearchLimit, result.Limit)
	})

	t.Run("should clamp huge page", func(t *testing.T) {
		ctx, service := seed(t)

		result, err := service.Search(ctx, SearchFilters{}, math.MaxInt, MaxSearchLimit)

		require.NoError(t, err)
		assert.Equal(t, MaxSearchPage, result.Page)
		assert.Empty(t, result.Records)
		assert.Equal(t, 4, result.TotalCount)
	})
}

func TestServiceImpl_SumByCategoryBetween(t *testing.T) {
	ctx, service, _, _ := setupServiceTest()
	for _, r := range []Record{
		{Text: "a", Amount: amount("10"), Category: "Food", Date: day(2025, 1, 1)},
		{Text: "b", Amount: amount("5.25"), Category: "Food", Date: day(2025, 1, 31)},
		{Text: "c", Amount: amount("7"), Category: "Food", Date: day(2025, 2, 1)},
		{Text: "d", Amount: amount("100"), Category: "Bills", Date: day(2025, 1, 10)},
	} {
		_, err := service.AddRecord(ctx, r)
		require.NoError(t, err)
	}

	spent, err := service.SumByCategoryBetween(ctx, "Food", day(2025, 1, 1), day(2025, 2, 1))

	require.NoError(t, err)
	assert.True(t, amount("15.25").Equal(spent), spent.String())
}

func TestServiceImpl_RepositoryError(t *testing.T) {
	ctx, service, repo, _ := setupServiceTest()
	repo.Err = errors.New("db down")

	_, err := service.GetRecords(ctx, 5)

	assert.EqualError(t, err, "db down")
}
