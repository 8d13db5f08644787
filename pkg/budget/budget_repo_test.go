package budget

import (
	"context"
	"os"
	"testing"

	"github.com/expensetracker/expenses/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, BudgetRepo, int) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	userId := test_utils.CreateTestUser(t, ctx, db, "sub-1")
	return ctx, NewBudgetRepo(db), userId
}

func TestBudgetRepoImpl_Upsert(t *testing.T) {
	// given
	ctx, repo, userId := setupTestRepository(t)
	endDate := date(2025, 12, 31)
	first, err := repo.Upsert(ctx, userId, Budget{
		Category:  "Food",
		Amount:    amount("150.25"),
		Period:    PeriodMonthly,
		StartDate: date(2025, 1, 1),
		EndDate:   &endDate,
	})
	require.NoError(t, err)
	deactivated, err := repo.Deactivate(ctx, userId, first.Id)
	require.NoError(t, err)
	require.True(t, deactivated)

	// when
	second, err := repo.Upsert(ctx, userId, Budget{Category: "Food", Amount: amount("200"), Period: PeriodMonthly, StartDate: date(2025, 6, 1)})

	// then
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.True(t, amount("200").Equal(second.Amount))
	assert.True(t, second.IsActive)
	assert.True(t, date(2025, 6, 1).Equal(second.StartDate))
	assert.Nil(t, second.EndDate)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestBudgetRepoImpl_GetActive(t *testing.T) {
	// given
	ctx, repo, userId := setupTestRepository(t)
	food, err := repo.Upsert(ctx, userId, Budget{Category: "Food", Amount: amount("100"), Period: PeriodMonthly, StartDate: date(2025, 1, 1)})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, userId, Budget{Category: "Food", Amount: amount("20"), Period: PeriodWeekly, StartDate: date(2025, 1, 1)})
	require.NoError(t, err)
	bills, err := repo.Upsert(ctx, userId, Budget{Category: "Bills", Amount: amount("50"), Period: PeriodMonthly, StartDate: date(2025, 1, 1)})
	require.NoError(t, err)
	_, err = repo.Deactivate(ctx, userId, food.Id)
	require.NoError(t, err)

	// when
	budgets, err := repo.GetActive(ctx, userId)

	// then
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, bills.Id, budgets[0].Id)
	assert.Equal(t, PeriodWeekly, budgets[1].Period)
	assert.Nil(t, budgets[0].EndDate)

	other, err := repo.GetActive(ctx, userId+1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestBudgetRepoImpl_Deactivate(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	b, err := repo.Upsert(ctx, userId, Budget{Category: "Food", Amount: amount("100"), Period: PeriodMonthly, StartDate: date(2025, 1, 1)})
	require.NoError(t, err)

	deleted, err := repo.Deactivate(ctx, userId+1, b.Id)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Deactivate(ctx, userId, b.Id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Deactivate(ctx, userId, b.Id)
	require.NoError(t, err)
	assert.False(t, deleted)
}
