package user

import (
	"context"
	"os"
	"sync"
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

func setupTestRepository(t *testing.T) (context.Context, Repo) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, NewUserRepo(db)
}

func TestUserRepoImpl_CreateUser(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)

	// when
	created, err := repo.CreateUser(ctx, User{
		Uid:         "sub-1",
		Email:       "jane@example.com",
		DisplayName: "Jane",
		Settings:    Settings{Currency: "USD", Timezone: "UTC"},
	})

	// then
	require.NoError(t, err)
	assert.NotZero(t, created.Id)
	assert.False(t, created.CreatedAt.IsZero())

	byUid, err := repo.GetUserByUid(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, created.Id, byUid.Id)
	assert.Equal(t, "jane@example.com", byUid.Email)
}

func TestUserRepoImpl_CreateUser_ExistingUid(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	first, err := repo.CreateUser(ctx, User{Uid: "sub-1", Email: "jane@example.com", DisplayName: "Jane", Settings: Settings{Currency: "USD", Timezone: "UTC"}})
	require.NoError(t, err)

	// when
	second, err := repo.CreateUser(ctx, User{Uid: "sub-1", Email: "other@example.com", DisplayName: "Other", Settings: Settings{Currency: "EUR", Timezone: "UTC"}})

	// then
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "Jane", second.DisplayName)
	assert.Equal(t, "USD", second.Settings.Currency)
}

func TestUserServiceImpl_EnsureUser_ConcurrentFirstSignIn(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	service := NewUserService(repo)
	const requests = 8
	ids := make([]int, requests)
	errs := make([]error, requests)

	// when
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := service.EnsureUser(ctx, Identity{Uid: "sub-new", Email: "new@example.com"})
			ids[i], errs[i] = u.Id, err
		}(i)
	}
	wg.Wait()

	// then
	for i := 0; i < requests; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	again, err := service.EnsureUser(ctx, Identity{Uid: "sub-new"})
	require.NoError(t, err)
	assert.Equal(t, ids[0], again.Id)
}

func TestUserRepoImpl_GetUser_NotFound(t *testing.T) {
	ctx, repo := setupTestRepository(t)

	_, err := repo.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetUserByUid(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepoImpl_UpdateUser(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	created, err := repo.CreateUser(ctx, User{Uid: "sub-1", DisplayName: "Jane", Settings: Settings{Currency: "USD", Timezone: "UTC"}})
	require.NoError(t, err)

	// when
	created.DisplayName = "Jane Doe"
	created.Settings = Settings{Currency: "EUR", Timezone: "Europe/Berlin"}
	updated, err := repo.UpdateUser(ctx, created.Id, created)

	// then
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.DisplayName)
	assert.Equal(t, "EUR", updated.Settings.Currency)
	assert.Equal(t, "Europe/Berlin", updated.Settings.Timezone)

	_, err = repo.UpdateUser(ctx, 999, created)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepoImpl_DeleteUser(t *testing.T) {
	ctx, repo := setupTestRepository(t)
	created, err := repo.CreateUser(ctx, User{Uid: "sub-1", Settings: Settings{Currency: "USD", Timezone: "UTC"}})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, created.Id))

	_, err = repo.GetUser(ctx, created.Id)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, repo.DeleteUser(ctx, created.Id), ErrUserNotFound)
}
