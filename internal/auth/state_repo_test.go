package auth

import (
	"context"
	"os"
	"testing"
	"time"

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

func setupStateRepository(t *testing.T) (context.Context, *pgxpool.Pool, StateRepository) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, db, NewStateRepository(db)
}

func TestStateRepositoryImpl(t *testing.T) {
	t.Run("should return final url once", func(t *testing.T) {
		// given
		ctx, _, repo := setupStateRepository(t)
		require.NoError(t, repo.Store(ctx, "nonce-1", "http://localhost:3000/budgets"))

		// when
		finalUrl, err := repo.Consume(ctx, "nonce-1")
		_, secondErr := repo.Consume(ctx, "nonce-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/budgets", finalUrl)
		assert.ErrorIs(t, secondErr, ErrStateNotFound)
	})

	t.Run("should reject unknown nonce", func(t *testing.T) {
		// given
		ctx, _, repo := setupStateRepository(t)

		// when
		_, err := repo.Consume(ctx, "missing")

		// then
		assert.ErrorIs(t, err, ErrStateNotFound)
	})

	t.Run("should reject expired nonce", func(t *testing.T) {
		// given
		ctx, db, repo := setupStateRepository(t)
		_, err := db.Exec(ctx, `INSERT INTO auth_state (nonce, final_url, created_at) VALUES ($1, $2, $3)`,
			"old", "/", time.Now().Add(-time.Hour))
		require.NoError(t, err)

		// when
		_, err = repo.Consume(ctx, "old")

		// then
		assert.ErrorIs(t, err, ErrStateNotFound)
	})
}
