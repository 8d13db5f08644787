package test_utils

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user row so that records and budgets can reference it.
func CreateTestUser(t *testing.T, ctx context.Context, db *pgxpool.Pool, uid string) int {
	t.Helper()
	var id int
	err := db.QueryRow(ctx,
		`INSERT INTO users (uid, email, display_name) VALUES ($1, $2, $3) RETURNING id`,
		uid, uid+"@example.com", "Test User",
	).Scan(&id)
	require.NoError(t, err)
	return id
}
