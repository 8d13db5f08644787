package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionURL(t *testing.T) {
	t.Run("should escape credentials and carry schema", func(t *testing.T) {
		// given
		cfg := config.Database{Host: "db", Port: 5433, User: "app", Pass: "p@ss:w'rd/1", Name: "expenses", Schema: "expenses"}

		// when
		u := connectionURL(cfg)

		// then
		assert.Equal(t, "db:5433", u.Host)
		assert.Equal(t, "/expenses", u.Path)
		password, _ := u.User.Password()
		assert.Equal(t, "p@ss:w'rd/1", password)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
		assert.Equal(t, "expenses", u.Query().Get("search_path"))
		assert.True(t, strings.HasPrefix(u.String(), "postgres://app:"))
	})

	t.Run("should use configured ssl mode", func(t *testing.T) {
		u := connectionURL(config.Database{Host: "db", Port: 5432, SSLMode: "require"})

		assert.Equal(t, "require", u.Query().Get("sslmode"))
		assert.False(t, u.Query().Has("search_path"))
	})
}

func TestMigrationsSource(t *testing.T) {
	t.Run("should find repository migrations", func(t *testing.T) {
		// when
		source, err := migrationsSource(config.Database{})

		// then
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(source, "file://"))
		assert.True(t, strings.HasSuffix(source, "/migrations"))
	})

	t.Run("should use configured directory", func(t *testing.T) {
		// given
		dir := filepath.Join(t.TempDir(), "sql")
		require.NoError(t, os.Mkdir(dir, 0o755))

		// when
		source, err := migrationsSource(config.Database{Migrations: dir})

		// then
		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.ToSlash(dir), source)
	})

	t.Run("should reject missing directory", func(t *testing.T) {
		_, err := migrationsSource(config.Database{Migrations: filepath.Join(t.TempDir(), "missing")})

		assert.Error(t, err)
	})
}
