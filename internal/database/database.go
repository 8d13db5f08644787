package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const migrationsDir = "migrations"

// connectionURL is shared by the pool and the migrator so both end up in the same schema.
func connectionURL(cfg config.Database) *url.URL {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	if cfg.Schema != "" {
		query.Set("search_path", cfg.Schema)
	}
	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Pass),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
}

// Open opens a Postgres connection pool and verifies it with a ping.
func Open(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connectionURL(cfg).String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.WithFields(log.Fields{
		"db":       cfg.Name,
		"host":     cfg.Host,
		"schema":   cfg.Schema,
		"maxConns": poolConfig.MaxConns,
	}).Info("Connected to database")
	return pool, nil
}

// Migrate applies all pending up migrations.
func Migrate(cfg config.Database) error {
	source, err := migrationsSource(cfg)
	if err != nil {
		return err
	}

	m, err := migrate.New(source, connectionURL(cfg).String())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	if version, dirty, err := m.Version(); err == nil {
		log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("Database schema migrated")
	}
	return nil
}

func migrationsSource(cfg config.Database) (string, error) {
	dir := cfg.Migrations
	if dir == "" {
		found, err := findMigrationsDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate migrations directory: %w", err)
		}
		dir = found
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("migrations directory %s is not readable", abs)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// findMigrationsDir walks up from the working directory, so tests running inside package
// directories find the repository migrations too.
func findMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, migrationsDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("migrations directory not found")
		}
		dir = parent
	}
}
