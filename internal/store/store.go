package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"billiard-pos/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store wraps the Postgres connection. All elapsed-time computations use
// the database clock (NOW()), never the application clock; the connection
// URL is expected to pin the session timezone (timezone=America/Lima) so
// display formatting is stable across instances.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetConfigValue retrieves a config value by key
func (s *Store) GetConfigValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM config WHERE key = $1", key)
	if err == sql.ErrNoRows {
		return "", models.NotFound("config key", 0)
	}
	if err != nil {
		return "", models.Storage("GetConfigValue", err)
	}
	return value, nil
}

// SetConfigValue upserts a config value
func (s *Store) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO config (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		key, value)
	return models.Storage("SetConfigValue", err)
}

// ListConfig retrieves all config entries
func (s *Store) ListConfig(ctx context.Context) (map[string]string, error) {
	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, "SELECT key, value FROM config ORDER BY key"); err != nil {
		return nil, models.Storage("ListConfig", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}
