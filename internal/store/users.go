package store

import (
	"context"
	"database/sql"

	"billiard-pos/internal/models"
)

// GetUserByUsername retrieves a user by username. Returns (nil, nil)
// when no such user exists so the caller can respond with a uniform
// invalid-credentials error.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		"SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1", username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, models.Storage("GetUserByUsername", err)
	}
	return &u, nil
}

// ListUsers retrieves all accounts without password hashes
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users,
		"SELECT id, username, '' AS password_hash, role, created_at FROM users ORDER BY id ASC")
	if err != nil {
		return nil, models.Storage("ListUsers", err)
	}
	return users, nil
}

// CreateUser inserts an account with an already-hashed password
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.GetContext(ctx, u, `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.Role)
	return models.Storage("CreateUser", err)
}

// DeleteUser removes an account
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return models.Storage("DeleteUser", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("user", id)
	}
	return nil
}

// UpdatePasswordHash replaces a user's stored credential. Used by the
// legacy plaintext upgrade on login.
func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", hash, id)
	return models.Storage("UpdatePasswordHash", err)
}
