package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openprocure/tenderflow/internal/common"
)

// SaveToken persists the session bearer token, replacing any previous one.
func (s *SQLiteStorage) SaveToken(ctx context.Context, token string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, token, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated_at = CURRENT_TIMESTAMP
	`, token)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken returns the stored session token, or common.ErrNoSession when
// none exists.
func (s *SQLiteStorage) LoadToken(ctx context.Context) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	var token string
	err := s.db.QueryRowContext(ctx, "SELECT token FROM session WHERE id = 1").Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// ClearToken removes any stored session token. Clearing an absent token is
// not an error.
func (s *SQLiteStorage) ClearToken(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
