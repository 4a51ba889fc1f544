package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openprocure/tenderflow/internal/common"
)

// PrefLanguage is the preference key for the display language.
const PrefLanguage = "language"

// LanguageExpiry is how long a stored language preference stays valid.
const LanguageExpiry = 365 * 24 * time.Hour

// SetPreference stores a preference value. A zero expiry means the value
// never expires.
func (s *SQLiteStorage) SetPreference(ctx context.Context, key, value string, expiry time.Duration) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("preference key cannot be empty")
	}

	var expiresAt any
	if expiry != 0 {
		expiresAt = time.Now().Add(expiry).UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}

// GetPreference returns a stored preference value. Expired or absent
// values surface as common.ErrNotFound; expired rows are purged lazily.
func (s *SQLiteStorage) GetPreference(ctx context.Context, key string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	var value string
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM preferences WHERE key = ?", key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preference %s: %w", key, err)
	}

	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM preferences WHERE key = ?", key); err != nil {
			return "", fmt.Errorf("failed to purge expired preference %s: %w", key, err)
		}
		return "", common.ErrNotFound
	}
	return value, nil
}
