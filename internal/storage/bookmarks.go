package storage

import (
	"context"
	"fmt"
)

// ListBookmarks returns all locally stored bookmark hashes, oldest first.
func (s *SQLiteStorage) ListBookmarks(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT tender_hash FROM bookmarks ORDER BY saved_at, tender_hash")
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		hashes = append(hashes, hash)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}
	return hashes, nil
}

// AddBookmark stores a bookmark hash. Re-adding an existing bookmark is
// not an error, matching the server's idempotence contract.
func (s *SQLiteStorage) AddBookmark(ctx context.Context, hash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if hash == "" {
		return fmt.Errorf("tender hash cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bookmarks (tender_hash) VALUES (?) ON CONFLICT(tender_hash) DO NOTHING", hash)
	if err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark deletes a bookmark hash. Removing an absent bookmark is
// not an error.
func (s *SQLiteStorage) RemoveBookmark(ctx context.Context, hash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if hash == "" {
		return fmt.Errorf("tender hash cannot be empty")
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE tender_hash = ?", hash); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}

// ReplaceBookmarks replaces the whole local set with the authoritative
// server set in one transaction, used when resynchronizing after a failed
// optimistic toggle.
func (s *SQLiteStorage) ReplaceBookmarks(ctx context.Context, hashes []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bookmarks"); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}
	for _, hash := range hashes {
		if hash == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bookmarks (tender_hash) VALUES (?) ON CONFLICT(tender_hash) DO NOTHING", hash); err != nil {
			return fmt.Errorf("failed to insert bookmark: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookmark replacement: %w", err)
	}
	return nil
}
