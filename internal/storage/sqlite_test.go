package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocure/tenderflow/internal/common"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupTestStorage(t)
	// A second run must be a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestBookmarkRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	hashes, err := store.ListBookmarks(ctx)
	require.NoError(t, err)
	assert.Empty(t, hashes)

	require.NoError(t, store.AddBookmark(ctx, "h1"))
	require.NoError(t, store.AddBookmark(ctx, "h2"))
	// Re-adding must not error.
	require.NoError(t, store.AddBookmark(ctx, "h1"))

	hashes, err = store.ListBookmarks(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h1", "h2"}, hashes)

	require.NoError(t, store.RemoveBookmark(ctx, "h1"))
	// Removing an absent bookmark must not error.
	require.NoError(t, store.RemoveBookmark(ctx, "h1"))

	hashes, err = store.ListBookmarks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"h2"}, hashes)
}

func TestReplaceBookmarks(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.AddBookmark(ctx, "stale-1"))
	require.NoError(t, store.AddBookmark(ctx, "stale-2"))

	require.NoError(t, store.ReplaceBookmarks(ctx, []string{"h3", "h4", "h4", ""}))

	hashes, err := store.ListBookmarks(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h3", "h4"}, hashes)
}

func TestTokenRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := store.LoadToken(ctx)
	assert.ErrorIs(t, err, common.ErrNoSession)

	require.NoError(t, store.SaveToken(ctx, "tok-1"))
	token, err := store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	// Saving again replaces the stored token.
	require.NoError(t, store.SaveToken(ctx, "tok-2"))
	token, err = store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	require.NoError(t, store.ClearToken(ctx))
	_, err = store.LoadToken(ctx)
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestPreferences(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := store.GetPreference(ctx, PrefLanguage)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.SetPreference(ctx, PrefLanguage, "de", LanguageExpiry))
	value, err := store.GetPreference(ctx, PrefLanguage)
	require.NoError(t, err)
	assert.Equal(t, "de", value)

	// An already-expired preference reads as absent.
	require.NoError(t, store.SetPreference(ctx, "ephemeral", "x", -time.Second))
	_, err = store.GetPreference(ctx, "ephemeral")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
