package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// memStore is an in-memory service.Storage for gate tests.
type memStore struct {
	token     string
	bookmarks []string
	prefs     map[string]string
}

func newMemStore() *memStore {
	return &memStore{prefs: make(map[string]string)}
}

func (m *memStore) ListBookmarks(_ context.Context) ([]string, error) { return m.bookmarks, nil }
func (m *memStore) AddBookmark(_ context.Context, hash string) error {
	m.bookmarks = append(m.bookmarks, hash)
	return nil
}
func (m *memStore) RemoveBookmark(_ context.Context, hash string) error {
	out := m.bookmarks[:0]
	for _, h := range m.bookmarks {
		if h != hash {
			out = append(out, h)
		}
	}
	m.bookmarks = out
	return nil
}
func (m *memStore) ReplaceBookmarks(_ context.Context, hashes []string) error {
	m.bookmarks = append([]string(nil), hashes...)
	return nil
}
func (m *memStore) SaveToken(_ context.Context, token string) error {
	m.token = token
	return nil
}
func (m *memStore) LoadToken(_ context.Context) (string, error) {
	if m.token == "" {
		return "", common.ErrNoSession
	}
	return m.token, nil
}
func (m *memStore) ClearToken(_ context.Context) error {
	m.token = ""
	return nil
}
func (m *memStore) SetPreference(_ context.Context, key, value string, _ time.Duration) error {
	m.prefs[key] = value
	return nil
}
func (m *memStore) GetPreference(_ context.Context, key string) (string, error) {
	v, ok := m.prefs[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}
func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }

// fakeAuth is a canned service.AuthAPI.
type fakeAuth struct {
	loginToken string
	loginErr   error
	me         *model.User
	meErr      error
	role       model.Role
	roleErr    error
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (string, error) {
	return f.loginToken, f.loginErr
}
func (f *fakeAuth) GetMe(_ context.Context) (*model.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	u := *f.me
	return &u, nil
}
func (f *fakeAuth) GetRole(_ context.Context) (model.Role, error) { return f.role, f.roleErr }
func (f *fakeAuth) GetCriteria(_ context.Context, _ int64) (*model.SearchCriteria, error) {
	return nil, common.ErrNotFound
}
func (f *fakeAuth) UpdateCriteria(_ context.Context, _ int64, _ *model.SearchCriteria) error {
	return nil
}
func (f *fakeAuth) GetCPVCodes(_ context.Context, _ string) ([]model.CPVCode, error) {
	return nil, nil
}
func (f *fakeAuth) ListClients(_ context.Context) ([]model.ClientAccount, error) { return nil, nil }
func (f *fakeAuth) CreateClient(_ context.Context, _, _, _ string) (*model.ClientAccount, error) {
	return nil, nil
}
func (f *fakeAuth) DeleteClient(_ context.Context, _ int64) error    { return nil }
func (f *fakeAuth) UpdatePassword(_ context.Context, _, _ string) error { return nil }

var _ service.AuthAPI = (*fakeAuth)(nil)

func signedToken(t *testing.T, email, role string, expiry time.Duration) string {
	t.Helper()
	claims := identityClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRestoreWithoutToken(t *testing.T) {
	gate := NewGate(newMemStore())

	require.NoError(t, gate.Restore(context.Background()))

	assert.False(t, gate.IsAuthenticated())
	assert.False(t, gate.IsLoading())
	assert.Nil(t, gate.User())
}

func TestRestoreDecodesClaimOptimistically(t *testing.T) {
	store := newMemStore()
	store.token = signedToken(t, "buyer@example.com", "client", time.Hour)
	gate := NewGate(store)

	require.NoError(t, gate.Restore(context.Background()))

	assert.True(t, gate.IsAuthenticated())
	require.NotNil(t, gate.User())
	assert.Equal(t, "buyer@example.com", gate.User().Email)
	assert.Equal(t, model.RoleClient, gate.Role())
	assert.Equal(t, store.token, gate.Token())
}

func TestRestoreClearsExpiredToken(t *testing.T) {
	store := newMemStore()
	store.token = signedToken(t, "buyer@example.com", "client", -time.Hour)
	gate := NewGate(store)

	require.NoError(t, gate.Restore(context.Background()))

	assert.False(t, gate.IsAuthenticated())
	assert.Empty(t, store.token, "expired token must be cleared from the store")
}

func TestLoginPersistsTokenAndEnriches(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{
		loginToken: signedToken(t, "staff@example.com", "", time.Hour),
		me:         &model.User{ID: 42, Email: "staff@example.com"},
		role:       model.RoleStaff,
	}
	gate := NewGate(store)
	gate.AttachAuth(auth)

	require.NoError(t, gate.Login(context.Background(), "staff@example.com", "pw"))

	assert.True(t, gate.IsAuthenticated())
	assert.Equal(t, auth.loginToken, store.token)
	require.NotNil(t, gate.User())
	assert.Equal(t, int64(42), gate.User().ID)
	assert.Equal(t, model.RoleStaff, gate.Role())
	assert.True(t, gate.User().IsStaff())
}

func TestLoginFailureLeavesGateUntouched(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{loginErr: common.ErrInvalidCredentials}
	gate := NewGate(store)
	gate.AttachAuth(auth)

	err := gate.Login(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, store.token)
}

func TestEnrichUnauthorizedLogsOut(t *testing.T) {
	store := newMemStore()
	store.token = signedToken(t, "buyer@example.com", "client", time.Hour)
	auth := &fakeAuth{meErr: common.ErrUnauthorized}
	gate := NewGate(store)
	gate.AttachAuth(auth)

	require.NoError(t, gate.Restore(context.Background()))
	require.True(t, gate.IsAuthenticated())

	require.NoError(t, gate.Enrich(context.Background()))

	assert.False(t, gate.IsAuthenticated())
	assert.Empty(t, store.token)
}

func TestLogoutResetsState(t *testing.T) {
	store := newMemStore()
	store.token = signedToken(t, "buyer@example.com", "client", time.Hour)
	gate := NewGate(store)
	require.NoError(t, gate.Restore(context.Background()))

	require.NoError(t, gate.Logout(context.Background()))

	assert.False(t, gate.IsAuthenticated())
	assert.Empty(t, gate.Token())
	assert.Nil(t, gate.User())
}

func TestGuardDecisions(t *testing.T) {
	gate := NewGate(newMemStore())

	// Before Restore resolves, the gate is loading.
	decision, _ := gate.Guard("tenders")
	assert.Equal(t, DecisionPending, decision)

	require.NoError(t, gate.Restore(context.Background()))

	decision, redirect := gate.Guard("tenders")
	assert.Equal(t, DecisionRedirect, decision)
	require.NotNil(t, redirect)
	assert.Equal(t, LoginRoute, redirect.Target)
	assert.Equal(t, "tenders", redirect.Then, "intended destination preserved for post-login redirect")

	store := newMemStore()
	store.token = signedToken(t, "buyer@example.com", "client", time.Hour)
	gate = NewGate(store)
	require.NoError(t, gate.Restore(context.Background()))

	decision, redirect = gate.Guard("tenders")
	assert.Equal(t, DecisionProceed, decision)
	assert.Nil(t, redirect)
}
