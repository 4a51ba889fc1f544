// Package session implements the identity gate: token persistence, local
// claim decoding, and route-guard decisions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// identityClaims is the minimal identity claim carried in the bearer token.
type identityClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Gate holds the session state: whether a user is authenticated, who they
// are, and whether identity resolution is still in progress. All mutation
// goes through its methods.
type Gate struct {
	store  service.Storage
	auth   service.AuthAPI
	logger *slog.Logger

	mu            sync.RWMutex
	user          *model.User
	token         string
	authenticated bool
	loading       bool
	enriched      bool
}

// NewGate creates a gate backed by the given local store. The auth API is
// attached separately because the API client itself needs the gate as its
// token source.
func NewGate(store service.Storage) *Gate {
	return &Gate{
		store:   store,
		logger:  slog.Default().With("component", "session"),
		loading: true,
	}
}

// AttachAuth wires the remote auth surface used for login and enrichment.
func (g *Gate) AttachAuth(auth service.AuthAPI) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.auth = auth
}

// Token returns the current bearer token, or "" when no session exists.
// It satisfies api.TokenSource.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// IsAuthenticated reports whether a session is currently held.
func (g *Gate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.authenticated
}

// IsLoading reports whether identity resolution is still in progress.
// Protected views render a neutral placeholder while this is true.
func (g *Gate) IsLoading() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loading
}

// User returns a copy of the current identity, or nil when unauthenticated.
func (g *Gate) User() *model.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// Role returns the current role, or "" when unauthenticated.
func (g *Gate) Role() model.Role {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return ""
	}
	return g.user.Role
}

// decodeClaims extracts the identity claim from a token without verifying
// the signature. The client holds no signing secret; the server remains
// the authority and every API call re-validates the token anyway.
func decodeClaims(token string) (*identityClaims, error) {
	claims := &identityClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token claims: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrTokenExpired
	}
	return claims, nil
}

// Restore rebuilds the session from a stored token, if any. The identity
// from the local claim is optimistic; Enrich fetches the authoritative
// role and user id afterwards.
func (g *Gate) Restore(ctx context.Context) error {
	token, err := g.store.LoadToken(ctx)
	if errors.Is(err, common.ErrNoSession) {
		g.setUnauthenticated()
		return nil
	}
	if err != nil {
		g.setUnauthenticated()
		return fmt.Errorf("failed to restore session: %w", err)
	}

	claims, err := decodeClaims(token)
	if err != nil {
		g.logger.Warn("Stored token is unusable, clearing session", "error", err)
		if clearErr := g.store.ClearToken(ctx); clearErr != nil {
			g.logger.Error("Failed to clear stale token", "error", clearErr)
		}
		g.setUnauthenticated()
		return nil
	}

	g.mu.Lock()
	g.token = token
	g.authenticated = true
	g.loading = false
	g.enriched = false
	g.user = &model.User{
		Email: claims.Email,
		Role:  model.Role(claims.Role),
	}
	g.mu.Unlock()

	g.logger.Debug("Session restored from stored token", "email", claims.Email)
	return nil
}

// Enrich fetches the authoritative role and numeric user id for the
// current session. An unauthorized response means the stored session is
// invalid and the gate resets to unauthenticated.
func (g *Gate) Enrich(ctx context.Context) error {
	g.mu.RLock()
	auth := g.auth
	authenticated := g.authenticated
	g.mu.RUnlock()

	if !authenticated {
		return common.ErrNoSession
	}
	if auth == nil {
		return fmt.Errorf("auth API not attached")
	}

	user, err := auth.GetMe(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			g.logger.Warn("Session rejected by server, logging out")
			return g.Logout(ctx)
		}
		// Transient failure: keep the optimistic identity.
		return fmt.Errorf("failed to enrich session: %w", err)
	}

	role, err := auth.GetRole(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			g.logger.Warn("Session rejected by server, logging out")
			return g.Logout(ctx)
		}
		return fmt.Errorf("failed to enrich session: %w", err)
	}

	g.mu.Lock()
	g.user = user
	g.user.Role = role
	g.enriched = true
	g.mu.Unlock()
	return nil
}

// Login exchanges credentials for a token, persists it, and enriches the
// identity.
func (g *Gate) Login(ctx context.Context, email, password string) error {
	g.mu.RLock()
	auth := g.auth
	g.mu.RUnlock()
	if auth == nil {
		return fmt.Errorf("auth API not attached")
	}

	token, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := g.store.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	claims, err := decodeClaims(token)
	if err != nil {
		// The server issued it; trust it even if the claim is opaque.
		claims = &identityClaims{Email: email}
	}

	g.mu.Lock()
	g.token = token
	g.authenticated = true
	g.loading = false
	g.enriched = false
	g.user = &model.User{
		Email: claims.Email,
		Role:  model.Role(claims.Role),
	}
	g.mu.Unlock()

	if err := g.Enrich(ctx); err != nil {
		g.logger.Warn("Identity enrichment failed after login", "error", err)
	}
	return nil
}

// Logout clears the token and resets state.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.store.ClearToken(ctx)
	g.setUnauthenticated()
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (g *Gate) setUnauthenticated() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
	g.authenticated = false
	g.loading = false
	g.enriched = false
	g.user = nil
}
