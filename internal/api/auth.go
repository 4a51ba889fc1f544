package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
)

// loginRequest is the credential exchange payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token. A 401 here means wrong
// credentials, not an expired session.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required")
	}

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login response contained no token")
	}
	return resp.AccessToken, nil
}

type roleResponse struct {
	Role model.Role `json:"role"`
}

// GetRole fetches the authoritative role for the current session.
func (c *Client) GetRole(ctx context.Context) (model.Role, error) {
	var resp roleResponse
	if err := c.getRetried(ctx, "/auth/role", nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch role: %w", err)
	}
	return resp.Role, nil
}

// GetMe fetches the authoritative identity for the current session.
func (c *Client) GetMe(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.getRetried(ctx, "/auth/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch identity: %w", err)
	}
	return &user, nil
}

// GetCriteria fetches a user's saved search criteria. A 404 surfaces as
// common.ErrNotFound: first-time users simply have none yet.
func (c *Client) GetCriteria(ctx context.Context, userID int64) (*model.SearchCriteria, error) {
	var criteria model.SearchCriteria
	path := "/auth/users/" + strconv.FormatInt(userID, 10) + "/criteria"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &criteria); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch search criteria: %w", err)
	}
	return &criteria, nil
}

// UpdateCriteria stores a user's search criteria.
func (c *Client) UpdateCriteria(ctx context.Context, userID int64, criteria *model.SearchCriteria) error {
	if criteria == nil {
		return fmt.Errorf("criteria are required")
	}
	path := "/auth/users/" + strconv.FormatInt(userID, 10) + "/criteria"
	if err := c.do(ctx, http.MethodPut, path, nil, criteria, nil); err != nil {
		return fmt.Errorf("failed to update search criteria: %w", err)
	}
	return nil
}

// GetCPVCodes searches the CPV classifier catalog. An empty query returns
// the full top-level catalog.
func (c *Client) GetCPVCodes(ctx context.Context, query string) ([]model.CPVCode, error) {
	var values url.Values
	if query != "" {
		values = url.Values{"query": []string{query}}
	}

	var codes []model.CPVCode
	if err := c.getRetried(ctx, "/auth/cpv-codes", values, &codes); err != nil {
		return nil, fmt.Errorf("failed to fetch CPV codes: %w", err)
	}
	return codes, nil
}

// ListClients fetches the client roster. Staff only; others get a 403.
func (c *Client) ListClients(ctx context.Context) ([]model.ClientAccount, error) {
	var clients []model.ClientAccount
	if err := c.getRetried(ctx, "/auth/users", nil, &clients); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// createClientRequest is the payload for creating a client account.
type createClientRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// CreateClient adds an account to the roster. Staff only.
func (c *Client) CreateClient(ctx context.Context, email, name, password string) (*model.ClientAccount, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	var client model.ClientAccount
	err := c.do(ctx, http.MethodPost, "/auth/users", nil, createClientRequest{
		Email:    email,
		Name:     name,
		Password: password,
	}, &client)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &client, nil
}

// DeleteClient removes an account from the roster. Staff only.
func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	path := "/auth/users/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// updatePasswordRequest is the password change payload.
type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword changes the current user's password.
func (c *Client) UpdatePassword(ctx context.Context, current, updated string) error {
	if updated == "" {
		return fmt.Errorf("new password is required")
	}
	err := c.do(ctx, http.MethodPost, "/auth/update-password", nil, updatePasswordRequest{
		CurrentPassword: current,
		NewPassword:     updated,
	}, nil)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return common.ErrInvalidCredentials
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
