// Package api provides the HTTP client for the tender platform API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// TokenSource supplies the current bearer token, or "" when no session
// exists. It is consulted on every request so a refreshed login takes
// effect without rebuilding the client.
type TokenSource func() string

// Config holds platform API configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: platform base URL is required", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("%w: platform base URL %s must be http or https", common.ErrInvalidConfig, c.BaseURL)
	}
	return nil
}

// Client implements the TenderAPI and AuthAPI interfaces over HTTPS/JSON.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	retryOpts  service.RetryOptions
	baseURL    string
}

// NewClient creates a new platform client with the given configuration.
func NewClient(cfg Config, tokens TokenSource) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = func() string { return "" }
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default().With("component", "api"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// do performs one JSON round trip. A non-nil out is decoded from the
// response body; pass nil for endpoints whose body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach platform: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getRetried wraps a GET in the shared retry policy so transient failures
// and rate limits do not surface to the controllers.
func (c *Client) getRetried(ctx context.Context, path string, query url.Values, out any) error {
	return common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, query, nil, out)
	}, c.retryOpts)
}

// ListTenders issues one list query and returns the page as-is. The
// has_next flag is the server's own and is never recomputed here.
func (c *Client) ListTenders(ctx context.Context, params model.QueryParams) (*model.TenderPage, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query parameters: %w", err)
	}

	c.logger.Debug("Listing tenders",
		"offset", params.Offset,
		"limit", params.Limit,
		"sort_field", params.Sort.Field,
		"is_saved", params.Saved)

	var page model.TenderPage
	if err := c.getRetried(ctx, "/tenders", params.Values(), &page); err != nil {
		return nil, fmt.Errorf("failed to list tenders: %w", err)
	}
	return &page, nil
}

// GetTender fetches the full record for a single tender.
func (c *Client) GetTender(ctx context.Context, hash string) (*model.TenderDetail, error) {
	if hash == "" {
		return nil, fmt.Errorf("tender hash is required")
	}

	var detail model.TenderDetail
	if err := c.getRetried(ctx, "/tenders/"+url.PathEscape(hash), nil, &detail); err != nil {
		return nil, fmt.Errorf("failed to fetch tender %s: %w", hash, err)
	}
	return &detail, nil
}

// GetDocuments fetches the procurement document references for a tender.
func (c *Client) GetDocuments(ctx context.Context, hash string) ([]model.ProcurementDocument, error) {
	if hash == "" {
		return nil, fmt.Errorf("tender hash is required")
	}

	var docs []model.ProcurementDocument
	if err := c.getRetried(ctx, "/tenders/documents/"+url.PathEscape(hash), nil, &docs); err != nil {
		return nil, fmt.Errorf("failed to fetch documents for %s: %w", hash, err)
	}
	return docs, nil
}

// GetAIDocument fetches the long-form AI-generated document body for a
// tender as raw text.
func (c *Client) GetAIDocument(ctx context.Context, hash string) (string, error) {
	if hash == "" {
		return "", fmt.Errorf("tender hash is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tenders/ai_documents/"+url.PathEscape(hash), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if token := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach platform: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", errorFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}
	return string(body), nil
}

// saveRequest is the wire payload for bookmark mutations.
type saveRequest struct {
	TenderURI string `json:"tender_uri"`
	Situation string `json:"situation,omitempty"`
}

// SaveTender bookmarks a tender for the current user.
func (c *Client) SaveTender(ctx context.Context, uri, situation string) error {
	if uri == "" {
		return fmt.Errorf("tender URI is required")
	}
	if err := c.do(ctx, http.MethodPost, "/tenders/save", nil, saveRequest{TenderURI: uri, Situation: situation}, nil); err != nil {
		return fmt.Errorf("failed to save tender: %w", err)
	}
	return nil
}

// UnsaveTender removes a bookmark for the current user.
func (c *Client) UnsaveTender(ctx context.Context, uri string) error {
	if uri == "" {
		return fmt.Errorf("tender URI is required")
	}
	if err := c.do(ctx, http.MethodDelete, "/tenders/unsave", nil, saveRequest{TenderURI: uri}, nil); err != nil {
		return fmt.Errorf("failed to unsave tender: %w", err)
	}
	return nil
}

// RequestSummary starts an asynchronous AI summary generation task.
func (c *Client) RequestSummary(ctx context.Context, req service.SummaryRequest) (*model.SummaryTask, error) {
	var task model.SummaryTask
	if err := c.do(ctx, http.MethodPost, "/ai-tools/tender-summary", nil, req, &task); err != nil {
		return nil, fmt.Errorf("failed to request summary: %w", err)
	}
	if task.ID == "" {
		return nil, fmt.Errorf("summary request returned no task id")
	}
	return &task, nil
}

// GetTaskStatus fetches the current status of a generation task.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*model.SummaryTask, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}

	var task model.SummaryTask
	if err := c.do(ctx, http.MethodGet, "/ai-tools/task-status/"+url.PathEscape(taskID), nil, nil, &task); err != nil {
		return nil, fmt.Errorf("failed to fetch task status: %w", err)
	}
	if task.ID == "" {
		task.ID = taskID
	}
	return &task, nil
}

// Ensure Client implements the platform interfaces.
var (
	_ service.TenderAPI = (*Client)(nil)
	_ service.AuthAPI   = (*Client)(nil)
)
