// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/openprocure/tenderflow/internal/model"
)

// SummaryRequest asks the platform to generate an AI summary for a tender.
type SummaryRequest struct {
	OutputID   string                      `json:"output_id"`
	TenderHash string                      `json:"tender_hash,omitempty"`
	Documents  []model.ProcurementDocument `json:"documents"`
	Questions  []string                    `json:"questions"`
	Regenerate bool                        `json:"regenerate"`
}

// TenderAPI is the remote platform surface for tender discovery and
// AI document generation.
type TenderAPI interface {
	ListTenders(ctx context.Context, params model.QueryParams) (*model.TenderPage, error)
	GetTender(ctx context.Context, hash string) (*model.TenderDetail, error)
	GetDocuments(ctx context.Context, hash string) ([]model.ProcurementDocument, error)
	GetAIDocument(ctx context.Context, hash string) (string, error)
	SaveTender(ctx context.Context, uri, situation string) error
	UnsaveTender(ctx context.Context, uri string) error
	RequestSummary(ctx context.Context, req SummaryRequest) (*model.SummaryTask, error)
	GetTaskStatus(ctx context.Context, taskID string) (*model.SummaryTask, error)
}

// AuthAPI is the remote account-management surface.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	GetRole(ctx context.Context) (model.Role, error)
	GetMe(ctx context.Context) (*model.User, error)
	GetCriteria(ctx context.Context, userID int64) (*model.SearchCriteria, error)
	UpdateCriteria(ctx context.Context, userID int64, criteria *model.SearchCriteria) error
	GetCPVCodes(ctx context.Context, query string) ([]model.CPVCode, error)
	ListClients(ctx context.Context) ([]model.ClientAccount, error)
	CreateClient(ctx context.Context, email, name, password string) (*model.ClientAccount, error)
	DeleteClient(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, current, updated string) error
}

// Storage defines the contract for the local persistence layer: offline
// bookmarks, the session token, and user preferences.
type Storage interface {
	// Bookmark operations (offline/demo mode)
	ListBookmarks(ctx context.Context) ([]string, error)
	AddBookmark(ctx context.Context, hash string) error
	RemoveBookmark(ctx context.Context, hash string) error
	ReplaceBookmarks(ctx context.Context, hashes []string) error

	// Session token
	SaveToken(ctx context.Context, token string) error
	LoadToken(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error

	// Preferences
	SetPreference(ctx context.Context, key, value string, expiry time.Duration) error
	GetPreference(ctx context.Context, key string) (string, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Notifier surfaces transient user-facing notifications. Every failure
// path ends in a notification, never a panic or a stuck spinner.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Clock abstracts time for deterministic tests of debounce windows,
// loading floors, and poll intervals.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock with the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// After waits for the duration to elapse.
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
