// Package detail implements the single-tender detail loader and the
// long-form document loader. The two are independent concerns with
// independent loading and error state.
package detail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// Loader holds the single "current detail" slot. Fetching a new tender
// clears the previous detail first so a stale record is never visible
// under a new id while the request is in flight.
type Loader struct {
	api    service.TenderAPI
	logger *slog.Logger

	mu        sync.Mutex
	detail    *model.TenderDetail
	lastError string
	loading   bool
}

// NewLoader creates a detail loader.
func NewLoader(api service.TenderAPI) *Loader {
	return &Loader{
		api:    api,
		logger: slog.Default().With("component", "detail"),
	}
}

// FetchTenderDetail loads the full record for one tender. The prior
// detail and error are cleared before the request fires. On failure the
// returned detail is nil and the error is also captured for later reads
// through Error.
func (l *Loader) FetchTenderDetail(ctx context.Context, hash string) (*model.TenderDetail, error) {
	l.mu.Lock()
	l.detail = nil
	l.lastError = ""
	l.loading = true
	l.mu.Unlock()

	detail, err := l.api.GetTender(ctx, hash)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false

	if err != nil {
		l.lastError = common.UserMessage(err)
		l.logger.Error("Failed to load tender detail", "tender_hash", hash, "error", err)
		return nil, fmt.Errorf("failed to load tender %s: %w", hash, err)
	}

	l.detail = detail
	return detail, nil
}

// ClearTenderDetail resets the detail slot and the captured error.
// Called on navigation away and before loading a different tender.
func (l *Loader) ClearTenderDetail() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.detail = nil
	l.lastError = ""
}

// Detail returns the currently held detail, or nil.
func (l *Loader) Detail() *model.TenderDetail {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.detail
}

// Error returns the user-visible message of the last failed fetch.
func (l *Loader) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastError
}

// IsLoading reports whether a detail fetch is in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}
