package detail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openprocure/tenderflow/internal/service"
)

// DocumentUnavailable is shown in place of the document body when the
// fetch fails. Failures are substituted, not propagated, so the owning
// view always has something to render.
const DocumentUnavailable = "The document for this tender could not be loaded. Please try again later."

// DocumentConfig holds configuration options for the document loader.
type DocumentConfig struct {
	// MinVisible is a floor on how long the loading state stays visible.
	// A response that resolves faster waits out the remainder so a fast
	// fetch does not flash.
	MinVisible time.Duration
}

// DefaultDocumentConfig returns the default configuration.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{MinVisible: 500 * time.Millisecond}
}

// DocumentLoader fetches the long-form AI-generated document body for a
// tender. It is a separate operation from detail loading with its own
// loading state.
type DocumentLoader struct {
	api    service.TenderAPI
	clock  service.Clock
	config DocumentConfig
	logger *slog.Logger

	mu      sync.Mutex
	content string
	loading bool
}

// NewDocumentLoader creates a document loader with the default
// configuration. A nil clock falls back to the real one.
func NewDocumentLoader(api service.TenderAPI, clock service.Clock) *DocumentLoader {
	return NewDocumentLoaderWithConfig(api, clock, DefaultDocumentConfig())
}

// NewDocumentLoaderWithConfig creates a document loader with custom
// configuration.
func NewDocumentLoaderWithConfig(api service.TenderAPI, clock service.Clock, config DocumentConfig) *DocumentLoader {
	if clock == nil {
		clock = service.RealClock{}
	}
	if config.MinVisible <= 0 {
		config.MinVisible = DefaultDocumentConfig().MinVisible
	}
	return &DocumentLoader{
		api:    api,
		clock:  clock,
		config: config,
		logger: slog.Default().With("component", "document"),
	}
}

// Load fetches the document body for a tender. The only error it ever
// returns is context cancellation: a failed fetch substitutes
// DocumentUnavailable as the content instead. The loading state lasts at
// least MinVisible regardless of how fast the fetch resolves.
func (d *DocumentLoader) Load(ctx context.Context, hash string) (string, error) {
	d.mu.Lock()
	d.loading = true
	d.content = ""
	d.mu.Unlock()

	start := d.clock.Now()

	content, err := d.api.GetAIDocument(ctx, hash)
	if err != nil {
		if ctx.Err() != nil {
			d.finish("")
			return "", ctx.Err()
		}
		d.logger.Warn("Failed to load tender document", "tender_hash", hash, "error", err)
		content = DocumentUnavailable
	}

	if remaining := d.config.MinVisible - d.clock.Now().Sub(start); remaining > 0 {
		select {
		case <-d.clock.After(remaining):
		case <-ctx.Done():
			d.finish("")
			return "", ctx.Err()
		}
	}

	d.finish(content)
	return content, nil
}

func (d *DocumentLoader) finish(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	d.content = content
}

// Content returns the last loaded document body, which may be the
// substituted unavailable message.
func (d *DocumentLoader) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

// IsLoading reports whether a document fetch (or its minimum visible
// window) is still in progress.
func (d *DocumentLoader) IsLoading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// Clear resets the held content.
func (d *DocumentLoader) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = ""
}
