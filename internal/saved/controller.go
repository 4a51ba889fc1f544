// Package saved implements the save-state controller: it owns the set of
// bookmarked tenders and keeps it consistent with the server through
// optimistic toggles and authoritative resynchronization.
package saved

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/openprocure/tenderflow/internal/api"
	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// Deps contains all dependencies required by the save-state controller.
type Deps struct {
	// API is the remote platform surface. Nil in offline mode.
	API service.TenderAPI
	// Store persists bookmarks locally; required in offline mode.
	Store service.Storage
	// Notifier surfaces toggle confirmations and failures.
	Notifier service.Notifier
	// Clock drives the debounce window.
	Clock service.Clock
	// OnToggle, if set, is invoked after every applied optimistic toggle
	// so the owning list view can flip its preview flags.
	OnToggle func(hash string, saved bool)
}

// Validate ensures the dependency set is usable for the chosen mode.
func (d *Deps) Validate(offline bool) error {
	if offline {
		if d.Store == nil {
			return fmt.Errorf("store dependency is required in offline mode")
		}
	} else if d.API == nil {
		return fmt.Errorf("API dependency is required")
	}
	if d.Notifier == nil {
		return fmt.Errorf("notifier dependency is required")
	}
	if d.Clock == nil {
		d.Clock = service.RealClock{}
	}
	return nil
}

// Config holds configuration options for the save-state controller.
type Config struct {
	// Situation is sent with every save request.
	Situation string
	// DebounceWindow suppresses repeated toggles on the same tender.
	DebounceWindow time.Duration
	// Offline persists bookmarks to local storage instead of the server.
	Offline bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DebounceWindow: 500 * time.Millisecond,
	}
}

// Controller owns the bookmark set. Consumers read but never mutate it;
// all mutation goes through Toggle and Refresh.
type Controller struct {
	deps   Deps
	config Config
	logger *slog.Logger

	mu         sync.Mutex
	saved      map[string]struct{}
	previews   []model.TenderPreview
	lastToggle map[string]time.Time
}

// New creates a save-state controller with the default configuration.
func New(deps Deps) (*Controller, error) {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates a save-state controller with custom configuration.
func NewWithConfig(deps Deps, config Config) (*Controller, error) {
	if err := deps.Validate(config.Offline); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if config.DebounceWindow <= 0 {
		config.DebounceWindow = DefaultConfig().DebounceWindow
	}
	return &Controller{
		deps:       deps,
		config:     config,
		logger:     slog.Default().With("component", "saved"),
		saved:      make(map[string]struct{}),
		lastToggle: make(map[string]time.Time),
	}, nil
}

// IsSaved reports whether the tender is currently bookmarked.
func (c *Controller) IsSaved(hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.saved[hash]
	return ok
}

// Hashes returns the bookmarked tender hashes.
func (c *Controller) Hashes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	hashes := make([]string, 0, len(c.saved))
	for hash := range c.saved {
		hashes = append(hashes, hash)
	}
	return hashes
}

// Previews returns a copy of the saved-tender preview list.
func (c *Controller) Previews() []model.TenderPreview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.TenderPreview(nil), c.previews...)
}

// Refresh replaces the in-memory set with the authoritative one: the
// server's saved list online, the local store offline.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.config.Offline {
		hashes, err := c.deps.Store.ListBookmarks(ctx)
		if err != nil {
			return fmt.Errorf("failed to load offline bookmarks: %w", err)
		}
		c.mu.Lock()
		c.saved = make(map[string]struct{}, len(hashes))
		for _, hash := range hashes {
			c.saved[hash] = struct{}{}
		}
		c.previews = nil
		c.mu.Unlock()
		return nil
	}

	params := model.DefaultQueryParams()
	params.Saved = true

	var previews []model.TenderPreview
	seen := make(map[string]struct{})
	for {
		page, err := c.deps.API.ListTenders(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to refresh saved tenders: %w", err)
		}
		for _, item := range page.Items {
			if _, dup := seen[item.Hash]; dup {
				continue
			}
			seen[item.Hash] = struct{}{}
			item.Saved = true
			previews = append(previews, item)
		}
		if !page.HasNext || len(page.Items) == 0 {
			break
		}
		params.Offset = page.Offset + len(page.Items)
	}

	c.mu.Lock()
	c.saved = seen
	c.previews = previews
	c.mu.Unlock()

	c.logger.Debug("Refreshed saved set", "count", len(previews))
	return nil
}

// Toggle flips the bookmark state of a tender. The in-memory set and the
// saved preview list change immediately; the network call follows. On
// failure the whole set is resynchronized from the server rather than
// rolled back locally, trading a round trip for guaranteed consistency.
//
// Repeated toggles on the same tender inside the debounce window are
// silently ignored so a double-click cannot produce duplicate requests.
func (c *Controller) Toggle(ctx context.Context, tender model.TenderPreview) error {
	now := c.deps.Clock.Now()

	c.mu.Lock()
	if last, ok := c.lastToggle[tender.Hash]; ok && now.Sub(last) < c.config.DebounceWindow {
		c.mu.Unlock()
		c.logger.Debug("Toggle ignored within debounce window", "tender_hash", tender.Hash)
		return nil
	}
	c.lastToggle[tender.Hash] = now

	_, wasSaved := c.saved[tender.Hash]
	target := !wasSaved
	c.applyLocked(tender, target)
	c.mu.Unlock()

	if c.deps.OnToggle != nil {
		c.deps.OnToggle(tender.Hash, target)
	}

	if err := c.persist(ctx, tender, target); err != nil {
		msg := fmt.Sprintf("Could not update bookmark for %s", tender.TenderID)
		c.deps.Notifier.Error(msg)
		if refreshErr := c.Refresh(ctx); refreshErr != nil {
			c.logger.Error("Resync after failed toggle also failed", "error", refreshErr)
		}
		return common.NewUserError(msg, err)
	}

	if target {
		c.deps.Notifier.Success(fmt.Sprintf("Saved %s", tender.TenderID))
	} else {
		c.deps.Notifier.Success(fmt.Sprintf("Removed %s", tender.TenderID))
	}
	return nil
}

// applyLocked mutates the set and preview list for the optimistic update.
func (c *Controller) applyLocked(tender model.TenderPreview, saved bool) {
	if saved {
		c.saved[tender.Hash] = struct{}{}
		tender.Saved = true
		c.previews = append(c.previews, tender)
		return
	}
	delete(c.saved, tender.Hash)
	out := c.previews[:0]
	for _, p := range c.previews {
		if p.Hash != tender.Hash {
			out = append(out, p)
		}
	}
	c.previews = out
}

// persist performs the authoritative mutation. The server treats saving
// an already-saved tender (409) and unsaving an already-unsaved one (404)
// as success for our purposes.
func (c *Controller) persist(ctx context.Context, tender model.TenderPreview, saved bool) error {
	if c.config.Offline {
		if saved {
			return c.deps.Store.AddBookmark(ctx, tender.Hash)
		}
		return c.deps.Store.RemoveBookmark(ctx, tender.Hash)
	}

	if saved {
		err := c.deps.API.SaveTender(ctx, tender.URI, c.config.Situation)
		if err != nil && api.StatusCode(err) == http.StatusConflict {
			c.logger.Debug("Tender already saved on server", "tender_hash", tender.Hash)
			return nil
		}
		return err
	}

	err := c.deps.API.UnsaveTender(ctx, tender.URI)
	if err != nil && errors.Is(err, common.ErrNotFound) {
		c.logger.Debug("Tender already absent on server", "tender_hash", tender.Hash)
		return nil
	}
	return err
}
