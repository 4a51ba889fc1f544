// Package query implements the tender query controller: it owns the
// current filter/sort/pagination parameters and the merged result list.
package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// Controller owns the tender list and its query parameters. Consumers read
// snapshots but never mutate the list directly; all mutation goes through
// the controller's methods.
type Controller struct {
	api    service.TenderAPI
	logger *slog.Logger

	mu         sync.Mutex
	params     model.QueryParams
	items      []model.TenderPreview
	seen       map[string]struct{}
	lastError  string
	total      int
	nextOffset int
	generation uint64
	hasMore    bool
	loading    bool
}

// New creates a query controller with the default parameter set.
func New(api service.TenderAPI) *Controller {
	return &Controller{
		api:    api,
		logger: slog.Default().With("component", "query"),
		params: model.DefaultQueryParams(),
		seen:   make(map[string]struct{}),
	}
}

// beginLoadLocked stamps a new request generation and marks a load in
// flight. Responses carrying an older generation are discarded so a
// superseded query can never overwrite a newer result.
func (c *Controller) beginLoadLocked() uint64 {
	c.generation++
	c.loading = true
	return c.generation
}

// LoadTenders issues one list request with the given parameters. When
// replace is true or the offset is zero the result set replaces the held
// list; otherwise new items are appended, de-duplicated by tender hash
// against the already-held set.
func (c *Controller) LoadTenders(ctx context.Context, params model.QueryParams, replace bool) error {
	c.mu.Lock()
	c.params = params
	gen := c.beginLoadLocked()
	c.mu.Unlock()

	return c.fetch(ctx, params, replace, gen)
}

// LoadMore fetches the next page. It is a no-op when the server reported
// no further pages or when a load is already in flight, which is the only
// guard against duplicate concurrent page fetches.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasMore || c.loading {
		c.mu.Unlock()
		return nil
	}
	params := c.params
	params.Offset = c.nextOffset
	c.params = params
	gen := c.beginLoadLocked()
	c.mu.Unlock()

	return c.fetch(ctx, params, false, gen)
}

// UpdateParams merges a partial change into the current parameters, forces
// the offset back to zero, and triggers a replacing reload: changing any
// filter always restarts pagination from the first page.
func (c *Controller) UpdateParams(ctx context.Context, update model.ParamUpdate) error {
	c.mu.Lock()
	merged := update.Apply(c.params)
	c.mu.Unlock()
	return c.LoadTenders(ctx, merged, true)
}

// ResetParams restores the fixed default parameter set and reloads.
func (c *Controller) ResetParams(ctx context.Context) error {
	return c.LoadTenders(ctx, model.DefaultQueryParams(), true)
}

// SetSort updates the active sort. It funnels through UpdateParams so sort
// changes also reset pagination.
func (c *Controller) SetSort(ctx context.Context, sort model.SortState) error {
	return c.UpdateParams(ctx, model.ParamUpdate{Sort: &sort})
}

func (c *Controller) fetch(ctx context.Context, params model.QueryParams, replace bool, gen uint64) error {
	page, err := c.api.ListTenders(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// A newer query superseded this one while it was in flight; its
		// owner will clear the loading flag.
		c.logger.Debug("Discarding stale list response", "generation", gen, "current", c.generation)
		return nil
	}

	c.loading = false

	if err != nil {
		// The existing list stays untouched; retry is the caller's call.
		c.lastError = common.UserMessage(err)
		c.logger.Error("Failed to load tenders", "error", err, "offset", params.Offset)
		return err
	}

	if replace || params.Offset == 0 {
		c.items = append([]model.TenderPreview(nil), page.Items...)
		c.seen = make(map[string]struct{}, len(page.Items))
		for _, item := range page.Items {
			c.seen[item.Hash] = struct{}{}
		}
	} else {
		for _, item := range page.Items {
			if _, dup := c.seen[item.Hash]; dup {
				continue
			}
			c.seen[item.Hash] = struct{}{}
			c.items = append(c.items, item)
		}
	}

	c.total = page.Total
	c.nextOffset = page.Offset + len(page.Items)
	c.hasMore = page.HasNext
	c.lastError = ""

	c.logger.Debug("Loaded tender page",
		"held", len(c.items),
		"total", c.total,
		"next_offset", c.nextOffset,
		"has_more", c.hasMore)
	return nil
}

// Items returns a copy of the held list.
func (c *Controller) Items() []model.TenderPreview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.TenderPreview(nil), c.items...)
}

// Total returns the server-reported total result count.
func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// HasMore reports whether the server indicated further pages.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// NextOffset returns the offset the next page would be fetched at.
func (c *Controller) NextOffset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextOffset
}

// IsLoading reports whether a load is in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Error returns the user-visible message of the last failed load, or ""
// after a successful one.
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Params returns the current query parameters.
func (c *Controller) Params() model.QueryParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetSaved flips the saved flag on a held preview, used by the save-state
// controller to reflect optimistic toggles in the visible list.
func (c *Controller) SetSaved(hash string, saved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Hash == hash {
			c.items[i].Saved = saved
		}
	}
}
