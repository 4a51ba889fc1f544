// Package summary implements the asynchronous AI-summary task poller as
// an explicit finite-state machine: idle, requested, polling, and the
// terminal completed/failed states.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// State is the poller's position in its lifecycle.
type State string

// Poller states.
const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the state ends the poller's lifecycle.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// placeholderDocument stands in when a tender carries no document
// references and the lookup endpoint returns none either. The generation
// service accepts it as "summarize from the tender record alone".
var placeholderDocument = model.ProcurementDocument{Title: "tender_notice"}

// Deps contains all dependencies required by the task poller.
type Deps struct {
	// API issues the generation request and status checks.
	API service.TenderAPI
	// Notifier announces the terminal outcome.
	Notifier service.Notifier
	// Clock drives the poll interval.
	Clock service.Clock
	// OnComplete, if set, fires once when a task completes so dependent
	// views can refresh the generated summary.
	OnComplete func(taskID string)
}

// Validate ensures all required dependencies are present.
func (d *Deps) Validate() error {
	if d.API == nil {
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

// Config holds configuration options for the task poller.
type Config struct {
	// Interval between status checks once a task id is known.
	Interval time.Duration
	// Questions are forwarded with every generation request.
	Questions []string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Interval: 10 * time.Second}
}

// Poller drives one AI-summary generation task at a time. Requesting a
// new task supersedes the previous one: its poll loop stops and its
// result is discarded without notification.
type Poller struct {
	deps   Deps
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	task     *model.SummaryTask
	stop     chan struct{}
	done     chan struct{}
	notified bool
}

// New creates a task poller with the default configuration.
func New(deps Deps) (*Poller, error) {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates a task poller with custom configuration.
func NewWithConfig(deps Deps, config Config) (*Poller, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Poller{
		deps:   deps,
		config: config,
		logger: slog.Default().With("component", "summary"),
		state:  StateIdle,
	}, nil
}

// State returns the poller's current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Task returns the current task snapshot, or nil before the first
// request.
func (p *Poller) Task() *model.SummaryTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.task == nil {
		return nil
	}
	copied := *p.task
	return &copied
}

// Request starts a new generation task for a tender. Document references
// fall back to an API lookup when none are supplied, and to a single
// placeholder when the lookup yields nothing either. Any previous poll
// loop is stopped before the new one starts.
func (p *Poller) Request(ctx context.Context, hash string, docs []model.ProcurementDocument, regenerate bool) error {
	p.cancelPoll()

	p.mu.Lock()
	p.state = StateRequested
	p.task = nil
	p.notified = false
	p.mu.Unlock()

	if len(docs) == 0 {
		fetched, err := p.deps.API.GetDocuments(ctx, hash)
		if err != nil {
			p.logger.Warn("Document lookup failed, using placeholder", "tender_hash", hash, "error", err)
		} else {
			docs = fetched
		}
	}
	if len(docs) == 0 {
		docs = []model.ProcurementDocument{placeholderDocument}
	}

	task, err := p.deps.API.RequestSummary(ctx, service.SummaryRequest{
		OutputID:   uuid.NewString(),
		TenderHash: hash,
		Documents:  docs,
		Questions:  p.config.Questions,
		Regenerate: regenerate,
	})
	if err != nil {
		p.mu.Lock()
		p.state = StateFailed
		p.mu.Unlock()
		p.deps.Notifier.Error("Could not start summary generation")
		return fmt.Errorf("failed to request summary: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	p.mu.Lock()
	p.state = StatePolling
	p.task = task
	p.stop = stop
	p.done = done
	p.mu.Unlock()

	p.logger.Debug("Summary task started", "task_id", task.ID, "tender_hash", hash)
	go p.poll(ctx, task.ID, stop, done)
	return nil
}

// poll runs the status loop: one immediate check, then one per interval,
// until a terminal status, cancellation, or supersession.
func (p *Poller) poll(ctx context.Context, taskID string, stop, done chan struct{}) {
	defer close(done)

	for {
		if p.check(ctx, taskID, stop) {
			return
		}
		select {
		case <-p.deps.Clock.After(p.config.Interval):
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// check performs one status request and reports whether polling should
// stop.
func (p *Poller) check(ctx context.Context, taskID string, stop chan struct{}) bool {
	task, err := p.deps.API.GetTaskStatus(ctx, taskID)
	if err != nil {
		// Transient status failures keep the loop alive; the next tick
		// retries.
		p.logger.Warn("Task status check failed", "task_id", taskID, "error", err)
		return false
	}

	p.mu.Lock()
	if p.stop != stop {
		// A newer task superseded this loop mid-check.
		p.mu.Unlock()
		return true
	}
	p.task = task
	if !task.Status.Terminal() {
		p.mu.Unlock()
		return false
	}
	alreadyNotified := p.notified
	p.notified = true
	p.mu.Unlock()

	if !alreadyNotified {
		if task.Status == model.TaskCompleted {
			p.deps.Notifier.Success("Summary is ready")
			if p.deps.OnComplete != nil {
				p.deps.OnComplete(taskID)
			}
		} else {
			msg := "Summary generation failed"
			if task.Error != "" {
				msg = fmt.Sprintf("Summary generation failed: %s", task.Error)
			}
			p.deps.Notifier.Error(msg)
		}
	}

	// The terminal state becomes visible only after the notification and
	// completion callback have run.
	p.mu.Lock()
	if task.Status == model.TaskCompleted {
		p.state = StateCompleted
	} else {
		p.state = StateFailed
	}
	p.mu.Unlock()
	return true
}

// Stop cancels the active poll loop, if any, and returns the poller to
// idle unless it already reached a terminal state.
func (p *Poller) Stop() {
	p.cancelPoll()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRequested || p.state == StatePolling {
		p.state = StateIdle
	}
}

// cancelPoll stops the current loop and waits for it to exit so two
// loops never run at once.
func (p *Poller) cancelPoll() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}
