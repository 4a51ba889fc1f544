package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/openprocure/tenderflow/internal/detail"
	"github.com/openprocure/tenderflow/internal/query"
	"github.com/openprocure/tenderflow/internal/saved"
	"github.com/openprocure/tenderflow/internal/service"
	"github.com/openprocure/tenderflow/internal/summary"
)

// Config holds everything the browser needs to run.
type Config struct {
	API       service.TenderAPI
	Store     service.Storage
	Situation string
	Offline   bool
}

// Run starts the interactive tender browser and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	queries := query.New(cfg.API)

	savedCfg := saved.DefaultConfig()
	savedCfg.Situation = cfg.Situation
	savedCfg.Offline = cfg.Offline

	saves, err := saved.NewWithConfig(saved.Deps{
		API:      cfg.API,
		Store:    cfg.Store,
		Notifier: noopNotifier{},
		Clock:    service.RealClock{},
		OnToggle: queries.SetSaved,
	}, savedCfg)
	if err != nil {
		return fmt.Errorf("failed to create save controller: %w", err)
	}

	// Saving a tender kicks off summary generation; the result shows up
	// when the detail view is reopened.
	summaries, err := summary.New(summary.Deps{
		API:      cfg.API,
		Notifier: noopNotifier{},
		Clock:    service.RealClock{},
	})
	if err != nil {
		return fmt.Errorf("failed to create summary poller: %w", err)
	}
	defer summaries.Stop()

	m := NewModel(queries, saves, detail.NewLoader(cfg.API), summaries)

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser exited with error: %w", err)
	}
	return nil
}

// noopNotifier drops notifications; the browse view surfaces outcomes in
// its own status line instead.
type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Error(string)   {}
