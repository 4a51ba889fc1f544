package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/openprocure/tenderflow/internal/api"
	"github.com/openprocure/tenderflow/internal/config"
	"github.com/openprocure/tenderflow/internal/service"
	"github.com/openprocure/tenderflow/internal/session"
	"github.com/openprocure/tenderflow/internal/storage"
)

// initStorage initializes the local database with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// app bundles the wired client stack for one command invocation.
type app struct {
	store  service.Storage
	client *api.Client
	gate   *session.Gate
}

// newApp builds storage, the session gate, and the platform client, then
// restores any persisted session.
func newApp(ctx context.Context) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	gate := session.NewGate(store)

	baseURL := viper.GetString("api.url")
	if baseURL == "" {
		_ = store.Close()
		return nil, fmt.Errorf("no API URL configured; set api.url or pass --api-url")
	}

	client, err := api.NewClient(api.Config{BaseURL: baseURL}, gate.Token)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create platform client: %w", err)
	}
	gate.AttachAuth(client)

	if err := gate.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return &app{store: store, client: client, gate: gate}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// requireAuth fails with a login hint unless the session is usable.
func (a *app) requireAuth() error {
	decision, _ := a.gate.Guard("")
	if decision != session.DecisionProceed {
		return fmt.Errorf("not logged in; run 'tenderflow login' first")
	}
	return nil
}
