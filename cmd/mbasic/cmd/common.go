package cmd

import (
	"github.com/msto63/mbasic/internal/frontend/metrics"
	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
	"github.com/msto63/mbasic/pkg/core/config"
)

// newService builds the execution service from the configuration. filename
// is reported in diagnostics.
func newService(cfg *config.Config, filename string, m *metrics.Metrics) (*service.Service, error) {
	return service.NewService(service.Config{
		Filename:         filename,
		TestFile:         cfg.Server.TestFile,
		MaxInputLength:   cfg.Frontend.MaxInputLength,
		MaxDepth:         cfg.Frontend.MaxNestingDepth,
		EnableHistory:    cfg.History.Enabled,
		HistoryPath:      cfg.History.Path,
		HistoryRetention: cfg.History.Retention,
		Metrics:          m,
	})
}

// openHistory opens the configured run store
func openHistory(cfg *config.Config) (*store.SQLiteRunStore, error) {
	return store.NewSQLiteRunStore(store.SQLiteRunConfig{
		Path:      cfg.History.Path,
		Retention: cfg.History.Retention,
	})
}
