// Package app initializes and holds long-lived application services.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bookharvest/bookharvest/internal/config"
	"github.com/bookharvest/bookharvest/internal/crawler"
	"github.com/bookharvest/bookharvest/internal/server"
	"github.com/bookharvest/bookharvest/internal/storage/csvfile"
	"github.com/bookharvest/bookharvest/internal/storage/postgres"
)

// App holds the shared services for one invocation: the configured record
// sink and the optional metrics listener.
type App struct {
	logger  *zap.Logger
	sink    crawler.RecordSink
	metrics *server.Server
}

// New builds the application services from configuration. It fails fast if
// the sink backend cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	var (
		sink crawler.RecordSink
		err  error
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		logger.Info("using postgres sink", zap.String("table", cfg.DB.Table))
		sink, err = postgres.NewBookStore(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
	case config.BackendCSV:
		logger.Info("using csv sink", zap.String("path", cfg.Storage.CSVPath))
		sink, err = csvfile.NewSink(cfg.Storage.CSVPath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize sink: %w", err)
	}

	a := &App{logger: logger, sink: sink}
	if cfg.Server.MetricsPort > 0 {
		a.metrics = server.New(cfg.Server.MetricsPort, logger)
		a.metrics.Start()
	}
	return a, nil
}

// Sink returns the configured record sink.
func (a *App) Sink() crawler.RecordSink {
	return a.sink
}

// Close shuts the services down in reverse order of construction.
func (a *App) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warn("error stopping metrics server", zap.Error(err))
		}
	}
	if err := a.sink.Close(); err != nil {
		a.logger.Warn("error closing sink", zap.Error(err))
	}
}
