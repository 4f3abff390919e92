package backend

import (
	"context"
	"fmt"
	"log/slog"

	"videojobs/internal/amqp"
	"videojobs/internal/pricing"
	"videojobs/internal/services"
	"videojobs/internal/sheets"
	"videojobs/internal/sheets/memory"
	"videojobs/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	table, err := pricing.LoadFile(config.PricingFile)
	if err != nil {
		return nil, fmt.Errorf("load pricing table: %w", err)
	}

	var store sheets.LogStore
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = memory.NewFromFile(config.MemorySeedFile)
		f.logger.InfoContext(ctx, "Initialized memory backend, data is lost on restart",
			"seed_file", config.MemorySeedFile)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	// Publishing is optional and never blocks startup
	var publisher sheets.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewJobService(store, table, publisher)

	f.logger.InfoContext(ctx, "Job recorder ready",
		"backend", config.Type,
		"video_types", len(table.VideoTypes()),
		"events_enabled", publisher != nil)

	return &BackendResult{
		Store:   store,
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}
