package backend

import (
	"context"
	"fmt"

	"cataloging/internal/amqp"
	"cataloging/internal/log"
	"cataloging/internal/services"
	"cataloging/internal/storage"
)

// DefaultFactory wires repositories, AMQP, and the catalog service.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo *storage.Repository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath, config.Schema, config.Table)
	case PostgresBackend:
		repo, err = storage.NewPostgresRepository(config.PostgresDSN, config.Schema, config.Table)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s repository: %w", config.Type, err)
	}

	// AMQP is optional; the service falls back to sweep-based export.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without export events",
				log.FieldError, err)
			amqpClient = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	service := services.NewCatalogService(repo, amqpClient)

	f.logger.InfoContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type.String(),
		"table", config.Table,
		"amqp_enabled", amqpClient != nil)

	return &Result{
		Service: service,
		Storage: repo,
		Cleanup: service.Close,
	}, nil
}
