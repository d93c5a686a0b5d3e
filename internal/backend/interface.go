package backend

import (
	"context"

	"cataloging/internal/services"
	"cataloging/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result bundles the wired-up service with its underlying repository.
// The repository is exposed for workers that read the pending-export set
// directly.
type Result struct {
	Service *services.CatalogService
	Storage *storage.Repository
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// BackendType names the storage engine.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is known.
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
