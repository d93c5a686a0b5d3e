package sheets

import (
	"context"

	"cataloging/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordWriter mirrors a catalog record to an external sheet. Upsert
	// replaces the row holding the record's id, appending when absent.
	RecordWriter interface {
		Upsert(ctx context.Context, rec core.CatalogRecord) (rowRef string, err error)
	}

	// RecordDeleter removes the row holding the given record id. Removing
	// an id that was never exported is not an error.
	RecordDeleter interface {
		Remove(ctx context.Context, id int64) error
	}
)
