package worker

import (
	"context"
	"errors"
	"fmt"

	"cataloging/internal/core"
	"cataloging/internal/log"
	"cataloging/internal/sheets"
	"cataloging/internal/storage"
)

// ExportWorker mirrors catalog records from the database to a sheet. It
// consumes export messages and also sweeps the pending set periodically,
// so records survive lost messages.
type ExportWorker struct {
	storage   *storage.Repository
	writer    sheets.RecordWriter
	deleter   sheets.RecordDeleter
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(storage *storage.Repository, writer sheets.RecordWriter, deleter sheets.RecordDeleter, batchSize int, logger *log.Logger) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		storage:   storage,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleUpsertMessage exports one record by id. A record deleted between
// the message and now is skipped, not failed.
func (w *ExportWorker) HandleUpsertMessage(ctx context.Context, id int64) error {
	rec, err := w.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "Record gone before export, skipping",
				log.FieldRecordID, id)
			return nil
		}
		return fmt.Errorf("get record %d: %w", id, err)
	}
	return w.export(ctx, rec)
}

// HandleDeleteMessage removes one record's row from the sheet.
func (w *ExportWorker) HandleDeleteMessage(ctx context.Context, id int64) error {
	if w.deleter == nil {
		w.logger.WarnContext(ctx, "No sheet deleter configured, skipping delete",
			log.FieldRecordID, id)
		return nil
	}
	if err := w.deleter.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove record %d from sheet: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Removed record from sheet",
		log.FieldRecordID, id,
		log.FieldOperation, log.OpDelete)
	return nil
}

// ProcessPendingRecords exports records whose synced flag is still clear.
// This is the backup path for lost messages.
func (w *ExportWorker) ProcessPendingRecords(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending records", "count", len(pending))

	var failed int
	for _, rec := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.export(ctx, rec); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export record",
				log.FieldRecordID, rec.ID,
				log.FieldError, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pending records failed to export", failed, len(pending))
	}
	return nil
}

// StartupCheck drains the pending set once at boot, catching records
// written while the worker was down.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Running startup export check",
		log.FieldOperation, log.OpStartup)
	return w.ProcessPendingRecords(ctx)
}

func (w *ExportWorker) export(ctx context.Context, rec core.CatalogRecord) error {
	ref, err := w.writer.Upsert(ctx, rec)
	if err != nil {
		return fmt.Errorf("upsert to sheet: %w", err)
	}
	if err := w.storage.MarkExported(ctx, rec.ID); err != nil {
		// The row landed; losing the flag only means a redundant re-export.
		w.logger.WarnContext(ctx, "Failed to mark record exported",
			log.FieldRecordID, rec.ID,
			log.FieldError, err)
	}
	w.logger.InfoContext(ctx, "Exported record to sheet",
		log.FieldRecordID, rec.ID,
		log.FieldSheetsRef, ref,
		log.FieldOperation, log.OpExport)
	return nil
}
