package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cataloging/internal/amqp"
	"cataloging/internal/core"
	"cataloging/internal/period"
	"cataloging/internal/storage"
)

// CatalogService orchestrates catalog record operations across the
// store and the optional AMQP export stream.
type CatalogService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewCatalogService(storage *storage.Repository, amqpClient *amqp.Client) *CatalogService {
	return &CatalogService{
		storage:    storage,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// ListQuery selects a page of records. Explicit bounds win over the
// period label; both StartDate and EndDate must be set for that.
type ListQuery struct {
	Period    period.Period
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// ListResult is a page of records plus pagination metadata. TotalCount
// and TotalPages cover the whole bounded set, independent of the page.
type ListResult struct {
	Records     []core.CatalogRecord
	Range       period.DateRange
	TotalCount  int64
	TotalPages  int64
	CurrentPage int
	Limit       int
}

// Report is the per-column summation over a bounded, optionally
// region-filtered set, plus the full raw row set for client-side export.
type Report struct {
	Totals  core.CountTotals
	Records []core.CatalogRecord
	Range   period.DateRange
}

// Create stamps server-side fields and stores a new record. The work
// date is normalized to start of day KST and update_date is always the
// current KST instant, never a client value.
func (s *CatalogService) Create(ctx context.Context, rec core.CatalogRecord) (core.CatalogRecord, error) {
	s.stamp(&rec)
	if err := rec.Validate(); err != nil {
		return core.CatalogRecord{}, err
	}

	saved, err := s.storage.Insert(ctx, rec)
	if err != nil {
		return core.CatalogRecord{}, fmt.Errorf("save record: %w", err)
	}

	s.publishUpsert(ctx, saved.ID)
	return saved, nil
}

// Update replaces all business fields of the record with the given id,
// re-stamping update_date. Returns core.ErrNotFound for unknown ids.
func (s *CatalogService) Update(ctx context.Context, id int64, rec core.CatalogRecord) (core.CatalogRecord, error) {
	rec.ID = id
	s.stamp(&rec)
	if err := rec.Validate(); err != nil {
		return core.CatalogRecord{}, err
	}

	saved, err := s.storage.Update(ctx, rec)
	if err != nil {
		return core.CatalogRecord{}, err
	}

	s.publishUpsert(ctx, saved.ID)
	return saved, nil
}

// Delete removes the record with the given id. Returns core.ErrNotFound
// for unknown ids.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishRecordDelete(ctx, id); err != nil {
			// Export is best-effort: the local delete already succeeded.
			slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
		}
	}
	return nil
}

// List returns one page of the bounded row set together with the total
// count over the same bounds. The count and data reads are independent
// and may observe different snapshots under concurrent writes.
func (s *CatalogService) List(ctx context.Context, q ListQuery) (ListResult, error) {
	bounds, err := s.bounds(q.Period, q.StartDate, q.EndDate)
	if err != nil {
		return ListResult{}, err
	}

	totalCount, err := s.storage.CountRange(ctx, bounds)
	if err != nil {
		return ListResult{}, err
	}

	offset := (q.Page - 1) * q.Limit
	records, err := s.storage.ListRange(ctx, bounds, q.Limit, offset)
	if err != nil {
		return ListResult{}, err
	}

	var totalPages int64
	if q.Limit > 0 {
		totalPages = (totalCount + int64(q.Limit) - 1) / int64(q.Limit)
	}

	return ListResult{
		Records:     records,
		Range:       bounds,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: q.Page,
		Limit:       q.Limit,
	}, nil
}

// Summarize computes per-column sums and the full raw row set over the
// period's bounds. Only a storable region restricts the set; the
// Combined sentinel (and anything else) disables the filter.
func (s *CatalogService) Summarize(ctx context.Context, p period.Period, region core.Region) (Report, error) {
	bounds := period.Resolve(p, s.now())

	totals, err := s.storage.SumRange(ctx, bounds, region)
	if err != nil {
		return Report{}, err
	}

	records, err := s.storage.ListRangeAll(ctx, bounds, region)
	if err != nil {
		return Report{}, err
	}

	return Report{Totals: totals, Records: records, Range: bounds}, nil
}

// bounds resolves a period label unless explicit timestamps were given.
func (s *CatalogService) bounds(p period.Period, startDate, endDate string) (period.DateRange, error) {
	if startDate != "" && endDate != "" {
		bounds, err := period.ParseBounds(startDate, endDate)
		if err != nil {
			return period.DateRange{}, fmt.Errorf("parse bounds: %w", err)
		}
		return bounds, nil
	}
	return period.Resolve(p, s.now()), nil
}

// stamp normalizes the work date to start of day KST and sets
// update_date to the current KST instant.
func (s *CatalogService) stamp(rec *core.CatalogRecord) {
	rec.DefaultCounts()
	if !rec.WDate.IsZero() {
		y, m, d := rec.WDate.In(period.KST).Date()
		rec.WDate = time.Date(y, m, d, 0, 0, 0, 0, period.KST)
	}
	rec.UpdateDate = s.now().In(period.KST)
}

func (s *CatalogService) publishUpsert(ctx context.Context, id int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishRecordUpsert(ctx, id); err != nil {
		// Export is best-effort: the record is already saved locally.
		slog.ErrorContext(ctx, "Failed to publish upsert message", "id", id, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *CatalogService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close catalog service: %v", errs)
	}

	return nil
}
