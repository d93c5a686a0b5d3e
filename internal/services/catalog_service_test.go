package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cataloging/internal/core"
	"cataloging/internal/period"
	"cataloging/internal/storage"
)

// fixedNow is a Wednesday afternoon KST; tests derive periods from it.
var fixedNow = time.Date(2024, 3, 20, 15, 0, 0, 0, period.KST)

func newTestService(t *testing.T) *CatalogService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), "main", "cataloging")
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := NewCatalogService(repo, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func input(worker string, region core.Region, wDate time.Time) core.CatalogRecord {
	return core.CatalogRecord{
		Region:     region,
		Worker:     worker,
		WDate:      wDate,
		UpdateUser: worker,
	}
}

func TestCreateStampsServerFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := input("kim", core.Domestic, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	in.NewSpecies = "5"
	in.NewBookCount = "10"
	// A client-supplied update_date must be ignored.
	in.UpdateDate = time.Date(1999, 1, 1, 0, 0, 0, 0, period.KST)

	saved, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if !saved.UpdateDate.Equal(fixedNow) {
		t.Errorf("update_date = %v, want %v", saved.UpdateDate, fixedNow)
	}
	if saved.RearrayBookCount != "0" {
		t.Errorf("absent count should default to 0, got %q", saved.RearrayBookCount)
	}
}

func TestCreateNormalizesWorkDateToStartOfDay(t *testing.T) {
	svc := newTestService(t)

	in := input("kim", core.Domestic, time.Date(2024, 3, 20, 17, 45, 12, 0, period.KST))
	saved, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST)
	got, err := svc.List(context.Background(), ListQuery{Period: period.Today, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].ID != saved.ID {
		t.Fatalf("expected the created record, got %+v", got.Records)
	}
	if !got.Records[0].WDate.Equal(want) {
		t.Errorf("w_date = %v, want %v", got.Records[0].WDate, want)
	}
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	svc := newTestService(t)

	in := input("kim", core.Combined, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, core.ErrInvalidRegion) {
		t.Errorf("got %v, want ErrInvalidRegion", err)
	}

	in = input("kim", core.Domestic, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	in.NewSpecies = "many"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, core.ErrInvalidCount) {
		t.Errorf("got %v, want ErrInvalidCount", err)
	}
}

func TestRoundTripListReturnsCreatedRecord(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := input("kim", core.Domestic, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	in.NewSpecies = "5"
	in.NewBookCount = "10"
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.List(ctx, ListQuery{Period: period.Today, Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalCount != 1 || res.CurrentPage != 1 {
		t.Errorf("unexpected pagination: %+v", res)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	rec := res.Records[0]
	if rec.NewSpecies != "5" || rec.NewBookCount != "10" {
		t.Errorf("unexpected counts: %+v", rec)
	}
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	svc := newTestService(t)

	in := input("kim", core.Domestic, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	if _, err := svc.Update(context.Background(), 12345, in); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteUnknownIDIsNotFound(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Delete(context.Background(), 12345); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListPaginationMetadata(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		in := input("kim", core.Domestic, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := svc.List(ctx, ListQuery{Period: period.Today, Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalCount != 7 {
		t.Errorf("totalCount = %d, want 7", res.TotalCount)
	}
	if res.TotalPages != 3 { // ceil(7/3)
		t.Errorf("totalPages = %d, want 3", res.TotalPages)
	}
	if len(res.Records) != 3 {
		t.Errorf("page 2 size = %d, want 3", len(res.Records))
	}

	// A page beyond the last yields an empty set, not an error.
	beyond, err := svc.List(ctx, ListQuery{Period: period.Today, Page: 4, Limit: 3})
	if err != nil {
		t.Fatalf("list beyond: %v", err)
	}
	if len(beyond.Records) != 0 {
		t.Errorf("expected empty page, got %d records", len(beyond.Records))
	}
	if beyond.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", beyond.TotalPages)
	}
}

func TestListExplicitBoundsWinOverPeriod(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	old := input("old", core.Domestic, time.Date(2023, 12, 5, 0, 0, 0, 0, period.KST))
	if _, err := svc.Create(ctx, old); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.List(ctx, ListQuery{
		Period:    period.Today,
		StartDate: "2023-12-01",
		EndDate:   "2023-12-31",
		Page:      1,
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Worker != "old" {
		t.Errorf("explicit bounds ignored: %+v", res.Records)
	}
}

func TestListRejectsMalformedBounds(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.List(context.Background(), ListQuery{
		StartDate: "12/01/2023",
		EndDate:   "2023-12-31",
		Page:      1,
		Limit:     10,
	})
	if err == nil {
		t.Fatal("expected error for malformed bounds")
	}
	if !errors.Is(err, period.ErrInvalidBounds) {
		t.Errorf("error %v does not wrap period.ErrInvalidBounds", err)
	}
}

func TestListZeroLimitDoesNotPanic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := input("kim", core.Domestic, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.List(ctx, ListQuery{Period: period.Today, Page: 1, Limit: 0})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalCount != 1 {
		t.Errorf("totalCount = %d, want 1", res.TotalCount)
	}
	if res.TotalPages != 0 {
		t.Errorf("totalPages = %d, want 0", res.TotalPages)
	}
	if len(res.Records) != 0 {
		t.Errorf("expected no records at limit 0, got %d", len(res.Records))
	}
}

func TestSummarizeCrossChecksWithList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Monday through Wednesday of the current week.
	for i, worker := range []string{"kim", "lee", "park"} {
		in := input(worker, core.Domestic, time.Date(2024, 3, 18+i, 0, 0, 0, 0, period.KST))
		in.NewSpecies = core.Count([]string{"1", "2", "3"}[i])
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	report, err := svc.Summarize(ctx, period.ThisWeek, core.Combined)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if report.Totals.NewSpecies != 6 {
		t.Errorf("new_species sum = %d, want 6", report.Totals.NewSpecies)
	}
	if len(report.Records) != 3 {
		t.Errorf("raw rows = %d, want 3", len(report.Records))
	}

	// The report's raw rows must sum to exactly the aggregate totals.
	var manual core.CountTotals
	for _, rec := range report.Records {
		if err := manual.Add(rec); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if manual != report.Totals {
		t.Errorf("aggregate %+v != row sums %+v", report.Totals, manual)
	}

	if report.Range.DisplayStart() != "2024/03/18" || report.Range.DisplayEnd() != "2024/03/20" {
		t.Errorf("display range [%s, %s]", report.Range.DisplayStart(), report.Range.DisplayEnd())
	}
}

func TestSummarizeRegionFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	dom := input("kim", core.Domestic, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	dom.EditBookCount = "3"
	intl := input("lee", core.International, time.Date(2024, 3, 20, 0, 0, 0, 0, period.KST))
	intl.EditBookCount = "4"
	for _, in := range []core.CatalogRecord{dom, intl} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	domestic, err := svc.Summarize(ctx, period.Today, core.Domestic)
	if err != nil {
		t.Fatalf("summarize domestic: %v", err)
	}
	if domestic.Totals.EditBookCount != 3 || len(domestic.Records) != 1 {
		t.Errorf("unexpected domestic report: %+v", domestic.Totals)
	}

	combined, err := svc.Summarize(ctx, period.Today, core.Combined)
	if err != nil {
		t.Fatalf("summarize combined: %v", err)
	}
	if combined.Totals.EditBookCount != 7 || len(combined.Records) != 2 {
		t.Errorf("unexpected combined report: %+v", combined.Totals)
	}
}
