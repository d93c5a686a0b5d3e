package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cataloging/internal/core"
	"cataloging/internal/period"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"), "main", "cataloging")
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRecord(worker string, region core.Region, wDate time.Time) core.CatalogRecord {
	rec := core.CatalogRecord{
		Region:     region,
		Worker:     worker,
		WDate:      wDate,
		UpdateDate: time.Date(2024, 3, 20, 10, 30, 0, 0, period.KST),
		UpdateUser: worker,
	}
	rec.DefaultCounts()
	return rec
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, period.KST)
}

func marchBounds() period.DateRange {
	r, _ := period.ParseBounds("2024-03-01", "2024-03-31")
	return r
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := testRecord("kim", core.Domestic, day(15))
	in.NewSpecies = "5"
	in.NewBookCount = "10"

	saved, err := repo.Insert(ctx, in)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := repo.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Worker != "kim" || got.Region != core.Domestic {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.NewSpecies != "5" || got.NewBookCount != "10" || got.RearraySpecies != "0" {
		t.Errorf("unexpected counts: %+v", got)
	}
	if !got.WDate.Equal(day(15)) {
		t.Errorf("w_date = %v, want %v", got.WDate, day(15))
	}
}

func TestUpdateReplacesBusinessFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, testRecord("kim", core.Domestic, day(15)))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	saved.Worker = "lee"
	saved.Region = core.International
	saved.EditBookCount = "7"
	saved.UpdateDate = time.Date(2024, 3, 21, 9, 0, 0, 0, period.KST)

	if _, err := repo.Update(ctx, saved); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Worker != "lee" || got.Region != core.International || got.EditBookCount != "7" {
		t.Errorf("unexpected record after update: %+v", got)
	}
	if got.UpdateDate.Format("2006-01-02 15:04:05") != "2024-03-21 09:00:00" {
		t.Errorf("update_date = %v", got.UpdateDate)
	}
}

func TestUpdateAndDeleteUnknownIDIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := testRecord("kim", core.Domestic, day(15))
	rec.ID = 9999
	if _, err := repo.Update(ctx, rec); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete: got %v, want ErrNotFound", err)
	}
	if _, err := repo.Get(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get: got %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, testRecord("kim", core.Domestic, day(15)))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}
}

func TestListRangeOrderingAndPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Two records share a work date to exercise the id tie-break.
	for _, rec := range []core.CatalogRecord{
		testRecord("a", core.Domestic, day(10)),
		testRecord("b", core.Domestic, day(12)),
		testRecord("c", core.International, day(12)),
		testRecord("d", core.Domestic, day(14)),
	} {
		if _, err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	bounds := marchBounds()

	count, err := repo.CountRange(ctx, bounds)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}

	page1, err := repo.ListRange(ctx, bounds, 3, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	workers := []string{page1[0].Worker, page1[1].Worker, page1[2].Worker}
	// w_date DESC, then id DESC for the shared date.
	if workers[0] != "d" || workers[1] != "c" || workers[2] != "b" {
		t.Errorf("unexpected order: %v", workers)
	}

	page2, err := repo.ListRange(ctx, bounds, 3, 3)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2) != 1 || page2[0].Worker != "a" {
		t.Errorf("unexpected page 2: %+v", page2)
	}

	empty, err := repo.ListRange(ctx, bounds, 3, 6)
	if err != nil {
		t.Fatalf("list beyond last page: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %d rows", len(empty))
	}
}

func TestListRangeBoundsAreInclusive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Insert(ctx, testRecord("edge", core.Domestic, day(1))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Insert(ctx, testRecord("out", core.Domestic, time.Date(2024, 2, 29, 0, 0, 0, 0, period.KST))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := repo.ListRange(ctx, marchBounds(), 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Worker != "edge" {
		t.Errorf("expected only the in-range record, got %+v", rows)
	}
}

func TestSumRangeMatchesListedRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec1 := testRecord("kim", core.Domestic, day(10))
	rec1.NewSpecies = "5"
	rec1.NewBookCount = "10"
	rec2 := testRecord("lee", core.International, day(11))
	rec2.NewSpecies = "2"
	rec2.AuthorityBookCount = "4"
	for _, rec := range []core.CatalogRecord{rec1, rec2} {
		if _, err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	bounds := marchBounds()

	sums, err := repo.SumRange(ctx, bounds, core.Combined)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}

	// Cross-check: aggregate sums equal the arithmetic sum of the rows
	// returned for the identical bounds and filter.
	rows, err := repo.ListRangeAll(ctx, bounds, core.Combined)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	var manual core.CountTotals
	for _, rec := range rows {
		if err := manual.Add(rec); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if sums != manual {
		t.Errorf("store sums %+v != row sums %+v", sums, manual)
	}
	if sums.NewSpecies != 7 || sums.NewBookCount != 10 || sums.AuthorityBookCount != 4 {
		t.Errorf("unexpected sums: %+v", sums)
	}
}

func TestSumRangeRegionFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec1 := testRecord("kim", core.Domestic, day(10))
	rec1.NewSpecies = "5"
	rec2 := testRecord("lee", core.International, day(11))
	rec2.NewSpecies = "2"
	for _, rec := range []core.CatalogRecord{rec1, rec2} {
		if _, err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	bounds := marchBounds()

	domestic, err := repo.SumRange(ctx, bounds, core.Domestic)
	if err != nil {
		t.Fatalf("sum domestic: %v", err)
	}
	if domestic.NewSpecies != 5 {
		t.Errorf("domestic sum = %d, want 5", domestic.NewSpecies)
	}

	// Combined is a sentinel, not a stored value: it must disable the
	// filter, not match rows literally.
	combined, err := repo.SumRange(ctx, bounds, core.Combined)
	if err != nil {
		t.Fatalf("sum combined: %v", err)
	}
	if combined.NewSpecies != 7 {
		t.Errorf("combined sum = %d, want 7", combined.NewSpecies)
	}

	rows, err := repo.ListRangeAll(ctx, bounds, core.International)
	if err != nil {
		t.Fatalf("list international: %v", err)
	}
	if len(rows) != 1 || rows[0].Worker != "lee" {
		t.Errorf("unexpected filtered rows: %+v", rows)
	}
}

func TestPendingExportLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Insert(ctx, testRecord("kim", core.Domestic, day(10)))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != saved.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkExported(ctx, saved.ID); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	pending, err = repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("pending after mark: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending records, got %d", len(pending))
	}

	// Any mutation resets the export flag.
	if _, err := repo.Update(ctx, saved); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, err = repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("pending after update: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected record pending again, got %d", len(pending))
	}
}
