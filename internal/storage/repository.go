package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cataloging/internal/core"
	"cataloging/internal/period"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const tsLayout = "2006-01-02 15:04:05"

// countColumns lists the eight numeric-as-text columns in report order.
var countColumns = []string{
	"new_species", "new_bookcount",
	"rearray_species", "rearray_bookcount",
	"multipart_species", "multipart_bookcount",
	"edit_bookcount", "authority_bookcount",
}

// Repository provides catalog record persistence over database/sql.
// It speaks two dialects: sqlite (timestamps stored as text) and
// postgres (native timestamps, text-rendered on the way out).
type Repository struct {
	db      *sql.DB
	dialect string
	table   string // qualified <schema>.<table>
}

// NewSQLiteRepository opens (and migrates) a sqlite database at dbPath.
func NewSQLiteRepository(dbPath, schema, table string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		dialect: "sqlite",
		table:   schema + "." + table,
	}, nil
}

// NewPostgresRepository connects to postgres with the given DSN and runs
// migrations. Custom schemas are assumed to be provisioned out of band;
// migrations target public.
func NewPostgresRepository(dsn, schema, table string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if schema == "public" {
		if err := RunPostgresMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return &Repository{
		db:      db,
		dialect: "postgres",
		table:   schema + "." + table,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// rebind converts ?-style placeholders to $n for postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
		} else {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// tsOut renders a timestamp column as "YYYY-MM-DD HH:MM:SS" text in the
// select list. sqlite already stores that exact text.
func (r *Repository) tsOut(col string) string {
	if r.dialect == "postgres" {
		return "TO_CHAR(" + col + ", 'YYYY-MM-DD HH24:MI:SS') AS " + col
	}
	return col
}

// tsIn casts a bound placeholder for timestamp comparison.
func (r *Repository) tsIn() string {
	if r.dialect == "postgres" {
		return "?::timestamp"
	}
	return "?"
}

func (r *Repository) selectColumns() string {
	cols := []string{"id", "region", "worker", r.tsOut("w_date")}
	cols = append(cols, countColumns...)
	cols = append(cols, r.tsOut("update_date"), "update_user")
	return strings.Join(cols, ", ")
}

// Insert stores a new record and returns it with the assigned id.
func (r *Repository) Insert(ctx context.Context, rec core.CatalogRecord) (core.CatalogRecord, error) {
	query := r.rebind(fmt.Sprintf(`
		INSERT INTO %s (
			region, worker, w_date, new_species, new_bookcount, rearray_species, rearray_bookcount,
			multipart_species, multipart_bookcount, edit_bookcount, authority_bookcount, update_date, update_user, synced
		) VALUES (?, ?, %s, ?, ?, ?, ?, ?, ?, ?, ?, %s, ?, 0)
		RETURNING id`, r.table, r.tsIn(), r.tsIn()))

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		string(rec.Region), rec.Worker, formatTS(rec.WDate),
		string(rec.NewSpecies), string(rec.NewBookCount),
		string(rec.RearraySpecies), string(rec.RearrayBookCount),
		string(rec.MultipartSpecies), string(rec.MultipartBookCount),
		string(rec.EditBookCount), string(rec.AuthorityBookCount),
		formatTS(rec.UpdateDate), rec.UpdateUser,
	).Scan(&id)
	if err != nil {
		return core.CatalogRecord{}, fmt.Errorf("insert record: %w", err)
	}

	rec.ID = id
	slog.InfoContext(ctx, "Record saved",
		"id", id,
		"region", rec.Region,
		"worker", rec.Worker,
		"w_date", formatTS(rec.WDate))
	return rec, nil
}

// Update replaces all business fields of an existing record. Returns
// core.ErrNotFound when the id does not exist.
func (r *Repository) Update(ctx context.Context, rec core.CatalogRecord) (core.CatalogRecord, error) {
	query := r.rebind(fmt.Sprintf(`
		UPDATE %s SET
			region = ?, worker = ?, w_date = %s, new_species = ?, new_bookcount = ?, rearray_species = ?,
			rearray_bookcount = ?, multipart_species = ?, multipart_bookcount = ?, edit_bookcount = ?,
			authority_bookcount = ?, update_date = %s, update_user = ?, synced = 0
		WHERE id = ?`, r.table, r.tsIn(), r.tsIn()))

	res, err := r.db.ExecContext(ctx, query,
		string(rec.Region), rec.Worker, formatTS(rec.WDate),
		string(rec.NewSpecies), string(rec.NewBookCount),
		string(rec.RearraySpecies), string(rec.RearrayBookCount),
		string(rec.MultipartSpecies), string(rec.MultipartBookCount),
		string(rec.EditBookCount), string(rec.AuthorityBookCount),
		formatTS(rec.UpdateDate), rec.UpdateUser, rec.ID,
	)
	if err != nil {
		return core.CatalogRecord{}, fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.CatalogRecord{}, fmt.Errorf("update rows affected: %w", err)
	}
	if affected == 0 {
		return core.CatalogRecord{}, core.ErrNotFound
	}

	slog.InfoContext(ctx, "Record updated", "id", rec.ID, "worker", rec.Worker)
	return rec, nil
}

// Delete removes a record by id. Returns core.ErrNotFound when the id
// does not exist.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := r.rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table))

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Record deleted", "id", id)
	return nil
}

// Get retrieves a single record by id.
func (r *Repository) Get(ctx context.Context, id int64) (core.CatalogRecord, error) {
	query := r.rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, r.selectColumns(), r.table))

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.CatalogRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.CatalogRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// ListRange returns records whose w_date falls within bounds, newest
// work date first with id as tie-break, sliced by limit/offset.
func (r *Repository) ListRange(ctx context.Context, bounds period.DateRange, limit, offset int) ([]core.CatalogRecord, error) {
	query := r.rebind(fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE w_date BETWEEN %s AND %s
		ORDER BY w_date DESC, id DESC
		LIMIT ? OFFSET ?`, r.selectColumns(), r.table, r.tsIn(), r.tsIn()))

	rows, err := r.db.QueryContext(ctx, query, bounds.SQLStart(), bounds.SQLEnd(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// CountRange returns the number of records within bounds, independent of
// pagination.
func (r *Repository) CountRange(ctx context.Context, bounds period.DateRange) (int64, error) {
	query := r.rebind(fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE w_date BETWEEN %s AND %s`, r.table, r.tsIn(), r.tsIn()))

	var count int64
	if err := r.db.QueryRowContext(ctx, query, bounds.SQLStart(), bounds.SQLEnd()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// SumRange computes per-column sums over the bounded set. A storable
// region restricts the set; core.Combined (or empty) disables the filter.
func (r *Repository) SumRange(ctx context.Context, bounds period.DateRange, region core.Region) (core.CountTotals, error) {
	sums := make([]string, len(countColumns))
	for i, col := range countColumns {
		sums[i] = fmt.Sprintf("COALESCE(SUM(CAST(%s AS INTEGER)), 0)", col)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE w_date BETWEEN %s AND %s`,
		strings.Join(sums, ", "), r.table, r.tsIn(), r.tsIn())
	args := []any{bounds.SQLStart(), bounds.SQLEnd()}
	if region.Storable() {
		query += " AND region = ?"
		args = append(args, string(region))
	}

	var t core.CountTotals
	err := r.db.QueryRowContext(ctx, r.rebind(query), args...).Scan(
		&t.NewSpecies, &t.NewBookCount,
		&t.RearraySpecies, &t.RearrayBookCount,
		&t.MultipartSpecies, &t.MultipartBookCount,
		&t.EditBookCount, &t.AuthorityBookCount,
	)
	if err != nil {
		return core.CountTotals{}, fmt.Errorf("sum records: %w", err)
	}
	return t, nil
}

// ListRangeAll returns the full unpaginated row set for bounds, with the
// same optional region filter and ordering as SumRange/ListRange.
func (r *Repository) ListRangeAll(ctx context.Context, bounds period.DateRange, region core.Region) ([]core.CatalogRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE w_date BETWEEN %s AND %s`,
		r.selectColumns(), r.table, r.tsIn(), r.tsIn())
	args := []any{bounds.SQLStart(), bounds.SQLEnd()}
	if region.Storable() {
		query += " AND region = ?"
		args = append(args, string(region))
	}
	query += " ORDER BY w_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list all records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListPendingExport returns up to limit records not yet exported.
func (r *Repository) ListPendingExport(ctx context.Context, limit int) ([]core.CatalogRecord, error) {
	query := r.rebind(fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE synced = 0
		ORDER BY id
		LIMIT ?`, r.selectColumns(), r.table))

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// MarkExported flags a record as exported.
func (r *Repository) MarkExported(ctx context.Context, id int64) error {
	query := r.rebind(fmt.Sprintf(`UPDATE %s SET synced = 1 WHERE id = ?`, r.table))
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.CatalogRecord, error) {
	var (
		rec               core.CatalogRecord
		region            string
		wDate, updateDate string
		counts            [8]string
	)
	err := row.Scan(
		&rec.ID, &region, &rec.Worker, &wDate,
		&counts[0], &counts[1], &counts[2], &counts[3],
		&counts[4], &counts[5], &counts[6], &counts[7],
		&updateDate, &rec.UpdateUser,
	)
	if err != nil {
		return core.CatalogRecord{}, err
	}

	rec.Region = core.Region(region)
	rec.NewSpecies = core.Count(counts[0])
	rec.NewBookCount = core.Count(counts[1])
	rec.RearraySpecies = core.Count(counts[2])
	rec.RearrayBookCount = core.Count(counts[3])
	rec.MultipartSpecies = core.Count(counts[4])
	rec.MultipartBookCount = core.Count(counts[5])
	rec.EditBookCount = core.Count(counts[6])
	rec.AuthorityBookCount = core.Count(counts[7])

	if rec.WDate, err = parseTS(wDate); err != nil {
		return core.CatalogRecord{}, fmt.Errorf("parse w_date %q: %w", wDate, err)
	}
	if rec.UpdateDate, err = parseTS(updateDate); err != nil {
		return core.CatalogRecord{}, fmt.Errorf("parse update_date %q: %w", updateDate, err)
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]core.CatalogRecord, error) {
	var records []core.CatalogRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func formatTS(t time.Time) string {
	return t.In(period.KST).Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.ParseInLocation(tsLayout, s, period.KST)
}
