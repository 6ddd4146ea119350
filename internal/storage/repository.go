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
	"time"

	"salesdash/internal/core"
	"salesdash/internal/records"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ records.Source    = (*SQLiteRepository)(nil)
	_ records.Versioner = (*SQLiteRepository)(nil)
	_ records.Writer    = (*SQLiteRepository)(nil)
)

// ErrNoImport is returned when the database holds no dataset snapshot yet.
var ErrNoImport = errors.New("no dataset imported")

// Import describes one dataset snapshot written by ReplaceAll.
type Import struct {
	ID         int64
	Source     string
	RowCount   int64
	ImportedAt time.Time
}

// SQLiteRepository stores the latest dataset snapshot in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements records.Source
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, department, software, seats, amount, user_name
		FROM sales_records
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			rec    core.Record
			amount string
		)
		if err := rows.Scan(&rec.Date, &rec.Department, &rec.Software, &rec.Seats, &amount, &rec.User); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		if rec.Amount, err = core.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("sales record amount %q: %w", amount, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales records: %w", err)
	}
	return out, nil
}

// Version implements records.Versioner using the latest import id.
func (r *SQLiteRepository) Version(ctx context.Context) (string, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM dataset_imports`).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("get latest import id: %w", err)
	}
	return "import:" + strconv.FormatInt(id, 10), nil
}

// ReplaceAll implements records.Writer. The previous snapshot is removed and
// the new one written in a single transaction.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, source string, recs []core.Record) (int64, error) {
	for i, rec := range recs {
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO dataset_imports (source, row_count, imported_at) VALUES (?, ?, ?)`,
		source, len(recs), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert import: %w", err)
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("import id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales_records`); err != nil {
		return 0, fmt.Errorf("clear sales records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_records (import_id, position, date, department, software, seats, amount, user_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range recs {
		if _, err := stmt.ExecContext(ctx, importID, i, rec.Date, rec.Department, rec.Software, rec.Seats, rec.Amount.String(), rec.User); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Dataset snapshot saved to SQLite",
		"import_id", importID,
		"source", source,
		"records", len(recs))

	return importID, nil
}

// LatestImport returns metadata of the current snapshot.
func (r *SQLiteRepository) LatestImport(ctx context.Context) (Import, error) {
	var (
		imp        Import
		importedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source, row_count, imported_at
		FROM dataset_imports
		ORDER BY id DESC
		LIMIT 1`).Scan(&imp.ID, &imp.Source, &imp.RowCount, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNoImport
	}
	if err != nil {
		return Import{}, fmt.Errorf("get latest import: %w", err)
	}
	imp.ImportedAt, err = time.Parse(time.RFC3339Nano, importedAt)
	if err != nil {
		return Import{}, fmt.Errorf("parse import time %q: %w", importedAt, err)
	}
	return imp, nil
}
