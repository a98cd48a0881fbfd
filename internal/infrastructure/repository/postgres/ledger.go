package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

const uniqueViolation = "23505"

// Ledger is the Postgres idempotency store. A processed_files row is
// written exactly once per identifier; the primary key makes MarkProcessed
// the atomic commit point for an item.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across watcher/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processed_files (
	identifier TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	content_hash TEXT,
	source_id TEXT,
	output_reference TEXT,
	error_detail TEXT,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processed_files_source_id ON processed_files(source_id);
CREATE INDEX IF NOT EXISTS idx_processed_files_processed_at ON processed_files(processed_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// IsProcessed reports whether any terminal record exists for the
// identifier, success or error alike.
func (l *Ledger) IsProcessed(ctx context.Context, identifier string) (bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT status FROM processed_files WHERE identifier = $1`, identifier)

	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan processed record: %w", err)
	}
	return true, nil
}

// MarkProcessed inserts the record. A second mark for the same identifier
// is a conflict and surfaces as ErrAlreadyProcessed; any other write
// failure propagates so the caller can treat the item as fatally failed.
func (l *Ledger) MarkProcessed(ctx context.Context, record domain.ProcessingRecord) error {
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
INSERT INTO processed_files (identifier, status, content_hash, source_id, output_reference, error_detail, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		record.Identifier, string(record.Status), record.ContentHash, record.SourceID,
		record.OutputReference, record.ErrorDetail, processedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.WrapError(domain.ErrAlreadyProcessed, "mark processed", err)
		}
		return fmt.Errorf("insert processed record: %w", err)
	}
	return nil
}

// Stats returns record counts grouped by status, optionally scoped to one
// source.
func (l *Ledger) Stats(ctx context.Context, sourceID string) (map[string]int, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if sourceID != "" {
		rows, err = l.db.QueryContext(ctx,
			`SELECT status, COUNT(*) FROM processed_files WHERE source_id = $1 GROUP BY status`, sourceID)
	} else {
		rows, err = l.db.QueryContext(ctx,
			`SELECT status, COUNT(*) FROM processed_files GROUP BY status`)
	}
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}
