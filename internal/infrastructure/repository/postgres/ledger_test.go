package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/ocrbox/internal/core/domain"
)

func newLedgerWithMock(t *testing.T) (*Ledger, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &Ledger{db: db}, mock, func() { _ = db.Close() }
}

func TestIsProcessedFalseWhenNoRecord(t *testing.T) {
	ledger, mock, done := newLedgerWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT status FROM processed_files").
		WithArgs("local:scan.png@1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	processed, err := ledger.IsProcessed(context.Background(), "local:scan.png@1")
	if err != nil {
		t.Fatalf("IsProcessed() error = %v", err)
	}
	if processed {
		t.Fatalf("expected not processed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIsProcessedTrueForErrorRecord(t *testing.T) {
	ledger, mock, done := newLedgerWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT status FROM processed_files").
		WithArgs("local:scan.png@1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("error"))

	processed, err := ledger.IsProcessed(context.Background(), "local:scan.png@1")
	if err != nil {
		t.Fatalf("IsProcessed() error = %v", err)
	}
	if !processed {
		t.Fatalf("an error record is still a terminal record")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessedInsertsRecord(t *testing.T) {
	ledger, mock, done := newLedgerWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO processed_files").
		WithArgs("local:scan.png@1", "success", "abc123", "local", "[receipts]_coffee.txt", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ledger.MarkProcessed(context.Background(), domain.ProcessingRecord{
		Identifier:      "local:scan.png@1",
		Status:          domain.StatusSuccess,
		ContentHash:     "abc123",
		SourceID:        "local",
		OutputReference: "[receipts]_coffee.txt",
		ProcessedAt:     now,
	})
	if err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessedConflictIsAlreadyProcessed(t *testing.T) {
	ledger, mock, done := newLedgerWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO processed_files").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := ledger.MarkProcessed(context.Background(), domain.ProcessingRecord{
		Identifier: "local:scan.png@1",
		Status:     domain.StatusSuccess,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStatsGroupsByStatus(t *testing.T) {
	ledger, mock, done := newLedgerWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs("local").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("success", 4).
			AddRow("error", 1))

	stats, err := ledger.Stats(context.Background(), "local")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats["success"] != 4 || stats["error"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
