package signal

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/kailas-cloud/signalsearch/internal/domain"
)

var (
	wsID  = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	sigA  = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	sigB  = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	when  = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	pcols = []string{
		"id", "workspace_id", "title", "content", "source", "url",
		"entities", "metadata", "created_at", "published_at",
	}
)

func newRepoWithMock(t *testing.T) (*Repo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return New(db), mock, func() { _ = db.Close() }
}

func TestGetByIDs_SingleBatchQuery(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows(pcols).
		AddRow(sigA.String(), wsID.String(), "AI invoicing", "content a", "github", "https://x",
			[]byte(`{"industries":["fintech"],"technologies":["python"]}`), []byte(`{"stars":10}`), when, nil).
		AddRow(sigB.String(), wsID.String(), nil, "content b", "rss", nil,
			[]byte(`{}`), []byte(`{}`), when, when)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE workspace_id = $1 AND id = ANY($2::uuid[])")).
		WithArgs(wsID.String(), "{"+sigA.String()+","+sigB.String()+"}").
		WillReturnRows(rows)

	got, err := repo.GetByIDs(context.Background(), wsID, []uuid.UUID{sigA, sigB})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(got))
	}
	if got[0].ID != sigA || got[0].Title != "AI invoicing" || got[0].Entities.Industries[0] != "fintech" {
		t.Errorf("unexpected first signal: %+v", got[0])
	}
	if got[0].Metadata["stars"] != float64(10) {
		t.Errorf("metadata not decoded: %v", got[0].Metadata)
	}
	if got[0].PublishedAt != nil {
		t.Error("expected nil published_at")
	}
	if got[1].Title != "" || got[1].URL != "" || got[1].PublishedAt == nil {
		t.Errorf("nullable columns not mapped: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDs_EmptyIsNoop(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	got, err := repo.GetByIDs(context.Background(), wsID, nil)
	if err != nil || got != nil {
		t.Fatalf("GetByIDs(nil) = %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDs_QueryError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM signals").WillReturnError(boom)

	if _, err := repo.GetByIDs(context.Background(), wsID, []uuid.UUID{sigA}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, workspace_id").
		WithArgs(wsID.String(), sigA.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), wsID, sigA)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByWorkspace_Keyset(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows(pcols).
		AddRow(sigB.String(), wsID.String(), "t", "c", "github", nil, nil, nil, when, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE workspace_id = $1 AND id > $2")).
		WithArgs(wsID.String(), sigA.String(), 50).
		WillReturnRows(rows)

	got, err := repo.ListByWorkspace(context.Background(), wsID, sigA, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != sigB {
		t.Fatalf("unexpected page: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchema_TakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(schemaLockID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS signals").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchema_DDLFailureRollsBack(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	if err := repo.EnsureSchema(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
