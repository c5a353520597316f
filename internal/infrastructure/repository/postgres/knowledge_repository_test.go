package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

func newKnowledgeRepoWithMock(t *testing.T) (*KnowledgeRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &KnowledgeRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestKnowledgeGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newKnowledgeRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, tool_id, title").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrKnowledgeNotFound) {
		t.Fatalf("expected ErrKnowledgeNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestKnowledgeUpdateStatusReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newKnowledgeRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE knowledge_entries").
		WithArgs("missing", string(domain.KnowledgeStatusReady), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.KnowledgeStatusReady, "")
	if !domain.IsKind(err, domain.ErrKnowledgeNotFound) {
		t.Fatalf("expected ErrKnowledgeNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestKnowledgeStatsCountsReadyEntries(t *testing.T) {
	repo, mock, done := newKnowledgeRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(string(domain.KnowledgeStatusReady)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(7, 0.82))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ReadyEntries != 7 {
		t.Fatalf("ReadyEntries = %d, want 7", stats.ReadyEntries)
	}
	if stats.AverageQuality != 0.82 {
		t.Fatalf("AverageQuality = %v, want 0.82", stats.AverageQuality)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestKnowledgeStatsEmptyTable(t *testing.T) {
	repo, mock, done := newKnowledgeRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(string(domain.KnowledgeStatusReady)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(0, 0.0))

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.ReadyEntries != 0 || stats.AverageQuality != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
