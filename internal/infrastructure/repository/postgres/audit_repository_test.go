package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

func newRepo(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return NewAuditRepository(db), mock
}

func TestEnsureSchemaRunsInsideTx(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(2026082901)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS lookup_audit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema error = %v", err)
	}
}

func TestEnsureSchemaRollsBackOnDDLError(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(2026082901)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS lookup_audit").
		WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	if err := repo.EnsureSchema(context.Background()); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestRecordLookup(t *testing.T) {
	repo, mock := newRepo(t)

	entry := domain.LookupAudit{
		ID:          "id-1",
		Identity:    "u1",
		TaxID:       "11144477735",
		EntityCount: 3,
		Outcome:     domain.AuditOutcomeSuccess,
		CreatedAt:   time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO lookup_audit").
		WithArgs(entry.ID, entry.Identity, entry.TaxID, entry.EntityCount, entry.Outcome, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordLookup(context.Background(), entry); err != nil {
		t.Fatalf("RecordLookup error = %v", err)
	}
}

func TestRecordIssuance(t *testing.T) {
	repo, mock := newRepo(t)

	entry := domain.IssuanceAudit{
		ID:             "id-2",
		Identity:       "u1",
		TaxID:          "11144477735",
		RegistrationID: "123456",
		DocumentName:   "Certidão",
		OperationCode:  "2",
		Outcome:        domain.AuditOutcomeRejected,
		Message:        "Inscrição com débito",
		CreatedAt:      time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO issuance_audit").
		WithArgs(entry.ID, entry.Identity, entry.TaxID, entry.RegistrationID, entry.DocumentName,
			entry.OperationCode, entry.Outcome, entry.Message, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordIssuance(context.Background(), entry); err != nil {
		t.Fatalf("RecordIssuance error = %v", err)
	}
}

func TestRecordLookupWrapsDriverError(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("INSERT INTO lookup_audit").
		WillReturnError(errors.New("connection refused"))

	err := repo.RecordLookup(context.Background(), domain.LookupAudit{ID: "x"})
	if err == nil {
		t.Fatalf("expected insert error")
	}
}
