package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

// AuditRepository keeps the lookup and issuance audit trail. It is the only
// persistence in the process; session state itself deliberately stays in
// memory.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent instances.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS lookup_audit (
	id TEXT PRIMARY KEY,
	identity TEXT NOT NULL,
	tax_id TEXT NOT NULL,
	entity_count INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS issuance_audit (
	id TEXT PRIMARY KEY,
	identity TEXT NOT NULL,
	tax_id TEXT NOT NULL,
	registration_id TEXT NOT NULL,
	document_name TEXT NOT NULL,
	operation_code TEXT NOT NULL,
	outcome TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lookup_audit_identity ON lookup_audit (identity, created_at);
CREATE INDEX IF NOT EXISTS idx_issuance_audit_identity ON issuance_audit (identity, created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return tx.Commit()
}

func (r *AuditRepository) RecordLookup(ctx context.Context, entry domain.LookupAudit) error {
	const query = `
INSERT INTO lookup_audit (id, identity, tax_id, entity_count, outcome, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Identity, entry.TaxID, entry.EntityCount, entry.Outcome, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lookup audit: %w", err)
	}
	return nil
}

func (r *AuditRepository) RecordIssuance(ctx context.Context, entry domain.IssuanceAudit) error {
	const query = `
INSERT INTO issuance_audit (id, identity, tax_id, registration_id, document_name, operation_code, outcome, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Identity, entry.TaxID, entry.RegistrationID, entry.DocumentName,
		entry.OperationCode, entry.Outcome, entry.Message, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert issuance audit: %w", err)
	}
	return nil
}
