package ports

import (
	"context"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

// EntityLookup resolves a tax identifier into the registrations linked to it.
// A nil error with an empty slice means the identifier is valid but has no
// registrations.
type EntityLookup interface {
	LookupByTaxID(ctx context.Context, taxID string) ([]domain.Entity, error)
}

// DocumentIssuer asks the issuance backend to generate one document. A nil
// error with Issued()==false means the backend rejected the request.
type DocumentIssuer interface {
	Issue(ctx context.Context, req domain.DocumentRequest) (domain.DocumentResult, error)
}

// Messenger delivers outbound text to an identity on the conversational
// channel. Failures are logged by the caller, never retried.
type Messenger interface {
	Send(ctx context.Context, identity, text string) error
}

// SessionStore owns the per-identity session lifecycle. Acquire serializes
// all logical operations for one identity; callers must hold the returned
// release function for the whole handle cycle.
type SessionStore interface {
	Get(identity string) (*domain.Session, bool)
	GetOrCreate(identity string) *domain.Session
	Delete(identity string)
	Acquire(identity string) (release func())
}

// AuditLog records lookup and issuance outcomes. Best effort: the dialogue
// never fails because auditing failed.
type AuditLog interface {
	RecordLookup(ctx context.Context, entry domain.LookupAudit) error
	RecordIssuance(ctx context.Context, entry domain.IssuanceAudit) error
}
