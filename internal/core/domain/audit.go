package domain

import "time"

// LookupAudit records one entity-lookup attempt for the audit trail.
type LookupAudit struct {
	ID          string
	Identity    string
	TaxID       string
	EntityCount int
	Outcome     string
	CreatedAt   time.Time
}

// IssuanceAudit records one document-issuance attempt.
type IssuanceAudit struct {
	ID             string
	Identity       string
	TaxID          string
	RegistrationID string
	DocumentName   string
	OperationCode  string
	Outcome        string
	Message        string
	CreatedAt      time.Time
}

const (
	AuditOutcomeSuccess     = "success"
	AuditOutcomeEmpty       = "empty"
	AuditOutcomeInvalid     = "invalid_tax_id"
	AuditOutcomeRejected    = "rejected"
	AuditOutcomeUnavailable = "unavailable"
)
