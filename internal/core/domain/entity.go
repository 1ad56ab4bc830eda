package domain

// EntityKind distinguishes the two kinds of registrations ("vínculos") the
// lookup service returns for a tax identifier.
type EntityKind string

const (
	KindCompany  EntityKind = "EMPRESA"
	KindProperty EntityKind = "IMÓVEL"
)

// ContributorCode returns the backend contributor-kind code used by the
// issuance service.
func (k EntityKind) ContributorCode() string {
	if k == KindCompany {
		return "3"
	}
	return "2"
}

// Entity is a single company or property registration linked to the tax
// identifier the user supplied. Entities are immutable once constructed; a new
// lookup replaces the whole list.
type Entity struct {
	Kind           EntityKind
	RegistrationID string
	Subtype        string
	Address        string
	HasOpenDebt    bool
	DebtSuspended  bool

	// OwnerDescriptor is only meaningful for property registrations.
	OwnerDescriptor string

	// Owner fields are denormalized from the owning contributor and are the
	// same across all entities returned by one lookup.
	OwnerName  string
	OwnerTaxID string
}
