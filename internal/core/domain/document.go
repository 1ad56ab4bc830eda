package domain

// DocumentOption is one entry of the per-kind document catalog. LocalID is the
// number the user types; OperationCode and ProductKey are what the issuance
// backend expects. The backend numbering is not contiguous with the menu
// numbering, so the tables below are kept explicit per kind and must never be
// derived arithmetically.
type DocumentOption struct {
	LocalID       int
	DisplayName   string
	OperationCode string
	ProductKey    string
}

var companyDocuments = []DocumentOption{
	{LocalID: 1, DisplayName: "Demonstrativo", OperationCode: "1", ProductKey: "DC"},
	{LocalID: 2, DisplayName: "Certidão", OperationCode: "2", ProductKey: "CR"},
	{LocalID: 3, DisplayName: "BCM (Boletim de Cadastro Mercantil)", OperationCode: "4", ProductKey: "BC"},
	{LocalID: 4, DisplayName: "Alvará de Funcionamento", OperationCode: "5", ProductKey: "AL"},
	{LocalID: 5, DisplayName: "VISA", OperationCode: "6", ProductKey: "VS"},
}

var propertyDocuments = []DocumentOption{
	{LocalID: 1, DisplayName: "Demonstrativo", OperationCode: "1", ProductKey: "DC"},
	{LocalID: 2, DisplayName: "Certidão", OperationCode: "2", ProductKey: "CR"},
	{LocalID: 3, DisplayName: "BCI (Boletim de Cadastro Imobiliário)", OperationCode: "3", ProductKey: "BC"},
}

// AvailableDocuments returns the ordered document menu for an entity kind.
func AvailableDocuments(kind EntityKind) []DocumentOption {
	if kind == KindCompany {
		return companyDocuments
	}
	return propertyDocuments
}

// ResolveDocument maps a user-facing document number to its backend codes.
// The second return is false when the number is not valid for the kind.
func ResolveDocument(kind EntityKind, localID int) (DocumentOption, bool) {
	for _, opt := range AvailableDocuments(kind) {
		if opt.LocalID == localID {
			return opt, true
		}
	}
	return DocumentOption{}, false
}

// DocumentRequest carries everything the issuance backend needs for one
// attempt. Built fresh per attempt, never reused.
type DocumentRequest struct {
	OperationCode   string
	ProductKey      string
	ContributorCode string
	RegistrationID  string
	TaxID           string
}

// DocumentResult is the issuance backend's answer. It is consumed immediately
// by the formatter and never persisted.
type DocumentResult struct {
	Code    int
	Link    string
	Message string
}

// Issued reports whether the backend actually produced a document. A zero
// code with an empty link is a failure, not a success.
func (r DocumentResult) Issued() bool {
	return r.Code == 0 && r.Link != ""
}
