package domain

// DialogueState tracks where a conversation is in the guided flow.
type DialogueState string

const (
	StateUngreeted           DialogueState = "ungreeted"
	StateAwaitTaxID          DialogueState = "await_tax_id"
	StateAwaitContinue       DialogueState = "await_continue_decision"
	StateAwaitEntitySelect   DialogueState = "await_entity_selection"
	StateAwaitDocumentSelect DialogueState = "await_document_selection"
	StateAwaitPostIssuance   DialogueState = "await_post_issuance_choice"
)

// Session holds all per-identity conversation state. One session exists per
// identity, created on the first inbound message and removed when the flow
// terminates or hits a fatal error.
type Session struct {
	Identity string
	State    DialogueState

	// TaxID is the last raw tax identifier the user supplied.
	TaxID string

	// Entities is the result of the most recent lookup, in the exact order
	// they were parsed. The numbering shown to the user is derived from this
	// order and must never change while the session lives.
	Entities []Entity

	// Selected is set by value, not index, once the user picked an entity.
	// Only non-nil in the document-selection and post-issuance states.
	Selected *Entity

	// SelectedDocument is the catalog option chosen for the last issuance.
	SelectedDocument *DocumentOption

	// Greeted stays true for the whole lifetime of the conversation, even
	// across session removal, so returning users are not greeted twice.
	Greeted bool

	// JustPrompted suppresses a single "invalid option" warning when the
	// previous outbound message was the state's own entry prompt. Cleared on
	// the next reply, valid or not.
	JustPrompted bool
}
