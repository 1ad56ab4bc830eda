package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/munidigital/document-assistant/internal/core/domain"
	"github.com/munidigital/document-assistant/internal/core/ports"
)

// Limits bounds the dialogue's external calls and rendering.
type Limits struct {
	DisplayLimit    int
	LookupTimeout   time.Duration
	IssuanceTimeout time.Duration

	// ProductKeyOverride, when set by the embedding application, replaces the
	// catalog product key on every issuance request.
	ProductKeyOverride string
}

// DialogueUseCase drives the guided document-request flow, one serialized
// handle cycle per identity.
type DialogueUseCase struct {
	sessions  ports.SessionStore
	lookup    ports.EntityLookup
	issuer    ports.DocumentIssuer
	messenger ports.Messenger
	audit     ports.AuditLog
	logger    *slog.Logger
	limits    Limits
}

func NewDialogueUseCase(
	sessions ports.SessionStore,
	lookup ports.EntityLookup,
	issuer ports.DocumentIssuer,
	messenger ports.Messenger,
	audit ports.AuditLog,
	logger *slog.Logger,
	limits Limits,
) *DialogueUseCase {
	if limits.DisplayLimit <= 0 {
		limits.DisplayLimit = 20
	}
	if limits.LookupTimeout <= 0 {
		limits.LookupTimeout = 15 * time.Second
	}
	if limits.IssuanceTimeout <= 0 {
		limits.IssuanceTimeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DialogueUseCase{
		sessions:  sessions,
		lookup:    lookup,
		issuer:    issuer,
		messenger: messenger,
		audit:     audit,
		logger:    logger,
		limits:    limits,
	}
}

// HandleMessage processes one inbound text for one identity. Every failure
// resolves to either a re-prompt or a session termination; nothing escapes to
// the caller except outbound delivery errors, which are already logged.
func (uc *DialogueUseCase) HandleMessage(ctx context.Context, identity, text string) error {
	release := uc.sessions.Acquire(identity)
	defer release()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	session, ok := uc.sessions.Get(identity)
	if !ok {
		return uc.startConversation(ctx, identity)
	}

	justPrompted := session.JustPrompted
	session.JustPrompted = false

	switch session.State {
	case domain.StateAwaitTaxID:
		return uc.handleTaxID(ctx, session, text, justPrompted)
	case domain.StateAwaitContinue:
		return uc.handleContinueDecision(ctx, session, text, justPrompted)
	case domain.StateAwaitEntitySelect:
		return uc.handleEntitySelection(ctx, session, text, justPrompted)
	case domain.StateAwaitDocumentSelect:
		return uc.handleDocumentSelection(ctx, session, text, justPrompted)
	case domain.StateAwaitPostIssuance:
		return uc.handlePostIssuance(ctx, session, text, justPrompted)
	default:
		uc.sessions.Delete(identity)
		return nil
	}
}

// startConversation consumes the first message of a new session. Users who
// already finished a flow in this process skip the greeting and go straight to
// a new lookup.
func (uc *DialogueUseCase) startConversation(ctx context.Context, identity string) error {
	session := uc.sessions.GetOrCreate(identity)
	session.State = domain.StateAwaitTaxID
	session.JustPrompted = true

	if session.Greeted {
		return uc.send(ctx, identity, renderNewLookupPrompt())
	}
	session.Greeted = true
	return uc.send(ctx, identity, renderWelcome())
}

func (uc *DialogueUseCase) handleTaxID(ctx context.Context, session *domain.Session, text string, justPrompted bool) error {
	taxID := domain.NormalizeTaxID(text)
	if taxID == "" {
		return uc.reprompt(ctx, session, justPrompted, warnTaxIDFormat)
	}
	session.TaxID = text

	_ = uc.send(ctx, session.Identity, renderSearching())

	lookupCtx, cancel := context.WithTimeout(ctx, uc.limits.LookupTimeout)
	entities, err := uc.lookup.LookupByTaxID(lookupCtx, taxID)
	cancel()

	if err != nil {
		outcome := domain.AuditOutcomeUnavailable
		message := renderLookupUnavailable()
		if domain.IsKind(err, domain.ErrInvalidTaxID) {
			outcome = domain.AuditOutcomeInvalid
			message = renderInvalidTaxIDReported()
		}
		uc.logger.Warn("lookup_failed", "identity", session.Identity, "outcome", outcome, "error", err)
		uc.auditLookup(ctx, session.Identity, taxID, 0, outcome)
		uc.sessions.Delete(session.Identity)
		return uc.send(ctx, session.Identity, message)
	}

	if len(entities) == 0 {
		uc.auditLookup(ctx, session.Identity, taxID, 0, domain.AuditOutcomeEmpty)
		uc.sessions.Delete(session.Identity)
		return uc.send(ctx, session.Identity, renderNoEntities())
	}

	uc.auditLookup(ctx, session.Identity, taxID, len(entities), domain.AuditOutcomeSuccess)
	session.Entities = entities
	session.State = domain.StateAwaitContinue
	session.JustPrompted = true
	return uc.send(ctx, session.Identity, renderLookupResult(entities, uc.limits.DisplayLimit))
}

func (uc *DialogueUseCase) handleContinueDecision(ctx context.Context, session *domain.Session, text string, justPrompted bool) error {
	switch text {
	case "1":
		session.State = domain.StateAwaitEntitySelect
		session.JustPrompted = true
		return uc.send(ctx, session.Identity, renderEntityChoices(session.Entities, uc.limits.DisplayLimit))
	case "2":
		uc.sessions.Delete(session.Identity)
		return uc.send(ctx, session.Identity, renderClosing())
	default:
		return uc.reprompt(ctx, session, justPrompted, warnContinueChoice)
	}
}

func (uc *DialogueUseCase) handleEntitySelection(ctx context.Context, session *domain.Session, text string, justPrompted bool) error {
	limit := min(uc.limits.DisplayLimit, len(session.Entities))
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > limit {
		return uc.reprompt(ctx, session, justPrompted, warnEntityChoice)
	}

	selected := session.Entities[n-1]
	session.Selected = &selected
	session.State = domain.StateAwaitDocumentSelect
	session.JustPrompted = true
	return uc.send(ctx, session.Identity, renderDocumentMenu(selected))
}

func (uc *DialogueUseCase) handleDocumentSelection(ctx context.Context, session *domain.Session, text string, justPrompted bool) error {
	n, err := strconv.Atoi(text)
	if err != nil {
		return uc.reprompt(ctx, session, justPrompted, warnDocumentChoice)
	}

	option, ok := domain.ResolveDocument(session.Selected.Kind, n)
	if !ok {
		// Catalog mismatch carries the valid options, so it is never
		// suppressed like a plain invalid-option warning.
		return uc.send(ctx, session.Identity, renderCatalogMismatch(session.Selected.Kind))
	}

	session.SelectedDocument = &option
	_ = uc.send(ctx, session.Identity, renderGenerating(option.DisplayName))

	outcome := uc.issueDocument(ctx, session, option)

	session.State = domain.StateAwaitPostIssuance
	session.JustPrompted = true
	return uc.send(ctx, session.Identity, outcome+"\n\n"+renderPostIssuanceMenu())
}

// issueDocument runs one issuance attempt and returns the user-facing outcome
// text. Failures never abort the flow; the user always lands on the
// post-issuance menu.
func (uc *DialogueUseCase) issueDocument(ctx context.Context, session *domain.Session, option domain.DocumentOption) string {
	entity := session.Selected
	productKey := option.ProductKey
	if uc.limits.ProductKeyOverride != "" {
		productKey = uc.limits.ProductKeyOverride
	}

	req := domain.DocumentRequest{
		OperationCode:   option.OperationCode,
		ProductKey:      productKey,
		ContributorCode: entity.Kind.ContributorCode(),
		RegistrationID:  entity.RegistrationID,
		TaxID:           domain.NormalizeTaxID(session.TaxID),
	}

	issueCtx, cancel := context.WithTimeout(ctx, uc.limits.IssuanceTimeout)
	result, err := uc.issuer.Issue(issueCtx, req)
	cancel()

	if err != nil {
		uc.logger.Warn("issuance_failed", "identity", session.Identity,
			"registration_id", entity.RegistrationID, "operation", option.OperationCode, "error", err)
		uc.auditIssuance(ctx, session, option, domain.AuditOutcomeUnavailable, err.Error())
		return renderIssuanceUnavailable()
	}

	if !result.Issued() {
		uc.auditIssuance(ctx, session, option, domain.AuditOutcomeRejected, result.Message)
		return renderIssuanceRejected(result.Message)
	}

	uc.auditIssuance(ctx, session, option, domain.AuditOutcomeSuccess, result.Message)
	return renderIssuanceSuccess(option.DisplayName, result)
}

func (uc *DialogueUseCase) handlePostIssuance(ctx context.Context, session *domain.Session, text string, justPrompted bool) error {
	switch text {
	case "1":
		session.State = domain.StateAwaitDocumentSelect
		session.JustPrompted = true
		return uc.send(ctx, session.Identity, renderDocumentMenu(*session.Selected))
	case "2":
		session.Entities = nil
		session.Selected = nil
		session.SelectedDocument = nil
		session.State = domain.StateAwaitTaxID
		session.JustPrompted = true
		return uc.send(ctx, session.Identity, renderNewLookupPrompt())
	case "3":
		uc.sessions.Delete(session.Identity)
		return uc.send(ctx, session.Identity, renderClosing())
	default:
		return uc.reprompt(ctx, session, justPrompted, warnPostIssuanceOpt)
	}
}

// reprompt sends an invalid-input warning unless the previous outbound message
// was the state's own entry prompt. State is never mutated here.
func (uc *DialogueUseCase) reprompt(ctx context.Context, session *domain.Session, justPrompted bool, warning string) error {
	if justPrompted {
		return nil
	}
	return uc.send(ctx, session.Identity, warning)
}

func (uc *DialogueUseCase) send(ctx context.Context, identity, text string) error {
	if err := uc.messenger.Send(ctx, identity, text); err != nil {
		uc.logger.Error("send_failed", "identity", identity, "error", err)
		return err
	}
	return nil
}

func (uc *DialogueUseCase) auditLookup(ctx context.Context, identity, taxID string, count int, outcome string) {
	if uc.audit == nil {
		return
	}
	entry := domain.LookupAudit{
		ID:          uuid.NewString(),
		Identity:    identity,
		TaxID:       taxID,
		EntityCount: count,
		Outcome:     outcome,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.audit.RecordLookup(ctx, entry); err != nil {
		uc.logger.Warn("audit_lookup_failed", "identity", identity, "error", err)
	}
}

func (uc *DialogueUseCase) auditIssuance(ctx context.Context, session *domain.Session, option domain.DocumentOption, outcome, message string) {
	if uc.audit == nil {
		return
	}
	entry := domain.IssuanceAudit{
		ID:             uuid.NewString(),
		Identity:       session.Identity,
		TaxID:          domain.NormalizeTaxID(session.TaxID),
		RegistrationID: session.Selected.RegistrationID,
		DocumentName:   option.DisplayName,
		OperationCode:  option.OperationCode,
		Outcome:        outcome,
		Message:        message,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.audit.RecordIssuance(ctx, entry); err != nil {
		uc.logger.Warn("audit_issuance_failed", "identity", session.Identity, "error", err)
	}
}
