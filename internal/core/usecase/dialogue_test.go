package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/munidigital/document-assistant/internal/core/domain"
	"github.com/munidigital/document-assistant/internal/infrastructure/session"
)

type lookupFake struct {
	entities []domain.Entity
	err      error
	gotTaxID string
	calls    int
}

func (f *lookupFake) LookupByTaxID(_ context.Context, taxID string) ([]domain.Entity, error) {
	f.calls++
	f.gotTaxID = taxID
	if f.err != nil {
		return nil, f.err
	}
	return f.entities, nil
}

type issuerFake struct {
	result domain.DocumentResult
	err    error
	gotReq domain.DocumentRequest
	calls  int
}

func (f *issuerFake) Issue(_ context.Context, req domain.DocumentRequest) (domain.DocumentResult, error) {
	f.calls++
	f.gotReq = req
	if f.err != nil {
		return domain.DocumentResult{}, f.err
	}
	return f.result, nil
}

type messengerFake struct {
	sent []string
}

func (f *messengerFake) Send(_ context.Context, _, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *messengerFake) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func companyEntity() domain.Entity {
	return domain.Entity{
		Kind:           domain.KindCompany,
		RegistrationID: "123456",
		Subtype:        "EMPRESA",
		Address:        "Rua das Árvores, 100 - Centro - AL",
		OwnerName:      "FULANO DE TAL",
		OwnerTaxID:     "11144477735",
	}
}

func propertyEntity() domain.Entity {
	return domain.Entity{
		Kind:            domain.KindProperty,
		RegistrationID:  "998877",
		Subtype:         "RESIDENCIAL",
		OwnerDescriptor: "PROPRIETÁRIO",
		OwnerName:       "FULANO DE TAL",
		OwnerTaxID:      "11144477735",
	}
}

func newDialogue(lookup *lookupFake, issuer *issuerFake) (*DialogueUseCase, *messengerFake, *session.Store) {
	store := session.NewStore()
	messenger := &messengerFake{}
	uc := NewDialogueUseCase(store, lookup, issuer, messenger, nil, nil, Limits{})
	return uc, messenger, store
}

func say(t *testing.T, uc *DialogueUseCase, identity, text string) {
	t.Helper()
	if err := uc.HandleMessage(context.Background(), identity, text); err != nil {
		t.Fatalf("HandleMessage(%q) error = %v", text, err)
	}
}

func TestFullIssuanceFlowForCompany(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{companyEntity()}}
	issuer := &issuerFake{result: domain.DocumentResult{Code: 0, Link: "https://docs.example/abc.pdf", Message: "OK"}}
	uc, messenger, store := newDialogue(lookup, issuer)

	say(t, uc, "u1", "oi")
	if !strings.Contains(messenger.last(), "bem-vindo") {
		t.Fatalf("expected welcome, got %q", messenger.last())
	}

	say(t, uc, "u1", "111.444.777-35")
	if lookup.gotTaxID != "11144477735" {
		t.Fatalf("expected normalized tax id, got %q", lookup.gotTaxID)
	}
	if !strings.Contains(messenger.last(), "Deseja emitir algum documento?") {
		t.Fatalf("expected continue menu, got %q", messenger.last())
	}

	say(t, uc, "u1", "1")
	if !strings.Contains(messenger.last(), "Selecione o vínculo") {
		t.Fatalf("expected entity choices, got %q", messenger.last())
	}

	say(t, uc, "u1", "1")
	if !strings.Contains(messenger.last(), "Selecione o tipo de documento") {
		t.Fatalf("expected document menu, got %q", messenger.last())
	}

	say(t, uc, "u1", "1")
	if issuer.calls != 1 {
		t.Fatalf("expected one issuance call, got %d", issuer.calls)
	}
	want := domain.DocumentRequest{
		OperationCode:   "1",
		ProductKey:      "DC",
		ContributorCode: "3",
		RegistrationID:  "123456",
		TaxID:           "11144477735",
	}
	if issuer.gotReq != want {
		t.Fatalf("issuance request = %+v, want %+v", issuer.gotReq, want)
	}
	if !strings.Contains(messenger.last(), "https://docs.example/abc.pdf") {
		t.Fatalf("expected document link in outcome, got %q", messenger.last())
	}
	if !strings.Contains(messenger.last(), "O que deseja fazer agora?") {
		t.Fatalf("expected post-issuance menu, got %q", messenger.last())
	}

	s, ok := store.Get("u1")
	if !ok {
		t.Fatalf("expected live session")
	}
	if s.State != domain.StateAwaitPostIssuance {
		t.Fatalf("expected post-issuance state, got %s", s.State)
	}
}

func TestEmptyLookupEndsSessionAndSkipsGreetingNextTime(t *testing.T) {
	lookup := &lookupFake{entities: nil}
	uc, messenger, store := newDialogue(lookup, &issuerFake{})

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "00011122233")
	if !strings.Contains(messenger.last(), "Nenhuma inscrição vinculada") {
		t.Fatalf("expected no-entities message, got %q", messenger.last())
	}
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed after empty lookup")
	}

	say(t, uc, "u1", "oi de novo")
	if strings.Contains(messenger.last(), "bem-vindo") {
		t.Fatalf("returning user must not be greeted again, got %q", messenger.last())
	}
	if !strings.Contains(messenger.last(), "CPF ou CNPJ") {
		t.Fatalf("expected new lookup prompt, got %q", messenger.last())
	}
}

func TestCompanyOnlyDocumentAgainstPropertyIsCatalogMismatch(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{propertyEntity()}}
	issuer := &issuerFake{}
	uc, messenger, store := newDialogue(lookup, issuer)

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")

	say(t, uc, "u1", "4")
	if issuer.calls != 0 {
		t.Fatalf("mismatched document must not reach the backend")
	}
	mismatch := messenger.last()
	if !strings.Contains(mismatch, "não está disponível") {
		t.Fatalf("expected mismatch message, got %q", mismatch)
	}
	for _, wantOption := range []string{"1 - Demonstrativo", "2 - Certidão", "3 - BCI"} {
		if !strings.Contains(mismatch, wantOption) {
			t.Fatalf("mismatch message missing %q: %q", wantOption, mismatch)
		}
	}
	if strings.Contains(mismatch, "BCM") || strings.Contains(mismatch, "Alvará") {
		t.Fatalf("mismatch message leaked company-only options: %q", mismatch)
	}

	s, _ := store.Get("u1")
	if s.State != domain.StateAwaitDocumentSelect {
		t.Fatalf("state must not change on mismatch, got %s", s.State)
	}
}

func TestZeroCodeWithEmptyLinkIsFailure(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{companyEntity()}}
	issuer := &issuerFake{result: domain.DocumentResult{Code: 0, Link: "", Message: "sem link"}}
	uc, messenger, store := newDialogue(lookup, issuer)

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "2")

	if !strings.Contains(messenger.last(), "Não foi possível emitir") {
		t.Fatalf("expected issuance failure message, got %q", messenger.last())
	}
	if !strings.Contains(messenger.last(), "O que deseja fazer agora?") {
		t.Fatalf("user must still land on the post-issuance menu, got %q", messenger.last())
	}
	s, _ := store.Get("u1")
	if s.State != domain.StateAwaitPostIssuance {
		t.Fatalf("expected post-issuance state, got %s", s.State)
	}
}

func TestIssuerUnreachableStillAdvancesToMenu(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{companyEntity()}}
	issuer := &issuerFake{err: domain.WrapError(domain.ErrIssuanceUnavailable, "issue document", errors.New("dial tcp: timeout"))}
	uc, messenger, store := newDialogue(lookup, issuer)

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")

	if !strings.Contains(messenger.last(), "indisponível no momento") {
		t.Fatalf("expected unavailable message, got %q", messenger.last())
	}
	s, _ := store.Get("u1")
	if s.State != domain.StateAwaitPostIssuance {
		t.Fatalf("expected post-issuance state, got %s", s.State)
	}
}

func TestLookupFailureTerminatesSession(t *testing.T) {
	lookup := &lookupFake{err: domain.WrapError(domain.ErrLookupUnavailable, "lookup pertences", errors.New("502"))}
	uc, messenger, store := newDialogue(lookup, &issuerFake{})

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	if !strings.Contains(messenger.last(), "Erro ao consultar vínculos") {
		t.Fatalf("expected lookup failure message, got %q", messenger.last())
	}
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed after lookup failure")
	}
}

func TestInvalidTaxIDReportedBeforeAnyEntity(t *testing.T) {
	lookup := &lookupFake{err: domain.WrapError(domain.ErrInvalidTaxID, "lookup pertences", errors.New("flagged"))}
	uc, messenger, store := newDialogue(lookup, &issuerFake{})

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "999")
	if !strings.Contains(messenger.last(), "CPF/CNPJ inválido") {
		t.Fatalf("expected invalid tax id message, got %q", messenger.last())
	}
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestInvalidSelectionWarnsOnEveryAttemptAfterMenu(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{companyEntity()}}
	uc, messenger, _ := newDialogue(lookup, &issuerFake{})

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")

	// First invalid reply right after the menu is suppressed.
	before := len(messenger.sent)
	say(t, uc, "u1", "banana")
	if len(messenger.sent) != before {
		t.Fatalf("warning right after the entry prompt must be suppressed, got %q", messenger.last())
	}

	// Every following invalid attempt warns, with no cross-attempt suppression.
	say(t, uc, "u1", "banana")
	first := messenger.last()
	say(t, uc, "u1", "banana")
	second := messenger.last()
	if first != second {
		t.Fatalf("repeated invalid input must repeat the same warning: %q vs %q", first, second)
	}
	if !strings.Contains(first, "Número inválido") {
		t.Fatalf("expected invalid index warning, got %q", first)
	}
}

func TestSelectionOutsideDisplayedRangeIsRejected(t *testing.T) {
	entities := make([]domain.Entity, 25)
	for i := range entities {
		e := companyEntity()
		entities[i] = e
	}
	lookup := &lookupFake{entities: entities}
	uc, messenger, store := newDialogue(lookup, &issuerFake{})

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "21") // hidden, never shown
	say(t, uc, "u1", "21")
	if !strings.Contains(messenger.last(), "Número inválido") {
		t.Fatalf("expected invalid index warning for hidden entity, got %q", messenger.last())
	}
	s, _ := store.Get("u1")
	if s.Selected != nil {
		t.Fatalf("selected entity must stay nil on invalid input")
	}
}

func TestSelectedEntityLifecycle(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{companyEntity()}}
	issuer := &issuerFake{result: domain.DocumentResult{Code: 0, Link: "https://docs.example/a.pdf"}}
	uc, _, store := newDialogue(lookup, issuer)

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")

	s, _ := store.Get("u1")
	if s.Selected != nil {
		t.Fatalf("selected must be nil before entity selection")
	}

	say(t, uc, "u1", "1")
	s, _ = store.Get("u1")
	if s.Selected == nil || s.State != domain.StateAwaitDocumentSelect {
		t.Fatalf("selected must be set in document-selection state")
	}

	say(t, uc, "u1", "1")
	say(t, uc, "u1", "2") // new lookup
	s, _ = store.Get("u1")
	if s.Selected != nil || s.Entities != nil {
		t.Fatalf("new lookup must clear entities and selection")
	}
	if s.State != domain.StateAwaitTaxID {
		t.Fatalf("expected tax id state, got %s", s.State)
	}
}

func TestPostIssuanceLoopBackToDocumentMenu(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{companyEntity()}}
	issuer := &issuerFake{result: domain.DocumentResult{Code: 0, Link: "https://docs.example/a.pdf"}}
	uc, messenger, store := newDialogue(lookup, issuer)

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")

	say(t, uc, "u1", "1") // another document, same entity
	if !strings.Contains(messenger.last(), "Selecione o tipo de documento") {
		t.Fatalf("expected document menu again, got %q", messenger.last())
	}
	s, _ := store.Get("u1")
	if s.State != domain.StateAwaitDocumentSelect || s.Selected == nil {
		t.Fatalf("loop back must keep the selected entity")
	}

	say(t, uc, "u1", "2") // issue another one
	if issuer.calls != 2 {
		t.Fatalf("expected second issuance, got %d calls", issuer.calls)
	}

	say(t, uc, "u1", "3")
	if !strings.Contains(messenger.last(), "Atendimento encerrado") {
		t.Fatalf("expected closing message, got %q", messenger.last())
	}
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed on termination")
	}
}

func TestBlankInboundTextIsIgnored(t *testing.T) {
	lookup := &lookupFake{}
	uc, messenger, store := newDialogue(lookup, &issuerFake{})

	say(t, uc, "u1", "   ")
	if len(messenger.sent) != 0 {
		t.Fatalf("blank text must be ignored, got %q", messenger.sent)
	}
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("blank text must not create a session")
	}
}

func TestNonNumericTaxIDRepromptsWithoutBackendCall(t *testing.T) {
	lookup := &lookupFake{}
	uc, messenger, _ := newDialogue(lookup, &issuerFake{})

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "meu cpf")  // suppressed, right after prompt
	say(t, uc, "u1", "meu cpf")  // warned
	if lookup.calls != 0 {
		t.Fatalf("non-numeric input must not reach the lookup backend")
	}
	if !strings.Contains(messenger.last(), "CPF/CNPJ inválido") {
		t.Fatalf("expected format warning, got %q", messenger.last())
	}
}

func TestProductKeyOverrideReplacesCatalogKey(t *testing.T) {
	lookup := &lookupFake{entities: []domain.Entity{companyEntity()}}
	issuer := &issuerFake{result: domain.DocumentResult{Code: 0, Link: "https://docs.example/a.pdf"}}
	store := session.NewStore()
	messenger := &messengerFake{}
	uc := NewDialogueUseCase(store, lookup, issuer, messenger, nil, nil, Limits{ProductKeyOverride: "XX"})

	say(t, uc, "u1", "oi")
	say(t, uc, "u1", "11144477735")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")
	say(t, uc, "u1", "1")
	if issuer.gotReq.ProductKey != "XX" {
		t.Fatalf("expected overridden product key, got %q", issuer.gotReq.ProductKey)
	}
}
