package abaco

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

// DocumentIssuanceService implements ports.DocumentIssuer against the REST
// issuance servlet. The whole request rides in one serialized JSON header.
type DocumentIssuanceService struct {
	client *Client
}

func NewDocumentIssuer(client *Client) *DocumentIssuanceService {
	return &DocumentIssuanceService{client: client}
}

const issuancePayloadHeader = "DadosAPIDocumento"

// issuancePayload mirrors the backend schema. The last four fields are always
// empty but must be present for the servlet to accept the request.
type issuancePayload struct {
	SSEOperacao         string `json:"SSEOperacao"`
	SSEChave            string `json:"SSEChave"`
	SSETipoContribuinte string `json:"SSETipoContribuinte"`
	SSEInscricao        string `json:"SSEInscricao"`
	SSECPFCNPJ          string `json:"SSECPFCNPJ"`
	SSEExercicioDebito  string `json:"SSEExercicioDebito"`
	SSETipoConsumo      string `json:"SSETipoConsumo"`
	SSENossoNumero      string `json:"SSENossoNumero"`
	SSEIdentificador    string `json:"SSEIdentificador"`
}

type issuanceResponse struct {
	SSACodigo        int    `json:"SSACodigo"`
	SSALinkDocumento string `json:"SSALinkDocumento"`
	SSAMensagem      string `json:"SSAMensagem"`
}

func (s *DocumentIssuanceService) Issue(ctx context.Context, docReq domain.DocumentRequest) (domain.DocumentResult, error) {
	c := s.client

	header, err := json.Marshal(issuancePayload{
		SSEOperacao:         docReq.OperationCode,
		SSEChave:            docReq.ProductKey,
		SSETipoContribuinte: docReq.ContributorCode,
		SSEInscricao:        docReq.RegistrationID,
		SSECPFCNPJ:          docReq.TaxID,
	})
	if err != nil {
		return domain.DocumentResult{}, fmt.Errorf("marshal issuance payload: %w", err)
	}

	var out issuanceResponse
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.issuanceURL, nil)
		if err != nil {
			return fmt.Errorf("create issuance request: %w", err)
		}
		req.Header.Set(issuancePayloadHeader, string(header))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("issuance request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newHTTPStatusError("issuance", resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode issuance response: %w", err)
		}
		return nil
	}

	start := time.Now()
	err = c.execute(ctx, "abaco.issuance", call)
	c.metrics.ObserveBackendCall("issuance", time.Since(start), err)
	if err != nil {
		c.metrics.RecordIssuance(domain.AuditOutcomeUnavailable)
		return domain.DocumentResult{}, domain.WrapError(domain.ErrIssuanceUnavailable, "issue document", err)
	}

	result := domain.DocumentResult{
		Code:    out.SSACodigo,
		Link:    strings.TrimSpace(out.SSALinkDocumento),
		Message: strings.TrimSpace(out.SSAMensagem),
	}
	if result.Issued() {
		c.metrics.RecordIssuance(domain.AuditOutcomeSuccess)
	} else {
		c.metrics.RecordIssuance(domain.AuditOutcomeRejected)
	}
	return result, nil
}
