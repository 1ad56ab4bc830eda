package abaco

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

// EntityLookupService implements ports.EntityLookup against the SOAP
// "pertences" servlet.
type EntityLookupService struct {
	client *Client
}

func NewEntityLookup(client *Client) *EntityLookupService {
	return &EntityLookupService{client: client}
}

func (s *EntityLookupService) LookupByTaxID(ctx context.Context, taxID string) ([]domain.Entity, error) {
	c := s.client
	envelope := buildLookupEnvelope(domain.NormalizeTaxID(taxID))

	var raw []byte
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.lookupURL, strings.NewReader(envelope))
		if err != nil {
			return fmt.Errorf("create lookup request: %w", err)
		}
		req.Header.Set("Content-Type", "text/xml;charset=UTF-8")
		req.Header.Set("SOAPAction", "")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("lookup request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newHTTPStatusError("lookup", resp)
		}
		raw, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read lookup response: %w", err)
		}
		return nil
	}

	start := time.Now()
	err := c.execute(ctx, "abaco.lookup", call)
	c.metrics.ObserveBackendCall("lookup", time.Since(start), err)
	if err != nil {
		return nil, domain.WrapError(domain.ErrLookupUnavailable, "lookup pertences", err)
	}

	entities, err := parsePertences(raw, c.defaultRegion)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidTaxID) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrLookupUnavailable, "parse pertences", err)
	}
	return entities, nil
}
