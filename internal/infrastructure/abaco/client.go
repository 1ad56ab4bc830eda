package abaco

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/munidigital/document-assistant/internal/infrastructure/resilience"
	"github.com/munidigital/document-assistant/internal/observability/metrics"
)

// Client talks to the two eAgata backend servlets: the SOAP "pertences"
// lookup and the REST document-issuance endpoint.
type Client struct {
	lookupURL     string
	issuanceURL   string
	defaultRegion string
	httpClient    *http.Client
	executor      *resilience.Executor
	metrics       *metrics.Metrics
}

type Options struct {
	// DefaultRegion is appended to addresses the backend returns without a
	// two-letter region suffix.
	DefaultRegion string

	HTTPTimeout time.Duration
	Executor    *resilience.Executor
	Metrics     *metrics.Metrics
}

func New(lookupURL, issuanceURL string, options Options) *Client {
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	region := strings.TrimSpace(options.DefaultRegion)
	if region == "" {
		region = "AL"
	}

	return &Client{
		lookupURL:     strings.TrimRight(lookupURL, "/"),
		issuanceURL:   strings.TrimRight(issuanceURL, "/"),
		defaultRegion: region,
		httpClient:    &http.Client{Timeout: timeout},
		executor:      options.Executor,
		metrics:       options.Metrics,
	}
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, operation, fn, classifyBackendError)
}
