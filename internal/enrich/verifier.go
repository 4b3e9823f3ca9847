package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
)

// NoopVerifier answers unknown for every address. Used when no
// validation service is configured.
type NoopVerifier struct{}

// Verify always reports VerdictUnknown.
func (NoopVerifier) Verify(_ context.Context, _ string) (crawler.Verdict, error) {
	return crawler.VerdictUnknown, nil
}

// HTTPVerifier queries an external validation service over HTTP.
// The service contract is a GET with the address as a query parameter
// returning {"result": "<verdict>"}.
type HTTPVerifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPVerifier builds a verifier against the given endpoint.
func NewHTTPVerifier(endpoint, apiKey string, logger *zap.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

type verifyResponse struct {
	Result string `json:"result"`
}

// Verify asks the validation service for a deliverability verdict.
// Transport failures surface as errors with an unknown verdict so the
// caller's scoring degrades instead of breaking.
func (v *HTTPVerifier) Verify(ctx context.Context, email string) (crawler.Verdict, error) {
	q := url.Values{}
	q.Set("email", email)
	if v.apiKey != "" {
		q.Set("api_key", v.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return crawler.VerdictUnknown, fmt.Errorf("build verify request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return crawler.VerdictUnknown, fmt.Errorf("verify %s: %w", email, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return crawler.VerdictUnknown, fmt.Errorf("verify %s: http status %d", email, resp.StatusCode)
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return crawler.VerdictUnknown, fmt.Errorf("decode verify response: %w", err)
	}

	switch payload.Result {
	case "deliverable", "valid":
		return crawler.VerdictDeliverable, nil
	case "undeliverable", "invalid":
		return crawler.VerdictUndeliverable, nil
	case "catch-all", "catch_all", "accept_all":
		return crawler.VerdictCatchAll, nil
	default:
		return crawler.VerdictUnknown, nil
	}
}
