package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	syncapp "github.com/erp/pricing/internal/application/sync"
	"github.com/erp/pricing/internal/domain/shared"
)

// maxResponseSize is the maximum allowed payload response size (32MB)
const maxResponseSize = 32 * 1024 * 1024

const defaultTimeout = 30 * time.Second

// HTTPPayloadSource fetches full price list payloads from an upstream
// catalog feed over HTTP. Scheduled full sync jobs use it as their
// payload source.
type HTTPPayloadSource struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPPayloadSource creates a payload source against the given feed base URL.
func NewHTTPPayloadSource(baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPPayloadSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid feed base URL %q", baseURL))
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPPayloadSource{
		baseURL:    u.String(),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// FetchPriceList retrieves the full payload for one price list.
func (s *HTTPPayloadSource) FetchPriceList(ctx context.Context, tenantID, priceListID uuid.UUID) (*syncapp.ImportPayload, error) {
	endpoint := fmt.Sprintf("%s/price-lists/%s/payload", s.baseURL, priceListID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch price list payload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		s.logger.Warn("Feed returned non-OK status",
			zap.String("price_list_id", priceListID.String()),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read feed response: %w", err)
	}

	var payload syncapp.ImportPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}
	return &payload, nil
}
