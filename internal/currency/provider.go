package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/spendilog/internal/models"
)

// DefaultRatesURL serves the open.er-api.com "latest" endpoint.
const DefaultRatesURL = "https://open.er-api.com/v6"

// HTTPProvider fetches rates from an open.er-api.com compatible endpoint:
// GET {baseURL}/latest/{BASE}.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// latestResponse is the payload of the latest endpoint.
type latestResponse struct {
	Result             string             `json:"result"`
	ErrorType          string             `json:"error-type"`
	BaseCode           string             `json:"base_code"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	Rates              map[string]float64 `json:"rates"`
}

// NewHTTPProvider creates a provider with the given request timeout.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the latest table relative to base.
func (p *HTTPProvider) Fetch(ctx context.Context, base string) (*models.RateSnapshot, error) {
	url := fmt.Sprintf("%s/latest/%s", p.baseURL, models.NormalizeCurrency(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach rate provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rate provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates: %w", err)
	}
	if payload.Result != "success" {
		return nil, fmt.Errorf("rate provider error: %s", payload.ErrorType)
	}

	// Staleness follows the provider's publication time when it reports one
	fetchedAt := time.Now().UTC()
	if payload.TimeLastUpdateUnix > 0 {
		fetchedAt = time.Unix(payload.TimeLastUpdateUnix, 0).UTC()
	}

	return &models.RateSnapshot{
		Base:      payload.BaseCode,
		Rates:     payload.Rates,
		FetchedAt: fetchedAt,
		Source:    "open.er-api.com",
	}, nil
}
