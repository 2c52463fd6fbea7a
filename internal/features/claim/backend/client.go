// Package backend is the HTTP client of the claim-status and verification
// endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"daily-claim-backend/internal/common/errors"
	"daily-claim-backend/internal/common/middleware"
	statusmodels "daily-claim-backend/internal/features/claimstatus/models"
	verifymodels "daily-claim-backend/internal/features/verification/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets baseURL, e.g. http://localhost:8080/api/v1.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetStatus calls GET /claim-status/{address}.
func (c *Client) GetStatus(ctx context.Context, address string) (*statusmodels.ClaimStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/claim-status/"+url.PathEscape(address), nil)
	if err != nil {
		return nil, err
	}

	var out statusmodels.ClaimStatus
	if err := c.do(req, "claim status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify calls POST /claims/verify.
func (c *Client) Verify(ctx context.Context, in *verifymodels.VerifyRequest) (*verifymodels.VerifyResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/claims/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out verifymodels.VerifyResponse
	if err := c.do(req, "verify claim", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, operation string, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewExternalAPIError(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure middleware.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil || failure.Error == "" {
			return errors.NewExternalAPIError(operation, fmt.Errorf("backend http %d", resp.StatusCode))
		}
		appErr := errors.New(failure.Code, failure.Error).
			WithDetail("status", resp.StatusCode)
		if failure.Details != "" {
			appErr.WithDetail("details", failure.Details)
		}
		return errors.Wrap(appErr, errors.ErrCodeExternalAPI, fmt.Sprintf("External API call failed: %s", operation))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewExternalAPIError(operation, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
