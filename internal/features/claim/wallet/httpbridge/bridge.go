// Package httpbridge talks to a wallet bridge exposed over HTTP:
//
//	GET  /status                      -> {"installed": bool, "shapes": ["contract_call", ...]}
//	POST /commands/send-transaction   -> implementation-defined JSON
package httpbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"daily-claim-backend/internal/features/claim/wallet"
)

const maxResponseBytes = 1 << 20

type status struct {
	Installed bool           `json:"installed"`
	Shapes    []wallet.Shape `json:"shapes"`
}

type Bridge struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Bridge {
	return &Bridge{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (b *Bridge) status(ctx context.Context) (*status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/status", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge status http %d", resp.StatusCode)
	}

	var out status
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode bridge status: %w", err)
	}
	return &out, nil
}

// Installed is false whenever the bridge cannot be reached.
func (b *Bridge) Installed(ctx context.Context) bool {
	st, err := b.status(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Wallet bridge status unavailable")
		return false
	}
	return st.Installed
}

func (b *Bridge) SupportedShapes(ctx context.Context) ([]wallet.Shape, error) {
	st, err := b.status(ctx)
	if err != nil {
		return nil, err
	}
	return st.Shapes, nil
}

func (b *Bridge) SendTransaction(ctx context.Context, request wallet.Request) (json.RawMessage, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", request.Shape(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/commands/send-transaction", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read bridge response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge send-transaction http %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("bridge returned invalid JSON")
	}
	return raw, nil
}
