// Package gateway is the HTTP client for the hosted payment gateway's
// server-to-server transaction verification endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

// Client queries the gateway for a transaction's authoritative status.
// It implements orders.Verifier.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		TxRef    string  `json:"tx_ref"`
	} `json:"data"`
}

// Verify fetches the gateway's record for a transaction id. Any transport
// or non-2xx failure is returned with the raw response body preserved so
// support can see exactly what the gateway said.
func (c *Client) Verify(ctx context.Context, transactionID string) (orders.VerificationResult, error) {
	endpoint := fmt.Sprintf("%s/transactions/%s/verify", c.baseURL, url.PathEscape(transactionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return orders.VerificationResult{}, fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return orders.VerificationResult{}, fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return orders.VerificationResult{}, fmt.Errorf("reading gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return orders.VerificationResult{}, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return orders.VerificationResult{}, fmt.Errorf("decoding gateway response: %w", err)
	}
	if parsed.Status != "success" {
		return orders.VerificationResult{}, fmt.Errorf("gateway lookup failed: %s", parsed.Message)
	}

	return orders.VerificationResult{
		Status:   parsed.Data.Status,
		Amount:   parsed.Data.Amount,
		Currency: parsed.Data.Currency,
		TxRef:    parsed.Data.TxRef,
	}, nil
}
