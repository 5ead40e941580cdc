// Package tosspay is a minimal Toss Payments client covering payment confirmation and
// cancellation.
package tosspay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.tosspayments.com"

type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type Client struct {
	baseURL    string
	authHeader string
	timeout    time.Duration
	httpClient *http.Client
}

// Payment is the subset of the provider payment object the service stores or checks.
// Raw holds the full response body.
type Payment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	TotalAmount int64  `json:"totalAmount"`
	ApprovedAt  string `json:"approvedAt"`

	Raw json.RawMessage `json:"-"`
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tosspay: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    base,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey+":")),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) Confirm(ctx context.Context, orderID, paymentKey string, amount int64) (*Payment, error) {
	body := map[string]any{
		"orderId":    orderID,
		"paymentKey": paymentKey,
		"amount":     amount,
	}
	return c.post(ctx, "/v1/payments/confirm", body, "")
}

// Cancel refunds the whole payment. Repeating a call with the same idempotencyKey
// returns the first result instead of cancelling again.
func (c *Client) Cancel(ctx context.Context, paymentKey, reason, idempotencyKey string) (*Payment, error) {
	if reason == "" {
		reason = "User Request"
	}
	path := "/v1/payments/" + url.PathEscape(paymentKey) + "/cancel"
	return c.post(ctx, path, map[string]any{"cancelReason": reason}, idempotencyKey)
}

func (c *Client) post(ctx context.Context, path string, payload any, idempotencyKey string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tosspay: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tosspay: build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tosspay: %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("tosspay: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = "UNKNOWN"
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}

	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("tosspay: decode response: %w", err)
	}
	p.Raw = raw
	return &p, nil
}
