// Package payment verifies Moyasar payments and completes credit purchases.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diviso/diviso/internal/apperr"
)

// StatusPaid is the Moyasar status of a captured payment.
const StatusPaid = "paid"

// Payment is the subset of a Moyasar payment object we rely on. Amount is in
// the currency's minor unit.
type Payment struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// Gateway fetches payments from the payment provider.
type Gateway interface {
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// MoyasarClient talks to the Moyasar REST API with the account secret key.
type MoyasarClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewMoyasarClient creates a client. A nil httpClient uses a 10s timeout.
func NewMoyasarClient(baseURL, secretKey string, httpClient *http.Client) *MoyasarClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MoyasarClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      httpClient,
	}
}

// FetchPayment reads the payment as Moyasar records it.
func (c *MoyasarClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, apperr.InvalidArgument("payment id is required")
	}
	endpoint := c.baseURL + "/v1/payments/" + url.PathEscape(paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.NotFound("payment not found: %s", paymentID)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("moyasar returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p Payment
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	return &p, nil
}
