package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shopspring/decimal"
)

// LineItem is one position on an externally rendered invoice
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateRequest asks the external document service to render an invoice
type CreateRequest struct {
	Number   string     `json:"number"`
	Company  string     `json:"company"`
	DueDate  time.Time  `json:"due_date"`
	Notes    string     `json:"notes,omitempty"`
	Items    []LineItem `json:"items"`
	Currency string     `json:"currency"`
}

// CreateResult is the external service's handle for the document
type CreateResult struct {
	ExternalID string `json:"id"`
	Number     string `json:"number"`
	Simulated  bool   `json:"-"`
}

// Client talks to the external invoicing/document service. When no base
// URL is configured the client runs in simulated mode: it acknowledges
// every request locally so the financial pipeline keeps working in
// environments without the service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an invoicing client. An empty baseURL enables the
// simulated fallback.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Simulated reports whether the client is running without a configured
// external service.
func (c *Client) Simulated() bool {
	return c.baseURL == ""
}

// CreateInvoice submits the document for rendering
func (c *Client) CreateInvoice(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if c.Simulated() {
		c.logger.Info("invoicing service not configured, simulating document",
			zap.String("number", req.Number))
		return &CreateResult{
			ExternalID: "sim_" + req.Number,
			Number:     req.Number,
			Simulated:  true,
		}, nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/invoices", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create invoice request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoicing service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read invoicing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("invoicing service returned status %d: %s", resp.StatusCode, body)
	}

	var result CreateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode invoicing response: %w", err)
	}
	return &result, nil
}
