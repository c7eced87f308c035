package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// AuthorizeRequest is a single installment charge sent to the payment gateway
type AuthorizeRequest struct {
	Amount     decimal.Decimal
	CustomerID uint
	OrderID    uint
}

// AuthorizeResult is the gateway verdict. Raw keeps the provider payload for the audit row.
type AuthorizeResult struct {
	Success       bool
	TransactionID string
	Message       string
	Raw           json.RawMessage
}

// Authorizer authorizes a payment against an external provider.
// Implementations never retry and report provider-side failures as
// Success=false rather than as an error.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResult, error)
}

// HTTPGateway talks to the payment API at baseURL over JSON
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client; timeout bounds every call.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type gatewayPayRequest struct {
	Amount  json.Number `json:"amount"`
	UserID  uint        `json:"user_id"`
	OrderID uint        `json:"order_id"`
}

type gatewayPayResponse struct {
	Success       *bool  `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// Authorize posts the charge to {baseURL}/pay.
func (g *HTTPGateway) Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResult, error) {
	data, err := json.Marshal(gatewayPayRequest{
		Amount:  json.Number(req.Amount.String()),
		UserID:  req.CustomerID,
		OrderID: req.OrderID,
	})
	if err != nil {
		return AuthorizeResult{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/pay", bytes.NewBuffer(data))
	if err != nil {
		return AuthorizeResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return AuthorizeResult{Message: fmt.Sprintf("payment gateway unreachable: %v", err)}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AuthorizeResult{Message: fmt.Sprintf("failed to read gateway response: %v", err)}, nil
	}

	var parsed gatewayPayResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Success == nil {
		return AuthorizeResult{
			Message: fmt.Sprintf("malformed gateway response (status %d)", resp.StatusCode),
			Raw:     rawJSON(body),
		}, nil
	}

	result := AuthorizeResult{
		Success:       *parsed.Success,
		TransactionID: parsed.TransactionID,
		Message:       parsed.Message,
		Raw:           json.RawMessage(body),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Success = false
		if result.Message == "" {
			result.Message = fmt.Sprintf("gateway responded with status %d", resp.StatusCode)
		}
	}
	if result.Success && result.TransactionID == "" {
		result.Success = false
		result.Message = "gateway approved without a transaction id"
	}
	return result, nil
}

// rawJSON keeps body only if it is valid JSON so it can be stored in a json column.
func rawJSON(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return nil
}
