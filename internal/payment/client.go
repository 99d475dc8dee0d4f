// Package payment integrates with a Snap-style hosted payment gateway.
// The gateway issues a transaction token that the storefront hands to the
// payment widget, and later reports the result back through a server-side
// notification.
package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result reported by the payment widget or the gateway
// notification endpoint.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeError   Outcome = "error"
	OutcomeClose   Outcome = "close"
)

// TransactionRequest describes the order being paid for.
type TransactionRequest struct {
	OrderID     uuid.UUID `json:"order_id"`
	GrossAmount int64     `json:"gross_amount"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
}

// Transaction is the gateway's response to a created transaction.
type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Client talks to the payment gateway's server-side API.
type Client struct {
	baseURL    string
	serverKey  string
	httpClient *http.Client
}

// NewClient creates a gateway client authenticated with the merchant's
// server key.
func NewClient(baseURL, serverKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		serverKey: serverKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"customer_details"`
}

// CreateTransaction registers an order with the gateway and returns the
// widget token plus hosted payment page URL.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	var body snapRequest
	body.TransactionDetails.OrderID = req.OrderID.String()
	body.TransactionDetails.GrossAmount = req.GrossAmount
	body.CustomerDetails.FirstName = req.FirstName
	body.CustomerDetails.LastName = req.LastName
	body.CustomerDetails.Email = req.Email
	body.CustomerDetails.Phone = req.Phone

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snap/v1/transactions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.serverKey+":")))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &tx, nil
}

// Notification is the gateway's server-to-server status callback.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

// Resolve maps a gateway transaction status to a widget outcome.
func (n Notification) Resolve() Outcome {
	switch n.TransactionStatus {
	case "capture":
		if n.FraudStatus == "challenge" {
			return OutcomePending
		}
		return OutcomeSuccess
	case "settlement":
		return OutcomeSuccess
	case "pending":
		return OutcomePending
	case "deny", "cancel", "expire", "failure":
		return OutcomeError
	default:
		return OutcomeClose
	}
}
