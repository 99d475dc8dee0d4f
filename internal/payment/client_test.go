package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	orderID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/snap/v1/transactions", r.URL.Path)

		expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("server-key:"))
		assert.Equal(t, expectedAuth, r.Header.Get("Authorization"))

		var body snapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, orderID.String(), body.TransactionDetails.OrderID)
		assert.Equal(t, int64(175000), body.TransactionDetails.GrossAmount)
		assert.Equal(t, "rina@toko.test", body.CustomerDetails.Email)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Transaction{
			Token:       "snap-token-123",
			RedirectURL: "https://gateway.test/pay/snap-token-123",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "server-key")

	tx, err := client.CreateTransaction(context.Background(), TransactionRequest{
		OrderID:     orderID,
		GrossAmount: 175000,
		FirstName:   "Rina",
		LastName:    "Wulandari",
		Email:       "rina@toko.test",
		Phone:       "081234567890",
	})
	require.NoError(t, err)
	assert.Equal(t, "snap-token-123", tx.Token)
	assert.Equal(t, "https://gateway.test/pay/snap-token-123", tx.RedirectURL)
}

func TestCreateTransactionGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong-key")

	_, err := client.CreateTransaction(context.Background(), TransactionRequest{
		OrderID:     uuid.New(),
		GrossAmount: 10000,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNotificationResolve(t *testing.T) {
	tests := []struct {
		name         string
		notification Notification
		want         Outcome
	}{
		{"settlement is success", Notification{TransactionStatus: "settlement"}, OutcomeSuccess},
		{"clean capture is success", Notification{TransactionStatus: "capture", FraudStatus: "accept"}, OutcomeSuccess},
		{"challenged capture is pending", Notification{TransactionStatus: "capture", FraudStatus: "challenge"}, OutcomePending},
		{"pending stays pending", Notification{TransactionStatus: "pending"}, OutcomePending},
		{"deny is error", Notification{TransactionStatus: "deny"}, OutcomeError},
		{"expire is error", Notification{TransactionStatus: "expire"}, OutcomeError},
		{"unknown status is close", Notification{TransactionStatus: "refund"}, OutcomeClose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.notification.Resolve())
		})
	}
}
