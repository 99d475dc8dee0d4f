package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"tokotani/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutRequest() CheckoutRequest {
	return CheckoutRequest{
		FirstName:  "Dewi",
		LastName:   "Wulandari",
		Email:      "dewi@example.com",
		Phone:      "081234567890",
		Address:    "Jl. Merdeka No. 12",
		City:       "Bandung",
		Province:   "Jawa Barat",
		PostalCode: "40111",
	}
}

func (e *testEnv) checkout(t *testing.T, session string, headers map[string]string) CheckoutResponse {
	t.Helper()

	if headers == nil {
		headers = map[string]string{}
	}
	headers[CartSessionHeader] = session

	w := e.do(t, http.MethodPost, "/api/orders/checkout", checkoutRequest(), headers)
	require.Equal(t, http.StatusCreated, w.Code, "checkout failed: %s", w.Body.String())

	var resp CheckoutResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Cangkul Baja", 85_000, 5)
	session := map[string]string{CartSessionHeader: "checkout-session"}

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/cart/items", AddToCartRequest{ProductID: product.ID.String()}, session)
		require.Equal(t, http.StatusOK, w.Code)
	}

	resp := env.checkout(t, "checkout-session", nil)

	assert.Equal(t, "snap-token", resp.Token)
	assert.Equal(t, "https://gateway.test/pay", resp.RedirectURL)
	assert.Equal(t, "pending", resp.Order.Status)
	assert.Equal(t, int64(170_000), resp.Order.Subtotal)
	assert.Equal(t, int64(25_000), resp.Order.ShippingCost)
	assert.Equal(t, int64(195_000), resp.Order.Total)
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, "Cangkul Baja", resp.Order.Items[0].Name)
	assert.Equal(t, 2, resp.Order.Items[0].Quantity)

	// The cart survives until the payment outcome arrives
	cart := cartOf(t, env, "checkout-session")
	assert.Len(t, cart.Lines, 1)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	session := map[string]string{CartSessionHeader: "empty-session"}

	w := env.do(t, http.MethodPost, "/api/orders/checkout", checkoutRequest(), session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentResultSuccess(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Cangkul Baja", 85_000, 5)
	session := map[string]string{CartSessionHeader: "pay-session"}

	w := env.do(t, http.MethodPost, "/api/cart/items", AddToCartRequest{ProductID: product.ID.String()}, session)
	require.Equal(t, http.StatusOK, w.Code)

	resp := env.checkout(t, "pay-session", nil)

	w = env.do(t, http.MethodPost, "/api/orders/"+resp.Order.ID+"/payment-result", PaymentResultRequest{Outcome: "success"}, session)
	require.Equal(t, http.StatusOK, w.Code)

	var order OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	assert.Equal(t, "paid", order.Status)

	// Cart is dropped and stock decremented
	cart := cartOf(t, env, "pay-session")
	assert.Empty(t, cart.Lines)

	stored, err := env.productRepo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Stock)
}

func TestPaymentResultErrorKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Cangkul Baja", 85_000, 5)
	session := map[string]string{CartSessionHeader: "fail-session"}

	w := env.do(t, http.MethodPost, "/api/cart/items", AddToCartRequest{ProductID: product.ID.String()}, session)
	require.Equal(t, http.StatusOK, w.Code)

	resp := env.checkout(t, "fail-session", nil)

	w = env.do(t, http.MethodPost, "/api/orders/"+resp.Order.ID+"/payment-result", PaymentResultRequest{Outcome: "error"}, session)
	require.Equal(t, http.StatusOK, w.Code)

	var order OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	assert.Equal(t, "failed", order.Status)

	// The customer can retry with the same cart
	cart := cartOf(t, env, "fail-session")
	assert.Len(t, cart.Lines, 1)
}

func TestGatewayNotificationMarksOrderPaid(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Cangkul Baja", 85_000, 5)
	session := map[string]string{CartSessionHeader: "notify-session"}

	w := env.do(t, http.MethodPost, "/api/cart/items", AddToCartRequest{ProductID: product.ID.String()}, session)
	require.Equal(t, http.StatusOK, w.Code)

	resp := env.checkout(t, "notify-session", nil)

	notification := payment.Notification{
		OrderID:           resp.Order.ID,
		TransactionStatus: "settlement",
	}
	w = env.do(t, http.MethodPost, "/api/orders/notification", notification, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Replaying the notification does not decrement stock again
	w = env.do(t, http.MethodPost, "/api/orders/notification", notification, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := env.productRepo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Stock)
}

func TestCustomerOrderHistory(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Cangkul Baja", 85_000, 5)

	_, err := env.userService.Register(context.Background(), "dewi@example.com", "DewiPass123", "Dewi", "Wulandari")
	require.NoError(t, err)
	accessToken, _, _, err := env.userService.Login(context.Background(), "dewi@example.com", "DewiPass123")
	require.NoError(t, err)

	session := map[string]string{CartSessionHeader: "customer-session"}
	w := env.do(t, http.MethodPost, "/api/cart/items", AddToCartRequest{ProductID: product.ID.String()}, session)
	require.Equal(t, http.StatusOK, w.Code)

	// Checkout with the bearer token links the order to the account
	resp := env.checkout(t, "customer-session", bearer(accessToken))

	w = env.do(t, http.MethodGet, "/api/orders/mine", nil, bearer(accessToken))
	require.Equal(t, http.StatusOK, w.Code)

	var orders []OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, resp.Order.ID, orders[0].ID)

	// A guest checkout stays off the account
	session2 := map[string]string{CartSessionHeader: "guest-session"}
	w = env.do(t, http.MethodPost, "/api/cart/items", AddToCartRequest{ProductID: product.ID.String()}, session2)
	require.Equal(t, http.StatusOK, w.Code)
	env.checkout(t, "guest-session", nil)

	w = env.do(t, http.MethodGet, "/api/orders/mine", nil, bearer(accessToken))
	require.Equal(t, http.StatusOK, w.Code)
	orders = orders[:0]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
	assert.Len(t, orders, 1)
}

func TestAdminOrderSearchAndStatus(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, "Cangkul Baja", 85_000, 5)
	token := env.adminToken(t)

	session := map[string]string{CartSessionHeader: "admin-test-session"}
	w := env.do(t, http.MethodPost, "/api/cart/items", AddToCartRequest{ProductID: product.ID.String()}, session)
	require.Equal(t, http.StatusOK, w.Code)

	resp := env.checkout(t, "admin-test-session", nil)

	// Fuzzy search on the customer name tolerates a dropped letter
	w = env.do(t, http.MethodGet, "/api/orders?q=wulandri", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var orders []OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, resp.Order.ID, orders[0].ID)

	// Status filter excludes pending orders when asking for paid
	w = env.do(t, http.MethodGet, "/api/orders?status=paid", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	var paid []OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&paid))
	assert.Empty(t, paid)

	// Admin cancels the order
	w = env.do(t, http.MethodPut, "/api/orders/"+resp.Order.ID+"/status", UpdateOrderStatusRequest{Status: "cancelled"}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var updated OrderResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "cancelled", updated.Status)

	// Unknown status values never reach the service
	w = env.do(t, http.MethodPut, "/api/orders/"+resp.Order.ID+"/status", map[string]string{"status": "shipped"}, bearer(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Order detail is admin only
	w = env.do(t, http.MethodGet, "/api/orders/"+resp.Order.ID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
