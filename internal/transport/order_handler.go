package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"tokotani/internal/domain"
	"tokotani/internal/middleware"
	"tokotani/internal/payment"
	"tokotani/internal/repository"
	"tokotani/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutRequest represents the shipping form submitted at checkout
type CheckoutRequest struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Note       string `json:"note"`
}

// CheckoutResponse carries what the storefront needs to open the
// payment widget
type CheckoutResponse struct {
	Order       OrderResponse `json:"order"`
	Token       string        `json:"token"`
	RedirectURL string        `json:"redirect_url"`
}

// PaymentResultRequest represents the widget outcome reported by the
// storefront after the customer interacts with the payment popup
type PaymentResultRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=success pending error close"`
}

// UpdateOrderStatusRequest represents the admin status change payload
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid failed cancelled"`
}

// OrderItemResponse represents one line of an order
type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderResponse represents order data returned to clients
type OrderResponse struct {
	ID           string              `json:"id"`
	FirstName    string              `json:"first_name"`
	LastName     string              `json:"last_name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Address      string              `json:"address"`
	City         string              `json:"city"`
	Province     string              `json:"province"`
	PostalCode   string              `json:"postal_code"`
	Note         string              `json:"note,omitempty"`
	Status       string              `json:"status"`
	Subtotal     int64               `json:"subtotal"`
	ShippingCost int64               `json:"shipping_cost"`
	Total        int64               `json:"total"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"created_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	return OrderResponse{
		ID:           o.ID.String(),
		FirstName:    o.FirstName,
		LastName:     o.LastName,
		Email:        o.Email,
		Phone:        o.Phone,
		Address:      o.Address,
		City:         o.City,
		Province:     o.Province,
		PostalCode:   o.PostalCode,
		Note:         o.Note,
		Status:       o.Status,
		Subtotal:     o.Subtotal,
		ShippingCost: o.ShippingCost,
		Total:        o.Total,
		Items:        items,
		CreatedAt:    o.CreatedAt,
	}
}

// OrderHandler handles HTTP requests for checkout and order management
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, optionalAuthMiddleware, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		// Guest checkout is allowed; the session header identifies the
		// cart, and a bearer token links the order to the account
		r.Group(func(r chi.Router) {
			r.Use(optionalAuthMiddleware)
			r.Post("/checkout", h.Checkout)
			r.Post("/{id}/payment-result", h.PaymentResult)
		})

		// The gateway calls this server-to-server
		r.Post("/notification", h.Notification)

		// Customer routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/mine", h.ListMyOrders)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/status", h.UpdateStatus)
		})
	})
}

// Checkout turns the cart into a pending order and returns the payment
// widget token
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, ok := cartSession(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart session")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CheckoutInput{
		Session:    session,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		Province:   req.Province,
		PostalCode: req.PostalCode,
		Note:       req.Note,
	}

	// Attach the order to the account when the customer is logged in
	if userIDStr, ok := middleware.GetUserID(r.Context()); ok {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			input.UserID = &userID
		}
	}

	result, err := h.orderService.Checkout(r.Context(), input)
	if err != nil {
		if err == service.ErrEmptyCart {
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
			return
		}

		h.logger.Error("Checkout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to checkout")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CheckoutResponse{
		Order:       toOrderResponse(result.Order),
		Token:       result.Token,
		RedirectURL: result.RedirectURL,
	})
}

// PaymentResult applies the payment widget's outcome to the order
func (h *OrderHandler) PaymentResult(w http.ResponseWriter, r *http.Request) {
	session, ok := cartSession(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart session")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req PaymentResultRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.ResolvePayment(r.Context(), orderID, session, payment.Outcome(req.Outcome))
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		h.logger.Error("Failed to resolve payment", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to resolve payment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

// Notification handles the gateway's server-to-server status callback
func (h *OrderHandler) Notification(w http.ResponseWriter, r *http.Request) {
	var n payment.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid notification body")
		return
	}

	if err := h.orderService.HandleNotification(r.Context(), n); err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		h.logger.Error("Failed to handle payment notification", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to handle notification")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// ListMyOrders serves the logged-in customer's order history
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	orders, err := h.orderService.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}

	middleware.RespondWithJSON(w, http.StatusOK, responses)
}

// ListOrders serves the admin orders table with fuzzy search and an
// exact status filter
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	orders, err := h.orderService.ListOrders(r.Context(), service.OrderQuery{
		Query:  params.Get("q"),
		Status: params.Get("status"),
	})
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}

	middleware.RespondWithJSON(w, http.StatusOK, responses)
}

// GetOrder serves a single order's detail for the admin
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}

		h.logger.Error("Failed to get order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateStatus handles admin order status changes
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		if err == service.ErrUnknownOrderStatus {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown order status")
			return
		}

		h.logger.Error("Failed to update order status", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}
