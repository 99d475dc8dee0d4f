package transport

import (
	"errors"
	"net/http"

	"tokotani/internal/cart"
	"tokotani/internal/middleware"
	"tokotani/internal/repository"
	"tokotani/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartSessionHeader carries the opaque cart session identifier. Guests
// get one from the storefront; logged-in clients may send their user ID.
const CartSessionHeader = "X-Cart-Session"

// AddToCartRequest represents the add-to-cart payload
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// SetQuantityRequest represents the quantity change payload
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartLineResponse represents one line of the cart
type CartLineResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal int64           `json:"subtotal"`
}

// CartResponse represents the whole cart
type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total int64              `json:"total"`
}

func toCartResponse(lines []cart.Line, total int64) CartResponse {
	response := CartResponse{
		Lines: make([]CartLineResponse, 0, len(lines)),
		Total: total,
	}
	for _, line := range lines {
		product := line.Product
		response.Lines = append(response.Lines, CartLineResponse{
			Product:  toProductResponse(&product),
			Quantity: line.Quantity,
			Subtotal: line.Subtotal(),
		})
	}
	return response
}

// CartHandler handles HTTP requests for the shopping cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes. Carts work for guests, so
// none of these require authentication.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.SetQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

// cartSession resolves the cart's identity: the session header when
// present, otherwise the authenticated user's ID.
func cartSession(r *http.Request) (string, bool) {
	if session := r.Header.Get(CartSessionHeader); session != "" {
		return session, true
	}
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		return userID, true
	}
	return "", false
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	session, ok := cartSession(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart session")
	}
	return session, ok
}

// GetCart serves the current cart contents
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	lines, total := h.cartService.GetCart(r.Context(), session)
	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(lines, total))
}

// AddItem adds one unit of a product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	lines, total, err := h.cartService.AddToCart(r.Context(), session, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		if err == service.ErrInsufficientStock {
			middleware.RespondWithError(w, http.StatusConflict, "insufficient stock")
			return
		}

		h.logger.Error("Failed to add to cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add to cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(lines, total))
}

// SetQuantity replaces a cart line's quantity; zero or less removes it
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines, total, err := h.cartService.SetQuantity(r.Context(), session, productID, req.Quantity)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		if errors.Is(err, service.ErrInsufficientStock) {
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
			return
		}

		h.logger.Error("Failed to set quantity", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(lines, total))
}

// RemoveItem deletes a cart line entirely
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	lines, total := h.cartService.RemoveFromCart(r.Context(), session, productID)
	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(lines, total))
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	h.cartService.ClearCart(r.Context(), session)
	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(nil, 0))
}
