package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokotani/internal/cart"
	"tokotani/internal/domain"
	"tokotani/internal/payment"
	"tokotani/internal/repository"
	"tokotani/internal/search"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FreeShippingFloor is the subtotal at which shipping becomes free
	FreeShippingFloor int64 = 500_000

	// FlatShippingCost is charged below the free shipping floor
	FlatShippingCost int64 = 25_000

	// OrderSearchThreshold is the fuzzy cutoff for the admin orders table
	OrderSearchThreshold = 0.4
)

var (
	ErrEmptyCart          = errors.New("cannot checkout an empty cart")
	ErrUnknownOrderStatus = errors.New("unknown order status")
)

// CheckoutInput carries the shipping form fields submitted at checkout
type CheckoutInput struct {
	Session    string
	UserID     *uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	Province   string
	PostalCode string
	Note       string
}

// CheckoutResult is returned to the storefront so it can open the
// payment widget.
type CheckoutResult struct {
	Order       *domain.Order
	Token       string
	RedirectURL string
}

// OrderQuery carries the admin orders table search parameters
type OrderQuery struct {
	Query  string
	Status string
}

// OrderService defines the interface for checkout and order management
type OrderService interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	ResolvePayment(ctx context.Context, orderID uuid.UUID, session string, outcome payment.Outcome) (*domain.Order, error)
	HandleNotification(ctx context.Context, n payment.Notification) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, q OrderQuery) ([]*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	carts       *cart.Manager
	gateway     *payment.Client
	logger      *zap.Logger
	matcher     search.Matcher[*domain.Order]
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	carts *cart.Manager,
	gateway *payment.Client,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		carts:       carts,
		gateway:     gateway,
		logger:      logger,
		matcher: search.NewMatcher(OrderSearchThreshold,
			search.Field[*domain.Order]{Weight: 1.0, Value: func(o *domain.Order) string {
				return o.FirstName + " " + o.LastName
			}},
			search.Field[*domain.Order]{Weight: 0.8, Value: func(o *domain.Order) string { return o.Email }},
			search.Field[*domain.Order]{Weight: 0.6, Value: func(o *domain.Order) string { return o.City }},
		),
	}
}

// ShippingCost returns the delivery fee for a given subtotal
func ShippingCost(subtotal int64) int64 {
	if subtotal >= FreeShippingFloor {
		return 0
	}
	return FlatShippingCost
}

// Checkout snapshots the session's cart into a pending order and
// registers it with the payment gateway. The cart is kept until the
// payment widget reports an outcome.
func (s *orderService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	lines, subtotal := s.carts.Snapshot(input.Session)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	shipping := ShippingCost(subtotal)
	orderID := uuid.New()

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		})
	}

	order := &domain.Order{
		ID:           orderID,
		UserID:       input.UserID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		City:         input.City,
		Province:     input.Province,
		PostalCode:   input.PostalCode,
		Note:         input.Note,
		Status:       domain.OrderStatusPending,
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Total:        subtotal + shipping,
		Items:        items,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	tx, err := s.gateway.CreateTransaction(ctx, payment.TransactionRequest{
		OrderID:     order.ID,
		GrossAmount: order.Total,
		FirstName:   order.FirstName,
		LastName:    order.LastName,
		Email:       order.Email,
		Phone:       order.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}
	order.PaymentToken = tx.Token

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.Int64("total", order.Total),
	)

	return &CheckoutResult{
		Order:       order,
		Token:       tx.Token,
		RedirectURL: tx.RedirectURL,
	}, nil
}

// ResolvePayment applies the payment widget's outcome to an order.
// Success and pending outcomes empty the cart; an error keeps it so the
// customer can retry, and a closed widget changes nothing.
func (s *orderService) ResolvePayment(ctx context.Context, orderID uuid.UUID, session string, outcome payment.Outcome) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case payment.OutcomeSuccess:
		if err := s.markPaid(ctx, order); err != nil {
			return nil, err
		}
		s.carts.Drop(session)
	case payment.OutcomePending:
		s.carts.Drop(session)
	case payment.OutcomeError:
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusFailed); err != nil {
			return nil, err
		}
		order.Status = domain.OrderStatusFailed
	case payment.OutcomeClose:
		// Customer dismissed the widget; nothing changes.
	default:
		return nil, fmt.Errorf("unknown payment outcome %q", outcome)
	}

	return order, nil
}

// HandleNotification applies a server-to-server gateway callback. It is
// the authoritative signal, so it updates orders even when the widget
// outcome was lost.
func (s *orderService) HandleNotification(ctx context.Context, n payment.Notification) error {
	orderID, err := uuid.Parse(n.OrderID)
	if err != nil {
		return fmt.Errorf("malformed order id in notification: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	switch n.Resolve() {
	case payment.OutcomeSuccess:
		return s.markPaid(ctx, order)
	case payment.OutcomeError:
		if order.Status == domain.OrderStatusPaid {
			return nil
		}
		return s.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusFailed)
	default:
		return nil
	}
}

// markPaid transitions an order to paid and decrements product stock.
// It is idempotent so replayed notifications do not double-decrement.
func (s *orderService) markPaid(ctx context.Context, order *domain.Order) error {
	if order.Status == domain.OrderStatusPaid {
		return nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid); err != nil {
		return err
	}
	order.Status = domain.OrderStatusPaid

	for _, item := range order.Items {
		if err := s.productRepo.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.logger.Warn("Failed to adjust stock for paid order",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Order paid", zap.String("order_id", order.ID.String()))

	return nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// ListOrders serves the admin orders table: fuzzy match on customer
// details first, then an exact status filter.
func (s *orderService) ListOrders(ctx context.Context, q OrderQuery) ([]*domain.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := s.matcher.Match(q.Query, orders)
	result := make([]*domain.Order, 0, len(matches))
	for _, m := range matches {
		if q.Status != "" && q.Status != search.FilterAll && m.Record.Status != q.Status {
			continue
		}
		result = append(result, m.Record)
	}

	return result, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// UpdateStatus lets an admin move an order through its lifecycle
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusPaid, domain.OrderStatusFailed, domain.OrderStatusCancelled:
	default:
		return nil, ErrUnknownOrderStatus
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == domain.OrderStatusPaid && order.Status != domain.OrderStatusPaid {
		if err := s.markPaid(ctx, order); err != nil {
			return nil, err
		}
		return order, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	order.Status = status

	return order, nil
}
