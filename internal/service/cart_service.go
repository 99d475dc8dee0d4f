package service

import (
	"context"
	"errors"
	"fmt"

	"tokotani/internal/cart"
	"tokotani/internal/repository"

	"github.com/google/uuid"
)

var ErrInsufficientStock = errors.New("insufficient stock for requested quantity")

// CartService defines the interface for shopping cart business logic.
// Carts are keyed by an opaque session identifier and live in memory
// for the lifetime of the process.
type CartService interface {
	GetCart(ctx context.Context, session string) ([]cart.Line, int64)
	AddToCart(ctx context.Context, session string, productID uuid.UUID) ([]cart.Line, int64, error)
	SetQuantity(ctx context.Context, session string, productID uuid.UUID, quantity int) ([]cart.Line, int64, error)
	RemoveFromCart(ctx context.Context, session string, productID uuid.UUID) ([]cart.Line, int64)
	ClearCart(ctx context.Context, session string)
}

type cartService struct {
	carts       *cart.Manager
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(carts *cart.Manager, productRepo repository.ProductRepository) CartService {
	return &cartService{
		carts:       carts,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(ctx context.Context, session string) ([]cart.Line, int64) {
	return s.carts.Snapshot(session)
}

// AddToCart looks up the product and adds one unit to the session's cart.
// The stored stock level caps the quantity a cart may hold.
func (s *cartService) AddToCart(ctx context.Context, session string, productID uuid.UUID) ([]cart.Line, int64, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	var stockErr error
	s.carts.With(session, func(c *cart.Cart) {
		if c.Quantity(productID) >= product.Stock {
			stockErr = ErrInsufficientStock
			return
		}
		c.Add(*product)
	})
	if stockErr != nil {
		return nil, 0, stockErr
	}

	lines, total := s.carts.Snapshot(session)
	return lines, total, nil
}

// SetQuantity replaces a line's quantity. Zero or negative removes the
// line, matching what a quantity stepper in the cart page does.
func (s *cartService) SetQuantity(ctx context.Context, session string, productID uuid.UUID, quantity int) ([]cart.Line, int64, error) {
	if quantity > 0 {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, 0, err
		}
		if quantity > product.Stock {
			return nil, 0, fmt.Errorf("%w: %d available", ErrInsufficientStock, product.Stock)
		}
	}

	s.carts.With(session, func(c *cart.Cart) {
		c.SetQuantity(productID, quantity)
	})

	lines, total := s.carts.Snapshot(session)
	return lines, total, nil
}

func (s *cartService) RemoveFromCart(ctx context.Context, session string, productID uuid.UUID) ([]cart.Line, int64) {
	s.carts.With(session, func(c *cart.Cart) {
		c.Remove(productID)
	})
	return s.carts.Snapshot(session)
}

func (s *cartService) ClearCart(ctx context.Context, session string) {
	s.carts.Drop(session)
}
