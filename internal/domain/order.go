package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order status values. pending orders await payment confirmation from the
// gateway; paid/failed/cancelled are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)

// Order represents a placed order with its customer contact and shipping
// details. Amounts are in the smallest currency unit.
type Order struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	UserID       *uuid.UUID  `json:"user_id,omitempty" db:"user_id"`
	FirstName    string      `json:"first_name" db:"first_name"`
	LastName     string      `json:"last_name" db:"last_name"`
	Email        string      `json:"email" db:"email"`
	Phone        string      `json:"phone" db:"phone"`
	Address      string      `json:"address" db:"address"`
	City         string      `json:"city" db:"city"`
	Province     string      `json:"province" db:"province"`
	PostalCode   string      `json:"postal_code" db:"postal_code"`
	Note         string      `json:"note,omitempty" db:"note"`
	Status       string      `json:"status" db:"status"`
	Subtotal     int64       `json:"subtotal" db:"subtotal"`
	ShippingCost int64       `json:"shipping_cost" db:"shipping_cost"`
	Total        int64       `json:"total" db:"total"`
	PaymentToken string      `json:"-" db:"payment_token"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is one product line within an order. Name and price are
// snapshots taken at checkout time.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Price     int64     `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}
