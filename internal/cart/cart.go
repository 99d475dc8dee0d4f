package cart

import (
	"github.com/google/uuid"

	"tokotani/internal/domain"
)

// Line is one product snapshot plus its quantity within a cart.
type Line struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Subtotal returns the line's contribution to the cart total.
func (l Line) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Cart holds an ordered, duplicate-free set of product lines and their
// derived total. Lines keep insertion order, first added first. The total
// is recomputed from scratch after every mutation rather than adjusted
// incrementally, so it can never drift from the lines.
//
// A Cart is not safe for concurrent use; each cart is owned by exactly one
// session and access is serialized by the Manager.
type Cart struct {
	lines []Line
	total int64
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of the product into the cart. If a line for the same
// product identifier already exists its quantity is incremented by one,
// otherwise a new line with quantity 1 is appended. The snapshot is stored
// as given; later changes to the source product do not alter the line.
// Stock ceilings are not checked here, that is the caller's concern.
func (c *Cart) Add(p domain.Product) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			c.recompute()
			return
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
	c.recompute()
}

// SetQuantity replaces the quantity of the line with the given identifier.
// A quantity of zero or less removes the line entirely. Unknown identifiers
// are a no-op.
func (c *Cart) SetQuantity(id uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == id {
			c.lines[i].Quantity = quantity
			break
		}
	}
	c.recompute()
}

// Remove drops the line with the given identifier if present.
func (c *Cart) Remove(id uuid.UUID) {
	kept := c.lines[:0]
	for _, line := range c.lines {
		if line.Product.ID != id {
			kept = append(kept, line)
		}
	}
	c.lines = kept
	c.recompute()
}

// Clear resets the cart to the empty state.
func (c *Cart) Clear() {
	c.lines = nil
	c.total = 0
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity returns the quantity of the line with the given identifier,
// or zero when no such line exists.
func (c *Cart) Quantity(id uuid.UUID) int {
	for _, line := range c.lines {
		if line.Product.ID == id {
			return line.Quantity
		}
	}
	return 0
}

// Total returns the derived cart total.
func (c *Cart) Total() int64 {
	return c.total
}

// Len returns the number of lines in the cart.
func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) recompute() {
	var sum int64
	for _, line := range c.lines {
		sum += line.Subtotal()
	}
	c.total = sum
}
