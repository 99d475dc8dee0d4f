package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlaceholderImage is served in place of a missing product image reference.
const PlaceholderImage = "/placeholder.svg"

// Product represents a product in the catalog. Prices are kept in the
// smallest currency unit as integers, never floating point.
type Product struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Price        int64     `json:"price" db:"price"`
	CategoryID   uuid.UUID `json:"category_id" db:"category_id"`
	CategoryName string    `json:"category_name" db:"category_name"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	Stock        int       `json:"stock" db:"stock"`
	Size         string    `json:"size,omitempty" db:"size"`
	Color        string    `json:"color,omitempty" db:"color"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Image returns the image URL, falling back to the placeholder when absent.
func (p *Product) Image() string {
	if p.ImageURL == "" {
		return PlaceholderImage
	}
	return p.ImageURL
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
