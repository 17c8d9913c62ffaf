package product

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no product matches.
var ErrNotFound = errors.New("product not found")

// Repository defines the interface for product persistence operations.
type Repository interface {
	// Create creates a new product
	Create(ctx context.Context, p *Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id uint) (*Product, error)

	// GetByName retrieves a product by its unique name.
	// Returns ErrNotFound when no product matches.
	GetByName(ctx context.Context, name string) (*Product, error)

	// List retrieves all products
	List(ctx context.Context) ([]*Product, error)

	// RecordSale atomically adds one purchase and the gross amount to the
	// product's sales counters.
	RecordSale(ctx context.Context, id uint, gross float64) error
}
