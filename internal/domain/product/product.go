package product

import (
	"fmt"
	"time"
)

// Product is a sellable product licenses bind to. Licenses also carry a
// denormalized product name snapshot; renaming a product must update those
// snapshots (handled by the operator CRUD path, not verification).
type Product struct {
	id             uint
	name           string
	version        string
	price          float64
	discount       float64
	totalPurchases uint64
	totalGross     float64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewProduct creates a new product.
func NewProduct(name, version string, price, discount float64) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if price < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if discount < 0 || discount > 100 {
		return nil, fmt.Errorf("discount must be between 0 and 100, got %v", discount)
	}

	now := time.Now().UTC()
	return &Product{
		name:      name,
		version:   version,
		price:     price,
		discount:  discount,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructProduct rebuilds a product from persistence.
func ReconstructProduct(
	id uint,
	name, version string,
	price, discount float64,
	totalPurchases uint64,
	totalGross float64,
	createdAt, updatedAt time.Time,
) (*Product, error) {
	if id == 0 {
		return nil, fmt.Errorf("product ID cannot be zero")
	}
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	return &Product{
		id:             id,
		name:           name,
		version:        version,
		price:          price,
		discount:       discount,
		totalPurchases: totalPurchases,
		totalGross:     totalGross,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (p *Product) ID() uint               { return p.id }
func (p *Product) Name() string           { return p.name }
func (p *Product) Version() string        { return p.version }
func (p *Product) Price() float64         { return p.price }
func (p *Product) Discount() float64      { return p.discount }
func (p *Product) TotalPurchases() uint64 { return p.totalPurchases }
func (p *Product) TotalGross() float64    { return p.totalGross }
func (p *Product) CreatedAt() time.Time   { return p.createdAt }
func (p *Product) UpdatedAt() time.Time   { return p.updatedAt }

// SetID sets the product ID (only for persistence layer use)
func (p *Product) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("product ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("product ID cannot be zero")
	}
	p.id = id
	return nil
}

// GrossPrice is the sale price after discount.
func (p *Product) GrossPrice() float64 {
	return p.price * (1 - p.discount/100)
}
