package models

import (
	"time"

	"github.com/keygate-io/keygate/internal/shared/constants"
)

// ProductModel represents the database persistence model for products
type ProductModel struct {
	ID             uint    `gorm:"primarykey"`
	Name           string  `gorm:"not null;size:100;uniqueIndex"`
	Version        string  `gorm:"size:50"`
	Price          float64 `gorm:"not null;default:0"`
	Discount       float64 `gorm:"not null;default:0"`
	TotalPurchases uint64  `gorm:"not null;default:0"`
	TotalGross     float64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (ProductModel) TableName() string {
	return constants.TableProducts
}
