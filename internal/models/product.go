package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the catalog.
//
// AvailableQty is the sellable stock counter consumed by order placement.
// It is distinct from the SKU code, which only identifies the product in
// the catalog. Invariant: AvailableQty never goes negative.
type Product struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	CategoryID   uint            `json:"category_id" gorm:"index" validate:"required,gt=0"`
	SKU          string          `json:"sku" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=1,max=100"`
	Name         string          `json:"name" gorm:"type:varchar(255)" validate:"required,min=1,max=255"`
	Description  string          `json:"description" gorm:"type:text" validate:"omitempty,max=500"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	AvailableQty int             `json:"available_qty" validate:"gte=0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}
