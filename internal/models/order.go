package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. An order is created as pending and later transitions to
// delivered or cancelled via the status update operation.
const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatuses lists the accepted values for Order.Status.
var ValidOrderStatuses = map[string]bool{
	OrderStatusPending:   true,
	OrderStatusDelivered: true,
	OrderStatusCancelled: true,
}

// OrderItem is a single line of an order. UnitPrice is a snapshot of the
// product price at placement time and does not track later price changes.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"index"`
	ProductID uint            `json:"product_id" gorm:"index"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Subtotal returns quantity times the snapshotted unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a customer order. Total always equals the sum of the item
// subtotals, rounded to two decimal places at the total level.
type Order struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"index"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(10,2)"`
	Status    string          `json:"status" gorm:"type:varchar(20);default:pending"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}
