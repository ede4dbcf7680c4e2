package repositories

import (
	"katalog/internal/models"
)

// OrderFilters narrows order list queries.
type OrderFilters struct {
	UserID uint
	Status string
}

// OrderRepository defines the interface for order data access.
// GetByID loads the order together with its items (in insertion order)
// and each item's product.
type OrderRepository interface {
	GetAll(filters OrderFilters, pagination Pagination) ([]models.Order, int64, error)
	GetByID(id uint) (*models.Order, error)
	Create(order *models.Order) error
	CreateItem(item *models.OrderItem) error
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
}
