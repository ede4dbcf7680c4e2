package repositories

import (
	"github.com/shopspring/decimal"

	"katalog/internal/models"
)

// ProductFilters narrows product list queries.
type ProductFilters struct {
	Search     string
	CategoryID uint
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

// ProductRepository defines the interface for product data access.
//
// GetByIDForUpdate and DecrementAvailable exist for the order placement
// workflow and are only meaningful inside a transaction obtained from a
// TxManager: the former takes a row lock on dialects that support it, the
// latter performs a conditional decrement that fails instead of driving
// the availability counter negative.
type ProductRepository interface {
	GetAll(filters ProductFilters, pagination Pagination) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	GetByIDForUpdate(id uint) (*models.Product, error)
	NameExists(name string, excludeID uint) (bool, error)
	SKUExists(sku string, excludeID uint) (bool, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	DeleteByCategoryID(categoryID uint) error
	Restore(id uint) error
	DecrementAvailable(id uint, quantity int) error
}
