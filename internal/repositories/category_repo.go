package repositories

import (
	"katalog/internal/models"
)

// CategoryFilters narrows category list queries.
type CategoryFilters struct {
	Search string
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetAll(filters CategoryFilters, pagination Pagination) ([]models.Category, int64, error)
	GetByID(id uint) (*models.Category, error)
	GetByName(name string) (*models.Category, error)
	NameExists(name string, excludeID uint) (bool, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	Delete(id uint) error
	Restore(id uint) error
	GetDeleted() ([]models.Category, error)
}
