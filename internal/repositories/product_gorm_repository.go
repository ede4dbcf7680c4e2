package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"katalog/internal/apperrors"
	"katalog/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{db: db}
}

// GetAll retrieves products matching the filters, plus the total count
// before pagination.
func (r *GORMProductRepository) GetAll(filters ProductFilters, pagination Pagination) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})

	if filters.Search != "" {
		query = query.Where("name LIKE ? OR description LIKE ?",
			"%"+filters.Search+"%", "%"+filters.Search+"%")
	}
	if filters.CategoryID != 0 {
		query = query.Where("category_id = ?", filters.CategoryID)
	}
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", filters.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := query.
		Preload("Category").
		Order(fmt.Sprintf("%s %s", pagination.SortBy, pagination.SortOrder)).
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Product", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// GetByIDForUpdate retrieves a product and takes a row lock on it, so the
// stock check and the decrement of a placement are serialized against
// other placements touching the same product. SQLite has no row locks;
// its single-writer transactions serialize writers anyway, and the
// conditional decrement still enforces the non-negative invariant.
func (r *GORMProductRepository) GetByIDForUpdate(id uint) (*models.Product, error) {
	query := r.db
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	if err := query.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Product", id)
		}
		return nil, fmt.Errorf("failed to get product %d for update: %w", id, err)
	}
	return &product, nil
}

// NameExists reports whether another product already uses the given name.
func (r *GORMProductRepository) NameExists(name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product name: %w", err)
	}
	return count > 0, nil
}

// SKUExists reports whether another product already uses the given SKU.
func (r *GORMProductRepository) SKUExists(sku string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("sku = ?", sku)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product SKU: %w", err)
	}
	return count > 0, nil
}

// Create creates a new product.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product. Save replaces the full record,
// including zero values.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("Product", product.ID)
	}
	return nil
}

// Delete soft-deletes a product by its ID.
func (r *GORMProductRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("Product", id)
	}
	return nil
}

// DeleteByCategoryID soft-deletes every product in a category. Used when
// the category itself is deleted.
func (r *GORMProductRepository) DeleteByCategoryID(categoryID uint) error {
	if err := r.db.Where("category_id = ?", categoryID).Delete(&models.Product{}).Error; err != nil {
		return fmt.Errorf("failed to delete products of category %d: %w", categoryID, err)
	}
	return nil
}

// Restore clears the soft-delete marker on a product.
func (r *GORMProductRepository) Restore(id uint) error {
	res := r.db.Unscoped().Model(&models.Product{}).Where("id = ?", id).Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("failed to restore product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("Product", id)
	}
	return nil
}

// DecrementAvailable atomically decrements the availability counter,
// refusing to go below zero. The WHERE guard plus the affected-row check
// is the backstop that keeps two racing placements from overselling even
// without a row lock.
func (r *GORMProductRepository) DecrementAvailable(id uint, quantity int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND available_qty >= ?", id, quantity).
		UpdateColumn("available_qty", gorm.Expr("available_qty - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement availability of product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var product models.Product
		if err := r.db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("Product", id)
			}
			return fmt.Errorf("failed to re-read product %d after decrement miss: %w", id, err)
		}
		return &apperrors.InsufficientStockError{
			ProductID: id,
			Available: product.AvailableQty,
			Requested: quantity,
		}
	}
	return nil
}
