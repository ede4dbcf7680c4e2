package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"katalog/internal/apperrors"
	"katalog/internal/models"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// GetAll retrieves categories matching the filters, plus the total count
// before pagination.
func (r *GORMCategoryRepository) GetAll(filters CategoryFilters, pagination Pagination) ([]models.Category, int64, error) {
	query := r.db.Model(&models.Category{})

	if filters.Search != "" {
		query = query.Where("name LIKE ?", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	var categories []models.Category
	err := query.
		Order(fmt.Sprintf("%s %s", pagination.SortBy, pagination.SortOrder)).
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&categories).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, total, nil
}

// GetByID retrieves a single category by its ID.
func (r *GORMCategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Category", id)
		}
		return nil, fmt.Errorf("failed to get category by ID %d: %w", id, err)
	}
	return &category, nil
}

// GetByName retrieves a category by its exact name.
func (r *GORMCategoryRepository) GetByName(name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("Category", 0)
		}
		return nil, fmt.Errorf("failed to get category by name %s: %w", name, err)
	}
	return &category, nil
}

// NameExists reports whether another category already uses the given name.
func (r *GORMCategoryRepository) NameExists(name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.Category{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

// Create creates a new category.
func (r *GORMCategoryRepository) Create(category *models.Category) error {
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update updates an existing category.
func (r *GORMCategoryRepository) Update(category *models.Category) error {
	res := r.db.Save(category)
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("Category", category.ID)
	}
	return nil
}

// Delete soft-deletes a category by its ID.
func (r *GORMCategoryRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Category{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("Category", id)
	}
	return nil
}

// Restore clears the soft-delete marker on a category.
func (r *GORMCategoryRepository) Restore(id uint) error {
	res := r.db.Unscoped().Model(&models.Category{}).Where("id = ?", id).Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("failed to restore category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("Category", id)
	}
	return nil
}

// GetDeleted retrieves all soft-deleted categories.
func (r *GORMCategoryRepository) GetDeleted() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Unscoped().Where("deleted_at IS NOT NULL").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get deleted categories: %w", err)
	}
	return categories, nil
}
