package services

import (
	"strings"

	"katalog/internal/apperrors"
	"katalog/internal/models"
	"katalog/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// CreateCategory creates a new category after checking name uniqueness.
func (s *CategoryService) CreateCategory(category *models.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return apperrors.NewValidation("category name is required")
	}

	taken, err := s.categoryRepo.NameExists(category.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflict("Category", "name", category.Name)
	}

	return s.categoryRepo.Create(category)
}

// GetCategoryByName retrieves a category by its exact name.
func (s *CategoryService) GetCategoryByName(name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("category name is required")
	}
	return s.categoryRepo.GetByName(name)
}

// GetCategoryByID retrieves a single category by its ID.
func (s *CategoryService) GetCategoryByID(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, apperrors.NewValidation("invalid category ID")
	}
	return s.categoryRepo.GetByID(id)
}

var categorySortColumns = map[string]bool{
	"created_at": true,
	"name":       true,
}

// GetAllCategories retrieves categories with filtering and pagination.
func (s *CategoryService) GetAllCategories(filters repositories.CategoryFilters, page, limit int, sortBy, sortOrder string) ([]models.Category, int64, error) {
	pagination, err := normalizePagination(page, limit, sortBy, sortOrder, categorySortColumns, "created_at")
	if err != nil {
		return nil, 0, err
	}
	filters.Search = strings.TrimSpace(filters.Search)
	return s.categoryRepo.GetAll(filters, pagination)
}

// UpdateCategory renames an existing category after a conflict check.
func (s *CategoryService) UpdateCategory(id uint, name string) (*models.Category, error) {
	if id == 0 {
		return nil, apperrors.NewValidation("invalid category ID")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidation("category name is required")
	}

	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	taken, err := s.categoryRepo.NameExists(name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.NewConflict("Category", "name", name)
	}

	category.Name = name
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory soft-deletes a category and all products in it.
func (s *CategoryService) DeleteCategory(id uint) error {
	if id == 0 {
		return apperrors.NewValidation("invalid category ID")
	}
	if _, err := s.categoryRepo.GetByID(id); err != nil {
		return err
	}

	// Products go first so the catalog never lists products of a
	// category that no longer exists.
	if err := s.productRepo.DeleteByCategoryID(id); err != nil {
		return err
	}
	return s.categoryRepo.Delete(id)
}

// RestoreCategory brings back a soft-deleted category.
func (s *CategoryService) RestoreCategory(id uint) error {
	if id == 0 {
		return apperrors.NewValidation("invalid category ID")
	}
	return s.categoryRepo.Restore(id)
}

// GetDeletedCategories lists soft-deleted categories.
func (s *CategoryService) GetDeletedCategories() ([]models.Category, error) {
	return s.categoryRepo.GetDeleted()
}
