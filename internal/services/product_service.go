package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"katalog/internal/apperrors"
	"katalog/internal/models"
	"katalog/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// validateProduct enforces the catalog business rules shared by create
// and update.
func (s *ProductService) validateProduct(product *models.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.SKU = strings.TrimSpace(product.SKU)
	product.Description = strings.TrimSpace(product.Description)

	if product.Name == "" {
		return apperrors.NewValidation("product name is required")
	}
	if product.SKU == "" {
		return apperrors.NewValidation("product SKU is required")
	}
	if product.CategoryID == 0 {
		return apperrors.NewValidation("valid category ID is required")
	}
	if product.Price.IsNegative() {
		return apperrors.NewValidation("price must not be negative")
	}
	if product.AvailableQty < 0 {
		return apperrors.NewValidation("available quantity must not be negative")
	}

	if _, err := s.categoryRepo.GetByID(product.CategoryID); err != nil {
		return err
	}
	return nil
}

// CreateProduct creates a new product after checking category existence
// and name/SKU uniqueness.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.validateProduct(product); err != nil {
		return err
	}

	nameTaken, err := s.productRepo.NameExists(product.Name, 0)
	if err != nil {
		return err
	}
	if nameTaken {
		return apperrors.NewConflict("Product", "name", product.Name)
	}

	skuTaken, err := s.productRepo.SKUExists(product.SKU, 0)
	if err != nil {
		return err
	}
	if skuTaken {
		return apperrors.NewConflict("Product", "sku", product.SKU)
	}

	return s.productRepo.Create(product)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, apperrors.NewValidation("invalid product ID")
	}
	return s.productRepo.GetByID(id)
}

var productSortColumns = map[string]bool{
	"created_at":    true,
	"name":          true,
	"price":         true,
	"available_qty": true,
}

// GetAllProducts retrieves products with filtering and pagination.
func (s *ProductService) GetAllProducts(filters repositories.ProductFilters, page, limit int, sortBy, sortOrder string) ([]models.Product, int64, error) {
	pagination, err := normalizePagination(page, limit, sortBy, sortOrder, productSortColumns, "created_at")
	if err != nil {
		return nil, 0, err
	}

	filters.Search = strings.TrimSpace(filters.Search)
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return nil, 0, apperrors.NewValidation("minimum price must not exceed maximum price")
	}
	if filters.CategoryID != 0 {
		if _, err := s.categoryRepo.GetByID(filters.CategoryID); err != nil {
			return nil, 0, err
		}
	}

	return s.productRepo.GetAll(filters, pagination)
}

// UpdateProduct replaces an existing product record in full.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if product.ID == 0 {
		return apperrors.NewValidation("invalid product ID")
	}
	if err := s.validateProduct(product); err != nil {
		return err
	}

	existing, err := s.productRepo.GetByID(product.ID)
	if err != nil {
		return err
	}

	nameTaken, err := s.productRepo.NameExists(product.Name, product.ID)
	if err != nil {
		return err
	}
	if nameTaken {
		return apperrors.NewConflict("Product", "name", product.Name)
	}

	skuTaken, err := s.productRepo.SKUExists(product.SKU, product.ID)
	if err != nil {
		return err
	}
	if skuTaken {
		return apperrors.NewConflict("Product", "sku", product.SKU)
	}

	product.CreatedAt = existing.CreatedAt
	return s.productRepo.Update(product)
}

// DeleteProduct soft-deletes a product by its ID.
func (s *ProductService) DeleteProduct(id uint) error {
	if id == 0 {
		return apperrors.NewValidation("invalid product ID")
	}
	return s.productRepo.Delete(id)
}

// RestoreProduct brings back a soft-deleted product.
func (s *ProductService) RestoreProduct(id uint) error {
	if id == 0 {
		return apperrors.NewValidation("invalid product ID")
	}
	return s.productRepo.Restore(id)
}

// ParsePrice converts a query/body price string into a decimal, rejecting
// malformed or negative values.
func ParsePrice(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.NewValidation("invalid price value: %s", raw)
	}
	if price.IsNegative() {
		return nil, apperrors.NewValidation("price must not be negative")
	}
	return &price, nil
}
