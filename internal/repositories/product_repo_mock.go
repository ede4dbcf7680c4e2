package repositories

import (
	"sort"
	"strings"
	"sync"

	"katalog/internal/apperrors"
	"katalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[uint]models.Product
	deleted  map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		deleted:  make(map[uint]models.Product),
		nextID:   1,
	}
}

type productState struct {
	products map[uint]models.Product
	deleted  map[uint]models.Product
	nextID   uint
}

func (r *MockProductRepository) snapshot() productState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := productState{
		products: make(map[uint]models.Product, len(r.products)),
		deleted:  make(map[uint]models.Product, len(r.deleted)),
		nextID:   r.nextID,
	}
	for id, p := range r.products {
		s.products[id] = p
	}
	for id, p := range r.deleted {
		s.deleted[id] = p
	}
	return s
}

func (r *MockProductRepository) restore(s productState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = s.products
	r.deleted = s.deleted
	r.nextID = s.nextID
}

// GetAll returns products matching the filters and the pre-pagination count.
func (r *MockProductRepository) GetAll(filters ProductFilters, pagination Pagination) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if filters.Search != "" &&
			!strings.Contains(p.Name, filters.Search) &&
			!strings.Contains(p.Description, filters.Search) {
			continue
		}
		if filters.CategoryID != 0 && p.CategoryID != filters.CategoryID {
			continue
		}
		if filters.MinPrice != nil && p.Price.LessThan(*filters.MinPrice) {
			continue
		}
		if filters.MaxPrice != nil && p.Price.GreaterThan(*filters.MaxPrice) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := pagination.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pagination.Limit
	if pagination.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.NewNotFound("Product", id)
	}
	return &product, nil
}

// GetByIDForUpdate behaves like GetByID; the mock transaction manager
// serializes whole transactions, which subsumes row locking.
func (r *MockProductRepository) GetByIDForUpdate(id uint) (*models.Product, error) {
	return r.GetByID(id)
}

// NameExists reports whether another product already uses the given name.
func (r *MockProductRepository) NameExists(name string, excludeID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// SKUExists reports whether another product already uses the given SKU.
func (r *MockProductRepository) SKUExists(sku string, excludeID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.SKU == sku && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Create adds a new product, assigning an ID when absent.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return apperrors.NewNotFound("Product", product.ID)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete soft-deletes a product by its ID.
func (r *MockProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return apperrors.NewNotFound("Product", id)
	}
	delete(r.products, id)
	r.deleted[id] = product
	return nil
}

// DeleteByCategoryID soft-deletes every product in a category.
func (r *MockProductRepository) DeleteByCategoryID(categoryID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.products {
		if p.CategoryID == categoryID {
			delete(r.products, id)
			r.deleted[id] = p
		}
	}
	return nil
}

// Restore brings back a soft-deleted product.
func (r *MockProductRepository) Restore(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.deleted[id]
	if !ok {
		return apperrors.NewNotFound("Product", id)
	}
	delete(r.deleted, id)
	r.products[id] = product
	return nil
}

// DecrementAvailable decrements the availability counter, refusing to go
// below zero.
func (r *MockProductRepository) DecrementAvailable(id uint, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return apperrors.NewNotFound("Product", id)
	}
	if product.AvailableQty < quantity {
		return &apperrors.InsufficientStockError{
			ProductID: id,
			Available: product.AvailableQty,
			Requested: quantity,
		}
	}
	product.AvailableQty -= quantity
	r.products[id] = product
	return nil
}
