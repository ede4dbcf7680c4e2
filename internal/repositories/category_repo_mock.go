package repositories

import (
	"sort"
	"strings"
	"sync"

	"katalog/internal/apperrors"
	"katalog/internal/models"
)

// MockCategoryRepository is an in-memory implementation of CategoryRepository.
type MockCategoryRepository struct {
	categories map[uint]models.Category
	deleted    map[uint]models.Category
	nextID     uint
	mu         sync.RWMutex
}

// NewMockCategoryRepository creates a new instance of MockCategoryRepository.
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[uint]models.Category),
		deleted:    make(map[uint]models.Category),
		nextID:     1,
	}
}

// GetAll returns categories matching the filters and the pre-pagination count.
func (r *MockCategoryRepository) GetAll(filters CategoryFilters, pagination Pagination) ([]models.Category, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Category, 0, len(r.categories))
	for _, cat := range r.categories {
		if filters.Search != "" && !strings.Contains(cat.Name, filters.Search) {
			continue
		}
		matched = append(matched, cat)
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

// GetByID returns a category by its ID.
func (r *MockCategoryRepository) GetByID(id uint) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.categories[id]
	if !ok {
		return nil, apperrors.NewNotFound("Category", id)
	}
	return &category, nil
}

// GetByName returns a category by its exact name.
func (r *MockCategoryRepository) GetByName(name string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cat := range r.categories {
		if cat.Name == name {
			return &cat, nil
		}
	}
	return nil, apperrors.NewNotFound("Category", 0)
}

// NameExists reports whether another category already uses the given name.
func (r *MockCategoryRepository) NameExists(name string, excludeID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cat := range r.categories {
		if cat.Name == name && cat.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Create adds a new category, assigning an ID when absent.
func (r *MockCategoryRepository) Create(category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category.ID == 0 {
		category.ID = r.nextID
		r.nextID++
	}
	r.categories[category.ID] = *category
	return nil
}

// Update modifies an existing category.
func (r *MockCategoryRepository) Update(category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; !ok {
		return apperrors.NewNotFound("Category", category.ID)
	}
	r.categories[category.ID] = *category
	return nil
}

// Delete soft-deletes a category by its ID.
func (r *MockCategoryRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	category, ok := r.categories[id]
	if !ok {
		return apperrors.NewNotFound("Category", id)
	}
	delete(r.categories, id)
	r.deleted[id] = category
	return nil
}

// Restore brings back a soft-deleted category.
func (r *MockCategoryRepository) Restore(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	category, ok := r.deleted[id]
	if !ok {
		return apperrors.NewNotFound("Category", id)
	}
	delete(r.deleted, id)
	r.categories[id] = category
	return nil
}

// GetDeleted lists soft-deleted categories.
func (r *MockCategoryRepository) GetDeleted() ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]models.Category, 0, len(r.deleted))
	for _, cat := range r.deleted {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}
