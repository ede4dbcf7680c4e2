package repositories

import (
	"sort"
	"sync"
	"time"

	"katalog/internal/apperrors"
	"katalog/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders     map[uint]models.Order
	items      map[uint][]models.OrderItem
	nextID     uint
	nextItemID uint
	mu         sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:     make(map[uint]models.Order),
		items:      make(map[uint][]models.OrderItem),
		nextID:     1,
		nextItemID: 1,
	}
}

type orderState struct {
	orders     map[uint]models.Order
	items      map[uint][]models.OrderItem
	nextID     uint
	nextItemID uint
}

func (r *MockOrderRepository) snapshot() orderState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := orderState{
		orders:     make(map[uint]models.Order, len(r.orders)),
		items:      make(map[uint][]models.OrderItem, len(r.items)),
		nextID:     r.nextID,
		nextItemID: r.nextItemID,
	}
	for id, o := range r.orders {
		s.orders[id] = o
	}
	for id, list := range r.items {
		s.items[id] = append([]models.OrderItem(nil), list...)
	}
	return s
}

func (r *MockOrderRepository) restore(s orderState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = s.orders
	r.items = s.items
	r.nextID = s.nextID
	r.nextItemID = s.nextItemID
}

// GetAll returns orders matching the filters and the pre-pagination count.
func (r *MockOrderRepository) GetAll(filters OrderFilters, pagination Pagination) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filters.UserID != 0 && o.UserID != filters.UserID {
			continue
		}
		if filters.Status != "" && o.Status != filters.Status {
			continue
		}
		o.Items = append([]models.OrderItem(nil), r.items[o.ID]...)
		matched = append(matched, o)
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

// GetByID returns an order with its items in insertion order.
func (r *MockOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NewNotFound("Order", id)
	}
	order.Items = append([]models.OrderItem(nil), r.items[id]...)
	return &order, nil
}

// Create adds a new order header.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == 0 {
		order.ID = r.nextID
		r.nextID++
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// CreateItem adds a new order line.
func (r *MockOrderRepository) CreateItem(item *models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		item.ID = r.nextItemID
		r.nextItemID++
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	r.items[item.OrderID] = append(r.items[item.OrderID], *item)
	return nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperrors.NewNotFound("Order", id)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// Delete removes an order by its ID.
func (r *MockOrderRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return apperrors.NewNotFound("Order", id)
	}
	delete(r.orders, id)
	delete(r.items, id)
	return nil
}
