package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"katalog/internal/apperrors"
	"katalog/internal/models"
	"katalog/internal/repositories"
)

// OrderEventPublisher publishes order lifecycle events to a message broker.
type OrderEventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderLineRequest is one requested line of an order placement.
type OrderLineRequest struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the boundary contract of the placement workflow.
type CreateOrderRequest struct {
	UserID   uint               `json:"user_id" validate:"required,gt=0"`
	Products []OrderLineRequest `json:"products" validate:"required,min=1,dive"`
}

// PricedLine pairs a unit price with a quantity for total computation.
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// ValidateStock reports whether the requested quantity can be satisfied.
func ValidateStock(available, requested int) bool {
	return available >= requested
}

// ComputeTotal sums unit price times quantity over all lines and rounds
// half-up to two decimal places once, at the total level. Per-line rounding
// would change totals on multi-line orders.
func ComputeTotal(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total.Round(2)
}

// OrderService handles business logic related to orders. Placement runs
// through the TxManager; reads and status updates use the plain repositories.
type OrderService struct {
	tx          repositories.TxManager
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   OrderEventPublisher
}

// NewOrderService creates a new OrderService. publisher may be nil, in
// which case no events are published.
func NewOrderService(tx repositories.TxManager, orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		tx:          tx,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

// PlaceOrder validates the requested lines against current availability,
// computes the total, persists the order with its lines and decrements
// product availability — all inside one transaction, so a failure on any
// line undoes every prior insert and decrement of this placement. The
// returned order is reloaded with its lines and product names.
func (s *OrderService) PlaceOrder(req CreateOrderRequest) (*models.Order, error) {
	if req.UserID == 0 {
		return nil, apperrors.NewValidation("user ID is required")
	}
	if len(req.Products) == 0 {
		return nil, apperrors.NewValidation("at least one product is required")
	}
	for _, line := range req.Products {
		if line.ProductID == 0 {
			return nil, apperrors.NewValidation("product ID is required for every line")
		}
		if line.Quantity <= 0 {
			return nil, apperrors.NewValidation("quantity must be greater than 0 for product %d", line.ProductID)
		}
	}

	var placed *models.Order
	err := s.tx.RunInTransaction(func(r repositories.TxRepos) error {
		type validatedLine struct {
			product  *models.Product
			quantity int
		}

		// Lock each product row for the duration of the transaction so the
		// stock check and the decrement below are serialized against other
		// placements touching the same product.
		lines := make([]validatedLine, 0, len(req.Products))
		priced := make([]PricedLine, 0, len(req.Products))
		for _, line := range req.Products {
			product, err := r.Products.GetByIDForUpdate(line.ProductID)
			if err != nil {
				return err
			}
			if !ValidateStock(product.AvailableQty, line.Quantity) {
				return &apperrors.InsufficientStockError{
					ProductID: product.ID,
					Available: product.AvailableQty,
					Requested: line.Quantity,
				}
			}
			lines = append(lines, validatedLine{product: product, quantity: line.Quantity})
			priced = append(priced, PricedLine{UnitPrice: product.Price, Quantity: line.Quantity})
		}

		order := &models.Order{
			UserID: req.UserID,
			Total:  ComputeTotal(priced),
			Status: models.OrderStatusPending,
		}
		if err := r.Orders.Create(order); err != nil {
			return err
		}

		// Line creation order matches the request order. UnitPrice is a
		// snapshot of the current product price.
		for _, line := range lines {
			item := &models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.product.ID,
				Quantity:  line.quantity,
				UnitPrice: line.product.Price,
			}
			if err := r.Orders.CreateItem(item); err != nil {
				return err
			}
			if err := r.Products.DecrementAvailable(line.product.ID, line.quantity); err != nil {
				return err
			}
		}

		reloaded, err := r.Orders.GetByID(order.ID)
		if err != nil {
			return err
		}
		placed = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderPlaced(placed)
	return placed, nil
}

// publishOrderPlaced emits an order.placed event after the transaction has
// committed. Publishing is best effort: a broker failure is logged and
// never fails the already-committed placement.
func (s *OrderService) publishOrderPlaced(order *models.Order) {
	if s.publisher == nil {
		return
	}

	event := map[string]interface{}{
		"event_id":    uuid.New().String(),
		"order_id":    order.ID,
		"user_id":     order.UserID,
		"status":      order.Status,
		"total":       order.Total.StringFixed(2),
		"occurred_at": time.Now().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal order.placed event for order %d: %v", order.ID, err)
		return
	}
	if err := s.publisher.Publish("order", "order.placed", body); err != nil {
		log.Printf("Warning: failed to publish order.placed event for order %d: %v", order.ID, err)
	}
}

// GetOrderByID retrieves a single order with its lines.
func (s *OrderService) GetOrderByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, apperrors.NewValidation("invalid order ID")
	}
	return s.orderRepo.GetByID(id)
}

var orderSortColumns = map[string]bool{
	"created_at": true,
	"total":      true,
	"status":     true,
}

// GetAllOrders retrieves orders with filtering and pagination.
func (s *OrderService) GetAllOrders(filters repositories.OrderFilters, page, limit int, sortBy, sortOrder string) ([]models.Order, int64, error) {
	if filters.Status != "" && !models.ValidOrderStatuses[filters.Status] {
		return nil, 0, apperrors.NewValidation("invalid order status: %s", filters.Status)
	}
	pagination, err := normalizePagination(page, limit, sortBy, sortOrder, orderSortColumns, "created_at")
	if err != nil {
		return nil, 0, err
	}
	return s.orderRepo.GetAll(filters, pagination)
}

// GetOrdersByUserID retrieves all orders of one user.
func (s *OrderService) GetOrdersByUserID(userID uint) ([]models.Order, error) {
	if userID == 0 {
		return nil, apperrors.NewValidation("invalid user ID")
	}
	orders, _, err := s.orderRepo.GetAll(
		repositories.OrderFilters{UserID: userID},
		repositories.Pagination{Page: 1, Limit: maxPageSize, SortBy: "created_at", SortOrder: "DESC"},
	)
	return orders, err
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id uint, status string) error {
	if id == 0 {
		return apperrors.NewValidation("invalid order ID")
	}
	if !models.ValidOrderStatuses[status] {
		return apperrors.NewValidation("invalid order status: %s", status)
	}
	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update status of order %d: %w", id, err)
	}
	return nil
}

// DeleteOrder soft-deletes an order by its ID.
func (s *OrderService) DeleteOrder(id uint) error {
	if id == 0 {
		return apperrors.NewValidation("invalid order ID")
	}
	return s.orderRepo.Delete(id)
}
