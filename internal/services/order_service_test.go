package services_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"katalog/internal/apperrors"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"
)

// MockPublisher is a testify mock of services.OrderEventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

type orderFixture struct {
	service  *services.OrderService
	products *repositories.MockProductRepository
	orders   *repositories.MockOrderRepository
}

func newOrderFixture(publisher services.OrderEventPublisher) orderFixture {
	products := repositories.NewMockProductRepository()
	orders := repositories.NewMockOrderRepository()
	tx := repositories.NewMockTxManager(products, orders)
	return orderFixture{
		service:  services.NewOrderService(tx, orders, products, publisher),
		products: products,
		orders:   orders,
	}
}

func seedProduct(t *testing.T, repo *repositories.MockProductRepository, name, price string, qty int) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID:   1,
		SKU:          "SKU-" + name,
		Name:         name,
		Price:        decimal.RequireFromString(price),
		AvailableQty: qty,
	}
	require.NoError(t, repo.Create(product))
	return product
}

func TestValidateStock(t *testing.T) {
	assert.True(t, services.ValidateStock(5, 3))
	assert.True(t, services.ValidateStock(3, 3))
	assert.False(t, services.ValidateStock(2, 3))
	assert.False(t, services.ValidateStock(0, 1))
}

func TestComputeTotal(t *testing.T) {
	lines := []services.PricedLine{
		{UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3},
		{UnitPrice: decimal.RequireFromString("0.05"), Quantity: 1},
	}
	assert.Equal(t, "60.02", services.ComputeTotal(lines).StringFixed(2))

	// Rounding happens once at the total, half-up.
	lines = []services.PricedLine{
		{UnitPrice: decimal.RequireFromString("1.005"), Quantity: 3},
	}
	assert.Equal(t, "3.02", services.ComputeTotal(lines).StringFixed(2))

	assert.Equal(t, "0.00", services.ComputeTotal(nil).StringFixed(2))
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newOrderFixture(nil)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	order, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, uint(1), order.UserID)
	assert.Equal(t, "30.00", order.Total.StringFixed(2))
	require.Len(t, order.Items, 1)
	assert.Equal(t, p.ID, order.Items[0].ProductID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "10.00", order.Items[0].UnitPrice.StringFixed(2))

	remaining, err := f.products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining.AvailableQty)
}

func TestPlaceOrder_InsufficientStockAfterPartialDrain(t *testing.T) {
	f := newOrderFixture(nil)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	_, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	// Availability is now 2; requesting 3 must fail and leave it at 2.
	_, err = f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 3}},
	})
	var stockErr *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	remaining, err := f.products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining.AvailableQty)
}

func TestPlaceOrder_MultiLineTotalMatchesSubtotals(t *testing.T) {
	f := newOrderFixture(nil)
	p1 := seedProduct(t, f.products, "Keyboard", "75.50", 10)
	p2 := seedProduct(t, f.products, "Mouse", "25.99", 10)

	order, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID: 2,
		Products: []services.OrderLineRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(item.Subtotal())
	}
	assert.True(t, order.Total.Equal(sum), "total %s != sum of subtotals %s", order.Total, sum)
	assert.Equal(t, "228.97", order.Total.StringFixed(2))

	// Line order matches the request order.
	require.Len(t, order.Items, 2)
	assert.Equal(t, p1.ID, order.Items[0].ProductID)
	assert.Equal(t, p2.ID, order.Items[1].ProductID)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	f := newOrderFixture(nil)

	_, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: 99, Quantity: 1}},
	})
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, uint(99), notFound.ID)

	orders, _, err := f.orders.GetAll(repositories.OrderFilters{}, repositories.Pagination{Page: 1, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	f := newOrderFixture(nil)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	var validationErr *apperrors.ValidationError

	_, err := f.service.PlaceOrder(services.CreateOrderRequest{UserID: 1})
	assert.ErrorAs(t, err, &validationErr)

	_, err = f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 0}},
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: -2}},
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   0,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	assert.ErrorAs(t, err, &validationErr)

	// None of the rejected requests may touch stock.
	remaining, err := f.products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining.AvailableQty)
}

func TestPlaceOrder_RollbackOnMidPlacementFailure(t *testing.T) {
	f := newOrderFixture(nil)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	// First line is satisfiable, second references a missing product. The
	// whole placement must roll back: no order, no items, no decrement.
	_, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID: 1,
		Products: []services.OrderLineRequest{
			{ProductID: p.ID, Quantity: 2},
			{ProductID: 404, Quantity: 1},
		},
	})
	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)

	remaining, err := f.products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining.AvailableQty)

	orders, _, err := f.orders.GetAll(repositories.OrderFilters{}, repositories.Pagination{Page: 1, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_RefetchIsIdempotent(t *testing.T) {
	f := newOrderFixture(nil)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	placed, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	first, err := f.service.GetOrderByID(placed.ID)
	require.NoError(t, err)
	second, err := f.service.GetOrderByID(placed.ID)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, len(first.Items), len(second.Items))
	assert.True(t, placed.Total.Equal(first.Total))
}

func TestPlaceOrder_ConcurrentPlacementsNeverOversell(t *testing.T) {
	f := newOrderFixture(nil)
	const available = 5
	const attempts = 12
	p := seedProduct(t, f.products, "Laptop", "10.00", available)

	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.PlaceOrder(services.CreateOrderRequest{
				UserID:   1,
				Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes, stockFailures := 0, 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		var stockErr *apperrors.InsufficientStockError
		if errors.As(err, &stockErr) {
			stockFailures++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, available, successes)
	assert.Equal(t, attempts-available, stockFailures)

	remaining, err := f.products.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining.AvailableQty)
}

func TestPlaceOrder_PublishesEventAfterCommit(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", "order", "order.placed", mock.Anything).Return(nil).Once()

	f := newOrderFixture(publisher)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	_, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestPlaceOrder_PublishFailureDoesNotFailPlacement(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", "order", "order.placed", mock.Anything).Return(errors.New("broker down")).Once()

	f := newOrderFixture(publisher)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	order, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.NotNil(t, order)
	publisher.AssertExpectations(t)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(nil)
	p := seedProduct(t, f.products, "Laptop", "10.00", 5)

	order, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   1,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.UpdateOrderStatus(order.ID, models.OrderStatusDelivered))
	updated, err := f.service.GetOrderByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)

	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, f.service.UpdateOrderStatus(order.ID, "shipped"), &validationErr)

	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, f.service.UpdateOrderStatus(9999, models.OrderStatusCancelled), &notFound)
}

func TestGetAllOrders_FiltersAndPagination(t *testing.T) {
	f := newOrderFixture(nil)
	p := seedProduct(t, f.products, "Laptop", "10.00", 100)

	for i := 0; i < 3; i++ {
		_, err := f.service.PlaceOrder(services.CreateOrderRequest{
			UserID:   1,
			Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}
	_, err := f.service.PlaceOrder(services.CreateOrderRequest{
		UserID:   2,
		Products: []services.OrderLineRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	orders, total, err := f.service.GetAllOrders(repositories.OrderFilters{UserID: 1}, 1, 2, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 2)

	_, _, err = f.service.GetAllOrders(repositories.OrderFilters{Status: "shipped"}, 1, 10, "", "")
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, _, err = f.service.GetAllOrders(repositories.OrderFilters{}, 1, 10, "id; DROP TABLE orders", "")
	assert.ErrorAs(t, err, &validationErr)
}
