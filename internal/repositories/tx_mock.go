package repositories

import "sync"

// MockTxManager is an in-memory implementation of TxManager backed by the
// mock repositories. A single mutex serializes whole transactions, which
// gives the same isolation the row-locked GORM implementation provides,
// and state snapshots taken before fn runs make rollback observable: a
// failed transaction leaves the repositories exactly as they were.
type MockTxManager struct {
	products *MockProductRepository
	orders   *MockOrderRepository
	mu       sync.Mutex
}

// NewMockTxManager creates a MockTxManager over the given mock repositories.
func NewMockTxManager(products *MockProductRepository, orders *MockOrderRepository) *MockTxManager {
	return &MockTxManager{products: products, orders: orders}
}

// RunInTransaction executes fn serialized against all other transactions,
// restoring the pre-transaction state when fn fails.
func (m *MockTxManager) RunInTransaction(fn func(repos TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	productState := m.products.snapshot()
	orderState := m.orders.snapshot()

	err := fn(TxRepos{Products: m.products, Orders: m.orders})
	if err != nil {
		m.products.restore(productState)
		m.orders.restore(orderState)
		return err
	}
	return nil
}
