package repositories

import (
	"gorm.io/gorm"
)

// TxRepos bundles the repositories that participate in the order placement
// transaction, bound to the same transaction handle.
type TxRepos struct {
	Products ProductRepository
	Orders   OrderRepository
}

// TxManager runs a unit of work as a single all-or-nothing transaction.
// If fn returns an error the transaction is rolled back and the error is
// returned; otherwise it commits.
type TxManager interface {
	RunInTransaction(fn func(repos TxRepos) error) error
}

// GormTxManager is the GORM implementation of TxManager.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager.
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// RunInTransaction rebinds the GORM repositories to the transaction handle
// so every statement issued by fn runs inside the same transaction.
func (m *GormTxManager) RunInTransaction(fn func(repos TxRepos) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Products: NewGORMProductRepository(tx),
			Orders:   NewGORMOrderRepository(tx),
		})
	})
}
