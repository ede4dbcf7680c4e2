package repositories

import (
	"katalog/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
}
