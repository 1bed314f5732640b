package repository

import (
	"github.com/yourusername/marketplace-api/internal/domain/entity"
)

// UserRepository defines persistence operations for buyer accounts.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	UpdatePassword(userID uint, newPassword string) error
}
