package repository

import (
	"github.com/yourusername/marketplace-api/internal/domain/entity"
)

// SellerRepository defines persistence operations for merchant accounts.
type SellerRepository interface {
	Create(seller *entity.Seller) error
	GetByID(id uint) (*entity.Seller, error)
	GetByEmail(email string) (*entity.Seller, error)
	UpdatePassword(sellerID uint, newPassword string) error
}
