package postgres

import (
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
)

// SellerRepo implements repository.SellerRepository.
type SellerRepo struct {
	db *gorm.DB
}

// NewSellerRepo creates a new seller repository.
func NewSellerRepo(db *gorm.DB) *SellerRepo {
	return &SellerRepo{db: db}
}

// Create inserts a new seller.
func (r *SellerRepo) Create(seller *entity.Seller) error {
	return r.db.Create(seller).Error
}

// GetByID returns a seller by ID.
func (r *SellerRepo) GetByID(id uint) (*entity.Seller, error) {
	var seller entity.Seller
	err := r.db.First(&seller, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &seller, nil
}

// GetByEmail returns a seller by email.
func (r *SellerRepo) GetByEmail(email string) (*entity.Seller, error) {
	var seller entity.Seller
	err := r.db.Where("email = ?", email).First(&seller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &seller, nil
}

// UpdatePassword hashes the new password and writes it with a direct SQL
// update, bypassing the BeforeSave hook so the value is never hashed twice.
func (r *SellerRepo) UpdatePassword(sellerID uint, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[SellerRepo] Failed to hash password for seller ID=%d: %v", sellerID, err)
		return err
	}

	result := r.db.Exec(
		"UPDATE sellers SET password = ?, updated_at = ? WHERE id = ?",
		string(hashed), time.Now(), sellerID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
