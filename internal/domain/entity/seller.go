package entity

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seller is a merchant account. Sellers register with two extra mandatory
// fields (phone, country) and authenticate through their own cookie pair.
type Seller struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Phone    string `gorm:"size:20;not null" json:"phone"`
	Country  string `gorm:"size:60;not null" json:"country"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Seller) TableName() string {
	return "sellers"
}

// BeforeSave hashes the password unless it is already a bcrypt hash.
func (s *Seller) BeforeSave(tx *gorm.DB) error {
	hashed, err := hashPasswordIfNeeded(s.Password, s.Email)
	if err != nil {
		return err
	}
	s.Password = hashed
	return nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (s *Seller) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.Password), []byte(password)) == nil
}
