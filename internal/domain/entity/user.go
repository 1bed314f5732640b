package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is a buyer account.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (User) TableName() string {
	return "users"
}

// BeforeSave hashes the password unless it is already a bcrypt hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	hashed, err := hashPasswordIfNeeded(u.Password, u.Email)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// hashPasswordIfNeeded hashes plaintext passwords and passes through values
// that already look like bcrypt hashes ("$2a$", "$2b$", "$2y$"), so repeated
// saves never double-hash.
func hashPasswordIfNeeded(password, email string) (string, error) {
	if len(password) == 0 || strings.HasPrefix(password, "$2a$") ||
		strings.HasPrefix(password, "$2b$") || strings.HasPrefix(password, "$2y$") {
		return password, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Entity] Failed to hash password for email=%s: %v", email, err)
		return "", err
	}
	return string(hashed), nil
}
