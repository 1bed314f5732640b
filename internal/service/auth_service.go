package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	"github.com/yourusername/marketplace-api/internal/domain/repository"
	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
)

// AuthService checks credentials and resolves principals for the token and
// middleware layers.
type AuthService struct {
	users   repository.UserRepository
	sellers repository.SellerRepository
}

// NewAuthService creates the service and fails on missing collaborators.
func NewAuthService(users repository.UserRepository, sellers repository.SellerRepository) (*AuthService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required for AuthService")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller repository is required for AuthService")
	}
	return &AuthService{users: users, sellers: sellers}, nil
}

// Login verifies credentials for the given role. A missing account and a
// wrong password both collapse to apperrors.ErrUnauthorized so callers
// cannot probe which emails are registered.
func (s *AuthService) Login(role entity.Role, email, password string) (entity.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	principal, err := s.principalByEmail(role, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AuthService] Login failed for unknown %s email=%s", role, email)
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, err
	}

	if !principal.CheckPassword(password) {
		log.Printf("[AuthService] Wrong password for %s ID=%d", role, principal.PrincipalID())
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	return principal, nil
}

// GetPrincipal resolves an account by id and role. Used by the auth gate and
// the refresh path; a deleted account holding a still-valid token resolves
// to ErrNotFound here.
func (s *AuthService) GetPrincipal(role entity.Role, id uint) (entity.Principal, error) {
	if role == entity.RoleSeller {
		return s.sellers.GetByID(id)
	}
	return s.users.GetByID(id)
}

func (s *AuthService) principalByEmail(role entity.Role, email string) (entity.Principal, error) {
	if role == entity.RoleSeller {
		return s.sellers.GetByEmail(email)
	}
	return s.users.GetByEmail(email)
}
