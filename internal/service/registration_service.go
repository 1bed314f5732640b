package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	"github.com/yourusername/marketplace-api/internal/domain/repository"
	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput carries the registration fields for either principal kind.
// Phone and Country are mandatory for sellers only.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Country  string
}

// RegistrationService orchestrates the OTP-gated signup flow for users and
// sellers: existence check, issuance windows, code dispatch and, once the
// code is verified, creation of the durable account record. It also carries
// the OTP-backed password-reset flow.
type RegistrationService struct {
	users   repository.UserRepository
	sellers repository.SellerRepository
	otp     *OTPService
}

// NewRegistrationService creates the service and fails on missing collaborators.
func NewRegistrationService(
	users repository.UserRepository,
	sellers repository.SellerRepository,
	otp *OTPService,
) (*RegistrationService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required for RegistrationService")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller repository is required for RegistrationService")
	}
	if otp == nil {
		return nil, fmt.Errorf("otp service is required for RegistrationService")
	}
	return &RegistrationService{users: users, sellers: sellers, otp: otp}, nil
}

// RequestSignup validates the registration data, refuses identifiers that
// already exist and runs the issuance pipeline: window checks, request
// tracking, then code dispatch. Any failure leaves the principal
// unregistered. sent=false means the account may retry after the cooldown
// because the notification mail did not go out.
func (s *RegistrationService) RequestSignup(ctx context.Context, role entity.Role, input RegisterInput) (sent bool, err error) {
	input = normalizeRegisterInput(input)
	if err := validateRegisterInput(role, input); err != nil {
		return false, err
	}

	exists, err := s.exists(role, input.Email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, fmt.Errorf("%w: %s with this email already exists", apperrors.ErrConflict, role)
	}

	if err := s.otp.CheckIssuanceAllowed(ctx, input.Email); err != nil {
		return false, err
	}
	if err := s.otp.TrackRequest(ctx, input.Email); err != nil {
		return false, err
	}

	return s.otp.Issue(ctx, input.Email, input.Name, activationTemplate(role))
}

// VerifySignup re-validates the registration data, re-checks non-existence
// (a concurrent request may have created the account since the signup call),
// verifies the submitted code and creates the durable record. The password
// is bcrypt-hashed before storage by the entity hook.
func (s *RegistrationService) VerifySignup(ctx context.Context, role entity.Role, input RegisterInput, code string) (entity.Principal, error) {
	input = normalizeRegisterInput(input)
	if err := validateRegisterInput(role, input); err != nil {
		return nil, err
	}

	exists, err := s.exists(role, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s with this email already exists", apperrors.ErrConflict, role)
	}

	if err := s.otp.Verify(ctx, input.Email, code); err != nil {
		return nil, err
	}

	principal, err := s.create(role, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", role, err)
	}

	log.Printf("[RegistrationService] Created %s ID=%d email=%s", role, principal.PrincipalID(), principal.PrincipalEmail())
	return principal, nil
}

// RequestPasswordReset runs the issuance pipeline for an existing principal
// with the password-reset mail template.
func (s *RegistrationService) RequestPasswordReset(ctx context.Context, role entity.Role, email string) (sent bool, err error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return false, err
	}

	principal, err := s.get(role, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, fmt.Errorf("%w: %s not found", apperrors.ErrNotFound, role)
		}
		return false, err
	}

	name := ""
	switch p := principal.(type) {
	case *entity.User:
		name = p.Name
	case *entity.Seller:
		name = p.Name
	}

	if err := s.otp.CheckIssuanceAllowed(ctx, email); err != nil {
		return false, err
	}
	if err := s.otp.TrackRequest(ctx, email); err != nil {
		return false, err
	}

	return s.otp.Issue(ctx, email, name, TemplatePasswordReset)
}

// VerifyPasswordReset pre-checks a reset code without consuming it, so the
// same code can still authorize the subsequent UpdatePassword call. Wrong
// submissions count toward the account lock as usual.
func (s *RegistrationService) VerifyPasswordReset(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	return s.otp.Check(ctx, email, code)
}

// UpdatePassword consumes the reset code and stores a new password hash.
// The new password must differ from the current one.
func (s *RegistrationService) UpdatePassword(ctx context.Context, role entity.Role, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", apperrors.ErrValidation)
	}

	principal, err := s.get(role, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: %s not found", apperrors.ErrNotFound, role)
		}
		return err
	}

	if err := s.otp.Verify(ctx, email, code); err != nil {
		return err
	}

	if principal.CheckPassword(newPassword) {
		return fmt.Errorf("%w: new password must differ from the old one", apperrors.ErrValidation)
	}

	switch role {
	case entity.RoleSeller:
		err = s.sellers.UpdatePassword(principal.PrincipalID(), newPassword)
	default:
		err = s.users.UpdatePassword(principal.PrincipalID(), newPassword)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s password: %w", role, err)
	}

	log.Printf("[RegistrationService] Password updated for %s ID=%d", role, principal.PrincipalID())
	return nil
}

func (s *RegistrationService) exists(role entity.Role, email string) (bool, error) {
	_, err := s.get(role, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s existence: %w", role, err)
}

func (s *RegistrationService) get(role entity.Role, email string) (entity.Principal, error) {
	if role == entity.RoleSeller {
		return s.sellers.GetByEmail(email)
	}
	return s.users.GetByEmail(email)
}

func (s *RegistrationService) create(role entity.Role, input RegisterInput) (entity.Principal, error) {
	if role == entity.RoleSeller {
		seller := &entity.Seller{
			Name:     input.Name,
			Email:    input.Email,
			Password: input.Password,
			Phone:    input.Phone,
			Country:  input.Country,
		}
		if err := s.sellers.Create(seller); err != nil {
			return nil, err
		}
		return seller, nil
	}

	user := &entity.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func activationTemplate(role entity.Role) EmailTemplate {
	if role == entity.RoleSeller {
		return TemplateSellerActivation
	}
	return TemplateUserActivation
}

func normalizeRegisterInput(input RegisterInput) RegisterInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Country = strings.TrimSpace(input.Country)
	return input
}

func validateRegisterInput(role entity.Role, input RegisterInput) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return fmt.Errorf("%w: all fields are required", apperrors.ErrValidation)
	}
	if role == entity.RoleSeller && (input.Phone == "" || input.Country == "") {
		return fmt.Errorf("%w: all fields are required", apperrors.ErrValidation)
	}
	return validateEmail(input.Email)
}

func validateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}
	return nil
}

// normalizeEmail trims whitespace and lowercases the address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
