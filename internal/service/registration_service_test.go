package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
	redisRepo "github.com/yourusername/marketplace-api/internal/repository/redis"
)

// MockUserRepository implements repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(userID uint, newPassword string) error {
	args := m.Called(userID, newPassword)
	return args.Error(0)
}

// MockSellerRepository implements repository.SellerRepository.
type MockSellerRepository struct {
	mock.Mock
}

func (m *MockSellerRepository) Create(seller *entity.Seller) error {
	args := m.Called(seller)
	return args.Error(0)
}

func (m *MockSellerRepository) GetByID(id uint) (*entity.Seller, error) {
	args := m.Called(id)
	if seller, ok := args.Get(0).(*entity.Seller); ok {
		return seller, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSellerRepository) GetByEmail(email string) (*entity.Seller, error) {
	args := m.Called(email)
	if seller, ok := args.Get(0).(*entity.Seller); ok {
		return seller, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSellerRepository) UpdatePassword(sellerID uint, newPassword string) error {
	args := m.Called(sellerID, newPassword)
	return args.Error(0)
}

type registrationFixture struct {
	svc     *RegistrationService
	users   *MockUserRepository
	sellers *MockSellerRepository
	email   *MockEmailService
	mr      *miniredis.Miniredis
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cache, err := redisRepo.NewCacheRepo(client)
	require.NoError(t, err)

	email := new(MockEmailService)
	otp, err := NewOTPService(cache, email)
	require.NoError(t, err)

	users := new(MockUserRepository)
	sellers := new(MockSellerRepository)
	svc, err := NewRegistrationService(users, sellers, otp)
	require.NoError(t, err)

	return &registrationFixture{svc: svc, users: users, sellers: sellers, email: email, mr: mr}
}

func userInput() RegisterInput {
	return RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret123"}
}

func sellerInput() RegisterInput {
	return RegisterInput{
		Name:     "Bob Store",
		Email:    "bob@store.com",
		Password: "secret123",
		Phone:    "+15550001234",
		Country:  "US",
	}
}

func bcryptHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegistrationService_RequestSignup_SendsActivationCode(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	f.users.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound)
	f.email.On("SendOTP", mock.Anything, "alice@example.com", "Alice", mock.Anything, TemplateUserActivation).
		Return(nil).Once()

	sent, err := f.svc.RequestSignup(ctx, entity.RoleUser, userInput())
	require.NoError(t, err)
	assert.True(t, sent)
	assert.True(t, f.mr.Exists("otp:alice@example.com"))

	f.email.AssertExpectations(t)
}

func TestRegistrationService_RequestSignup_NormalizesEmail(t *testing.T) {
	f := newRegistrationFixture(t)

	input := userInput()
	input.Email = "  Alice@Example.COM "

	f.users.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound)
	f.email.On("SendOTP", mock.Anything, "alice@example.com", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	_, err := f.svc.RequestSignup(context.Background(), entity.RoleUser, input)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists("otp:alice@example.com"))
}

func TestRegistrationService_RequestSignup_ExistingEmailConflicts(t *testing.T) {
	f := newRegistrationFixture(t)

	f.users.On("GetByEmail", "alice@example.com").Return(&entity.User{ID: 1, Email: "alice@example.com"}, nil)

	_, err := f.svc.RequestSignup(context.Background(), entity.RoleUser, userInput())
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// No OTP state is created for a refused request.
	assert.Empty(t, f.mr.Keys())
	f.email.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationService_RequestSignup_Validation(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		role  entity.Role
		input RegisterInput
	}{
		{"missing name", entity.RoleUser, RegisterInput{Email: "a@b.com", Password: "x"}},
		{"missing password", entity.RoleUser, RegisterInput{Name: "A", Email: "a@b.com"}},
		{"malformed email", entity.RoleUser, RegisterInput{Name: "A", Email: "not-an-email", Password: "x"}},
		{"unknown role", entity.Role("admin"), userInput()},
		{"seller without phone", entity.RoleSeller, RegisterInput{Name: "B", Email: "b@c.com", Password: "x", Country: "US"}},
		{"seller without country", entity.RoleSeller, RegisterInput{Name: "B", Email: "b@c.com", Password: "x", Phone: "+1555"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RequestSignup(ctx, tc.role, tc.input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestRegistrationService_RequestSignup_SellerUsesSellerTemplate(t *testing.T) {
	f := newRegistrationFixture(t)

	f.sellers.On("GetByEmail", "bob@store.com").Return(nil, apperrors.ErrNotFound)
	f.email.On("SendOTP", mock.Anything, "bob@store.com", "Bob Store", mock.Anything, TemplateSellerActivation).
		Return(nil).Once()

	sent, err := f.svc.RequestSignup(context.Background(), entity.RoleSeller, sellerInput())
	require.NoError(t, err)
	assert.True(t, sent)
	f.email.AssertExpectations(t)
}

func TestRegistrationService_VerifySignup_CreatesUser(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	f.mr.Set("otp:alice@example.com", "4821")
	f.mr.SetTTL("otp:alice@example.com", 5*time.Minute)

	f.users.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound)
	f.users.On("Create", mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.User).ID = 42
	}).Return(nil).Once()

	principal, err := f.svc.VerifySignup(ctx, entity.RoleUser, userInput(), "4821")
	require.NoError(t, err)
	assert.Equal(t, uint(42), principal.PrincipalID())
	assert.Equal(t, entity.RoleUser, principal.PrincipalRole())
	assert.Equal(t, "alice@example.com", principal.PrincipalEmail())

	// The code is consumed by a successful verification.
	assert.False(t, f.mr.Exists("otp:alice@example.com"))
	f.users.AssertExpectations(t)
}

func TestRegistrationService_VerifySignup_CreatesSeller(t *testing.T) {
	f := newRegistrationFixture(t)

	f.mr.Set("otp:bob@store.com", "4821")
	f.mr.SetTTL("otp:bob@store.com", 5*time.Minute)

	f.sellers.On("GetByEmail", "bob@store.com").Return(nil, apperrors.ErrNotFound)
	f.sellers.On("Create", mock.AnythingOfType("*entity.Seller")).Run(func(args mock.Arguments) {
		seller := args.Get(0).(*entity.Seller)
		seller.ID = 7
		assert.Equal(t, "+15550001234", seller.Phone)
		assert.Equal(t, "US", seller.Country)
	}).Return(nil).Once()

	principal, err := f.svc.VerifySignup(context.Background(), entity.RoleSeller, sellerInput(), "4821")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleSeller, principal.PrincipalRole())
	f.sellers.AssertExpectations(t)
}

func TestRegistrationService_VerifySignup_WrongCodeDoesNotCreate(t *testing.T) {
	f := newRegistrationFixture(t)

	f.mr.Set("otp:alice@example.com", "4821")
	f.mr.SetTTL("otp:alice@example.com", 5*time.Minute)

	f.users.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound)

	var invalid *InvalidOTPError
	_, err := f.svc.VerifySignup(context.Background(), entity.RoleUser, userInput(), "0000")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.Remaining)

	f.users.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegistrationService_VerifySignup_ExpiredCode(t *testing.T) {
	f := newRegistrationFixture(t)

	f.users.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.VerifySignup(context.Background(), entity.RoleUser, userInput(), "4821")
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestRegistrationService_RequestPasswordReset_UnknownAccount(t *testing.T) {
	f := newRegistrationFixture(t)

	f.users.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.RequestPasswordReset(context.Background(), entity.RoleUser, "alice@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.email.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationService_PasswordResetFlow(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	user := &entity.User{ID: 42, Name: "Alice", Email: "alice@example.com", Password: bcryptHash(t, "oldpass")}
	f.users.On("GetByEmail", "alice@example.com").Return(user, nil)
	f.email.On("SendOTP", mock.Anything, "alice@example.com", "Alice", mock.Anything, TemplatePasswordReset).
		Return(nil).Once()

	sent, err := f.svc.RequestPasswordReset(ctx, entity.RoleUser, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, sent)

	code, err := f.mr.Get("otp:alice@example.com")
	require.NoError(t, err)

	// The pre-check leaves the code in place for the final update step.
	require.NoError(t, f.svc.VerifyPasswordReset(ctx, "alice@example.com", code))
	assert.True(t, f.mr.Exists("otp:alice@example.com"))

	f.users.On("UpdatePassword", uint(42), "newpass").Return(nil).Once()
	require.NoError(t, f.svc.UpdatePassword(ctx, entity.RoleUser, "alice@example.com", code, "newpass"))

	assert.False(t, f.mr.Exists("otp:alice@example.com"))
	f.users.AssertExpectations(t)
}

func TestRegistrationService_UpdatePassword_RejectsUnchangedPassword(t *testing.T) {
	f := newRegistrationFixture(t)

	user := &entity.User{ID: 42, Name: "Alice", Email: "alice@example.com", Password: bcryptHash(t, "oldpass")}
	f.users.On("GetByEmail", "alice@example.com").Return(user, nil)

	f.mr.Set("otp:alice@example.com", "4821")
	f.mr.SetTTL("otp:alice@example.com", 5*time.Minute)

	err := f.svc.UpdatePassword(context.Background(), entity.RoleUser, "alice@example.com", "4821", "oldpass")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}

func TestRegistrationService_UpdatePassword_SellerRoutesToSellerRepo(t *testing.T) {
	f := newRegistrationFixture(t)

	seller := &entity.Seller{ID: 7, Name: "Bob Store", Email: "bob@store.com", Password: bcryptHash(t, "oldpass")}
	f.sellers.On("GetByEmail", "bob@store.com").Return(seller, nil)
	f.sellers.On("UpdatePassword", uint(7), "newpass").Return(nil).Once()

	f.mr.Set("otp:bob@store.com", "4821")
	f.mr.SetTTL("otp:bob@store.com", 5*time.Minute)

	err := f.svc.UpdatePassword(context.Background(), entity.RoleSeller, "bob@store.com", "4821", "newpass")
	require.NoError(t, err)
	f.sellers.AssertExpectations(t)
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}
