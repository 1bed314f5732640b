package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
)

// Default token lifetimes. Access tokens authorize individual requests;
// refresh tokens exist solely to mint new access tokens.
const (
	DefaultAccessTokenLifetime  = 15 * time.Minute
	DefaultRefreshTokenLifetime = 7 * 24 * time.Hour
)

// Claims is the signed payload of both token kinds. Role is immutable for a
// token pair: a refresh token minted for one role can never produce an
// access token for the other.
type Claims struct {
	UserID uint        `json:"id"`
	Role   entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies access/refresh tokens with HS256 and two
// independent secrets. Verification is local CPU-bound work, no I/O.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWTService creates the service. Lifetimes of zero fall back to the
// defaults (15m access, 7d refresh).
func NewJWTService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*JWTService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("access and refresh token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenLifetime
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenLifetime
	}
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// GenerateAccessToken mints a short-lived access token for the principal.
func (s *JWTService) GenerateAccessToken(id uint, role entity.Role) (string, error) {
	return s.generate(id, role, s.accessSecret, s.accessTTL)
}

// GenerateRefreshToken mints a long-lived refresh token for the principal.
func (s *JWTService) GenerateRefreshToken(id uint, role entity.Role) (string, error) {
	return s.generate(id, role, s.refreshSecret, s.refreshTTL)
}

// ParseAccessToken verifies signature and expiry of an access token. Every
// failure mode (expired, malformed, bad signature, wrong algorithm) collapses
// to apperrors.ErrUnauthorized; callers are not told which one it was.
func (s *JWTService) ParseAccessToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString, s.accessSecret)
}

// ParseRefreshToken verifies signature and expiry of a refresh token.
func (s *JWTService) ParseRefreshToken(tokenString string) (*Claims, error) {
	return s.parse(tokenString, s.refreshSecret)
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *JWTService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

func (s *JWTService) generate(id uint, role entity.Role, secret []byte, ttl time.Duration) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("cannot mint token for unknown role %q", role)
	}

	now := time.Now()
	claims := &Claims{
		UserID: id,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", apperrors.ErrUnauthorized)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid or expired token", apperrors.ErrUnauthorized)
	}
	return claims, nil
}
