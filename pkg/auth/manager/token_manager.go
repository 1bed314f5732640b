package manager

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
	"github.com/yourusername/marketplace-api/pkg/auth"
)

// Cookie names are role-scoped so a shared browser session can hold a user
// and a seller login side by side without one clobbering the other.
const (
	UserAccessCookie    = "access_token"
	UserRefreshCookie   = "refresh_token"
	SellerAccessCookie  = "seller_access_token"
	SellerRefreshCookie = "seller_refresh_token"
)

// PrincipalResolver resolves an account by id and role. Satisfied by
// service.AuthService.
type PrincipalResolver interface {
	GetPrincipal(role entity.Role, id uint) (entity.Principal, error)
}

// TokenResponse carries a freshly minted token set.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	PrincipalID  uint        `json:"principal_id"`
	Role         entity.Role `json:"role"`
	RefreshToken string      `json:"-"` // delivered via http-only cookie only
}

// TokenManager mints and delivers paired access/refresh tokens. Tokens are
// stateless: validity is signature plus expiry, nothing is stored server
// side, and pairs die by expiry or explicit client-side clearing.
type TokenManager struct {
	jwtService *auth.JWTService
	resolver   PrincipalResolver

	cookiePath     string
	cookieDomain   string
	cookieSecure   bool
	cookieSameSite http.SameSite
}

// NewTokenManager creates the manager and fails on missing collaborators.
func NewTokenManager(jwtService *auth.JWTService, resolver PrincipalResolver) (*TokenManager, error) {
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for TokenManager")
	}
	if resolver == nil {
		return nil, fmt.Errorf("PrincipalResolver is required for TokenManager")
	}
	return &TokenManager{
		jwtService:     jwtService,
		resolver:       resolver,
		cookiePath:     "/",
		cookieSecure:   true,
		cookieSameSite: http.SameSiteLaxMode,
	}, nil
}

// SetCookieAttributes overrides the cookie scope, for local development
// without HTTPS.
func (m *TokenManager) SetCookieAttributes(path, domain string, secure bool, sameSite http.SameSite) {
	if path != "" {
		m.cookiePath = path
	}
	m.cookieDomain = domain
	m.cookieSecure = secure
	m.cookieSameSite = sameSite
}

// GeneratePair mints an access/refresh pair for the principal. Both tokens
// carry the same {id, role} claims.
func (m *TokenManager) GeneratePair(principal entity.Principal) (*TokenResponse, error) {
	id, role := principal.PrincipalID(), principal.PrincipalRole()

	accessToken, err := m.jwtService.GenerateAccessToken(id, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := m.jwtService.GenerateRefreshToken(id, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(m.jwtService.AccessTokenTTL().Seconds()),
		PrincipalID:  id,
		Role:         role,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh verifies a refresh token and mints a fresh access token for the
// same {id, role}. The refresh token itself is never rotated on this path.
// A principal that no longer exists yields apperrors.ErrForbidden.
func (m *TokenManager) Refresh(refreshToken string) (*TokenResponse, error) {
	claims, err := m.jwtService.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	principal, err := m.resolver.GetPrincipal(claims.Role, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[TokenManager] Refresh for missing %s ID=%d", claims.Role, claims.UserID)
			return nil, fmt.Errorf("%w: account not found", apperrors.ErrForbidden)
		}
		return nil, err
	}

	accessToken, err := m.jwtService.GenerateAccessToken(principal.PrincipalID(), principal.PrincipalRole())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(m.jwtService.AccessTokenTTL().Seconds()),
		PrincipalID: principal.PrincipalID(),
		Role:        principal.PrincipalRole(),
	}, nil
}

// AccessCookieName returns the access cookie name for a role.
func AccessCookieName(role entity.Role) string {
	if role == entity.RoleSeller {
		return SellerAccessCookie
	}
	return UserAccessCookie
}

// RefreshCookieName returns the refresh cookie name for a role.
func RefreshCookieName(role entity.Role) string {
	if role == entity.RoleSeller {
		return SellerRefreshCookie
	}
	return UserRefreshCookie
}

// SetAuthCookies delivers a token pair via http-only cookies scoped to the
// role, and clears any stale cookies of the other role so a shared browser
// session never mixes the two.
func (m *TokenManager) SetAuthCookies(w http.ResponseWriter, resp *TokenResponse) {
	m.setCookie(w, AccessCookieName(resp.Role), resp.AccessToken, int(m.jwtService.AccessTokenTTL().Seconds()))
	m.setCookie(w, RefreshCookieName(resp.Role), resp.RefreshToken, int(m.jwtService.RefreshTokenTTL().Seconds()))

	other := entity.RoleSeller
	if resp.Role == entity.RoleSeller {
		other = entity.RoleUser
	}
	m.clearCookie(w, AccessCookieName(other))
	m.clearCookie(w, RefreshCookieName(other))
}

// SetAccessCookie re-delivers just the access token, for the refresh path.
func (m *TokenManager) SetAccessCookie(w http.ResponseWriter, role entity.Role, accessToken string) {
	m.setCookie(w, AccessCookieName(role), accessToken, int(m.jwtService.AccessTokenTTL().Seconds()))
}

// ClearAuthCookies expires both cookies of the role, for logout.
func (m *TokenManager) ClearAuthCookies(w http.ResponseWriter, role entity.Role) {
	m.clearCookie(w, AccessCookieName(role))
	m.clearCookie(w, RefreshCookieName(role))
}

// GetAccessToken extracts the bearer token for a role: the role-scoped
// cookie first, then the Authorization header.
func (m *TokenManager) GetAccessToken(r *http.Request, role entity.Role) (string, error) {
	return m.extract(r, AccessCookieName(role))
}

// GetRefreshToken extracts the refresh token for a role: the role-scoped
// cookie first, then the Authorization header as fallback.
func (m *TokenManager) GetRefreshToken(r *http.Request, role entity.Role) (string, error) {
	return m.extract(r, RefreshCookieName(role))
}

func (m *TokenManager) extract(r *http.Request, cookieName string) (string, error) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: token missing", apperrors.ErrUnauthorized)
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("%w: authorization header format must be Bearer {token}", apperrors.ErrUnauthorized)
	}
	return parts[1], nil
}

func (m *TokenManager) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.cookiePath,
		Domain:   m.cookieDomain,
		MaxAge:   maxAge,
		Secure:   m.cookieSecure,
		HttpOnly: true,
		SameSite: m.cookieSameSite,
	})
}

func (m *TokenManager) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.cookiePath,
		Domain:   m.cookieDomain,
		MaxAge:   -1,
		Secure:   m.cookieSecure,
		HttpOnly: true,
		SameSite: m.cookieSameSite,
	})
}
