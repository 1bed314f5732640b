package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	"github.com/yourusername/marketplace-api/internal/middleware"
	"github.com/yourusername/marketplace-api/internal/service"
	"github.com/yourusername/marketplace-api/pkg/auth/manager"
)

// AuthHandler exposes the registration, login and token lifecycle endpoints
// for both principal kinds.
type AuthHandler struct {
	registration *service.RegistrationService
	authService  *service.AuthService
	tokenManager *manager.TokenManager
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(
	registration *service.RegistrationService,
	authService *service.AuthService,
	tokenManager *manager.TokenManager,
) *AuthHandler {
	return &AuthHandler{
		registration: registration,
		authService:  authService,
		tokenManager: tokenManager,
	}
}

// Request payloads.

// SignupRequest starts a user registration.
type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
}

// VerifySignupRequest completes a user registration with the emailed code.
type VerifySignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	OTP      string `json:"otp" binding:"required,len=4"`
}

// SellerSignupRequest starts a seller registration.
type SellerSignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	Phone    string `json:"phone_number" binding:"required,max=20"`
	Country  string `json:"country" binding:"required,max=60"`
}

// VerifySellerRequest completes a seller registration with the emailed code.
type VerifySellerRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	Phone    string `json:"phone_number" binding:"required,max=20"`
	Country  string `json:"country" binding:"required,max=60"`
	OTP      string `json:"otp" binding:"required,len=4"`
}

// LoginRequest authenticates with credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest starts the OTP-gated password reset.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyResetRequest pre-checks a reset code.
type VerifyResetRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=4"`
}

// UpdatePasswordRequest finishes the reset with the code and new password.
type UpdatePasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	OTP      string `json:"otp" binding:"required,len=4"`
}

// RegisterRoutes wires the auth endpoints onto the router group.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authMW *middleware.AuthMiddleware, rl *middleware.RateLimiter) {
	strict := rl.Limit(middleware.StrictAuthRateLimitConfig())
	baseline := rl.Limit(middleware.DefaultAuthRateLimitConfig())

	rg.POST("/signup", strict, h.Signup)
	rg.POST("/verify-signup", baseline, h.VerifySignup)
	rg.POST("/login", strict, h.Login)
	rg.POST("/refresh-token", baseline, h.RefreshToken)
	rg.POST("/logout", h.Logout)
	rg.POST("/reset-password", strict, h.ResetPassword)
	rg.POST("/verify-reset-password", baseline, h.VerifyResetPassword)
	rg.POST("/update-password", baseline, h.UpdatePassword)
	rg.POST("/seller-registration", strict, h.SellerRegistration)
	rg.POST("/verify-seller", baseline, h.VerifySeller)
	rg.POST("/login-seller", strict, h.LoginSeller)

	rg.GET("/logged-in-user",
		authMW.RequireAuth(entity.RoleUser), authMW.RequireRole(entity.RoleUser), h.LoggedInPrincipal)
	rg.GET("/logged-in-seller",
		authMW.RequireAuth(entity.RoleSeller), authMW.RequireRole(entity.RoleSeller), h.LoggedInPrincipal)
}

// Signup starts a user registration by dispatching an OTP.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	sent, err := h.registration.RequestSignup(c.Request.Context(), entity.RoleUser, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email", "email_sent": sent})
}

// VerifySignup completes a user registration.
func (h *AuthHandler) VerifySignup(c *gin.Context) {
	var req VerifySignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	principal, err := h.registration.VerifySignup(c.Request.Context(), entity.RoleUser, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": principal})
}

// SellerRegistration starts a seller registration by dispatching an OTP.
func (h *AuthHandler) SellerRegistration(c *gin.Context) {
	var req SellerSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	sent, err := h.registration.RequestSignup(c.Request.Context(), entity.RoleSeller, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Country:  req.Country,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email", "email_sent": sent})
}

// VerifySeller completes a seller registration.
func (h *AuthHandler) VerifySeller(c *gin.Context) {
	var req VerifySellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	principal, err := h.registration.VerifySignup(c.Request.Context(), entity.RoleSeller, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Country:  req.Country,
	}, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Seller created successfully", "seller": principal})
}

// Login authenticates a user and delivers a cookie token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, entity.RoleUser)
}

// LoginSeller authenticates a seller and delivers a cookie token pair.
func (h *AuthHandler) LoginSeller(c *gin.Context) {
	h.login(c, entity.RoleSeller)
}

func (h *AuthHandler) login(c *gin.Context, role entity.Role) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	principal, err := h.authService.Login(role, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.tokenManager.GeneratePair(principal)
	if err != nil {
		respondError(c, err)
		return
	}
	h.tokenManager.SetAuthCookies(c.Writer, resp)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		string(role): gin.H{
			"id":    principal.PrincipalID(),
			"email": principal.PrincipalEmail(),
		},
	})
}

// RefreshToken mints a fresh access token from the refresh cookie. The
// refresh token itself is never rotated here, and the role is taken from its
// signed claim only.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := h.tokenManager.GetRefreshToken(c.Request, entity.RoleUser)
	if err != nil {
		if token, err = h.tokenManager.GetRefreshToken(c.Request, entity.RoleSeller); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			return
		}
	}

	resp, err := h.tokenManager.Refresh(token)
	if err != nil {
		respondError(c, err)
		return
	}
	h.tokenManager.SetAccessCookie(c.Writer, resp.Role, resp.AccessToken)

	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed", "expires_in": resp.ExpiresIn})
}

// Logout clears the auth cookies of both roles.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.tokenManager.ClearAuthCookies(c.Writer, entity.RoleUser)
	h.tokenManager.ClearAuthCookies(c.Writer, entity.RoleSeller)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ResetPassword starts the OTP-gated password reset for a user.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	sent, err := h.registration.RequestPasswordReset(c.Request.Context(), entity.RoleUser, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to the registered email", "email_sent": sent})
}

// VerifyResetPassword pre-checks a reset code without consuming it.
func (h *AuthHandler) VerifyResetPassword(c *gin.Context) {
	var req VerifyResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.registration.VerifyPasswordReset(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP verified, you can now reset your password"})
}

// UpdatePassword consumes the reset code and stores the new password.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	err := h.registration.UpdatePassword(c.Request.Context(), entity.RoleUser, req.Email, req.OTP, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been updated"})
}

// LoggedInPrincipal returns the account resolved by the auth gate.
func (h *AuthHandler) LoggedInPrincipal(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":                  principal.PrincipalRole(),
		principal.PrincipalRole().String(): principal,
	})
}
