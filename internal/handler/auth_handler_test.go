package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
	"github.com/yourusername/marketplace-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext creates a *gin.Context with an optional JSON body.
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// ============================================================================
// Request validation tests — the handler rejects bad payloads before any
// service is touched, so a bare handler with nil collaborators is enough.
// ============================================================================

func TestSignup_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing name", map[string]string{"email": "a@b.com", "password": "secret123"}},
		{"missing email", map[string]string{"name": "Alice", "password": "secret123"}},
		{"malformed email", map[string]string{"name": "Alice", "email": "not-an-email", "password": "secret123"}},
		{"password too short", map[string]string{"name": "Alice", "email": "a@b.com", "password": "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/signup", tt.body)
			handler.Signup(c)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Equal(t, "validation_failed", resp["error_type"])
		})
	}
}

func TestVerifySignup_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing otp", map[string]string{"name": "Alice", "email": "a@b.com", "password": "secret123"}},
		{"otp too short", map[string]string{"name": "Alice", "email": "a@b.com", "password": "secret123", "otp": "123"}},
		{"otp too long", map[string]string{"name": "Alice", "email": "a@b.com", "password": "secret123", "otp": "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/verify-signup", tt.body)
			handler.VerifySignup(c)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestSellerRegistration_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing phone", map[string]string{"name": "Bob", "email": "b@c.com", "password": "secret123", "country": "US"}},
		{"missing country", map[string]string{"name": "Bob", "email": "b@c.com", "password": "secret123", "phone_number": "+1555"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/seller-registration", tt.body)
			handler.SellerRegistration(c)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestLogin_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing password", map[string]string{"email": "a@b.com"}},
		{"malformed email", map[string]string{"email": "not-an-email", "password": "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/login", tt.body)
			handler.Login(c)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestUpdatePassword_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	c, w := newTestGinContext("POST", "/api/update-password", map[string]string{
		"email": "a@b.com", "password": "secret123",
	})
	handler.UpdatePassword(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ============================================================================
// respondError — status and error_type mapping
// ============================================================================

func TestRespondError_Mapping(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantErrorType string
	}{
		{"otp expired", service.ErrOTPExpired, http.StatusGone, "otp_expired"},
		{"otp locked out", service.ErrOTPLockedOut, http.StatusTooManyRequests, "otp_locked_out"},
		{"account locked", service.ErrOTPAccountLocked, http.StatusTooManyRequests, "otp_account_locked"},
		{"spam lock", service.ErrOTPSpamLock, http.StatusTooManyRequests, "otp_spam_lock"},
		{"cooldown", service.ErrOTPCooldown, http.StatusTooManyRequests, "otp_cooldown"},
		{"rate limited", apperrors.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"validation", apperrors.ErrValidation, http.StatusUnprocessableEntity, "validation_failed"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unknown error", assert.AnError, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/test", nil)
			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Equal(t, tt.wantErrorType, resp["error_type"])
		})
	}
}

func TestRespondError_WrappedSentinelsKeepTheirMapping(t *testing.T) {
	c, w := newTestGinContext("POST", "/test", nil)
	respondError(c, fmt.Errorf("request signup: %w", service.ErrOTPSpamLock))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "otp_spam_lock", resp["error_type"])
}

func TestRespondError_InvalidOTPCarriesRemainingAttempts(t *testing.T) {
	c, w := newTestGinContext("POST", "/test", nil)
	respondError(c, &service.InvalidOTPError{Remaining: 2})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "otp_invalid", resp["error_type"])
	assert.Equal(t, float64(2), resp["attempts_remaining"])
}

// ============================================================================
// Request DTO binding tests
// ============================================================================

func TestSellerSignupRequest_Binding(t *testing.T) {
	body := map[string]string{
		"name":         "Bob Store",
		"email":        "bob@store.com",
		"password":     "secret123",
		"phone_number": "+15550001234",
		"country":      "US",
	}
	c, _ := newTestGinContext("POST", "/api/seller-registration", body)

	var req SellerSignupRequest
	require.NoError(t, c.ShouldBindJSON(&req))
	assert.Equal(t, "Bob Store", req.Name)
	assert.Equal(t, "+15550001234", req.Phone)
	assert.Equal(t, "US", req.Country)
}

func TestVerifySignupRequest_Binding(t *testing.T) {
	body := map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
		"otp":      "4821",
	}
	c, _ := newTestGinContext("POST", "/api/verify-signup", body)

	var req VerifySignupRequest
	require.NoError(t, c.ShouldBindJSON(&req))
	assert.Equal(t, "4821", req.OTP)
	assert.Equal(t, "alice@example.com", req.Email)
}
