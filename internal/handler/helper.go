package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
	"github.com/yourusername/marketplace-api/internal/service"
)

// respondError maps service errors to HTTP statuses. Status mapping is a
// presentation concern; the services only speak the sentinel taxonomy.
func respondError(c *gin.Context, err error) {
	var invalidOTP *service.InvalidOTPError
	if errors.As(err, &invalidOTP) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":              "Incorrect OTP",
			"error_type":         "otp_invalid",
			"attempts_remaining": invalidOTP.Remaining,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrOTPExpired):
		c.JSON(http.StatusGone, gin.H{"error": "OTP is invalid or has expired", "error_type": "otp_expired"})
	case errors.Is(err, service.ErrOTPLockedOut):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts, account locked for 30 minutes", "error_type": "otp_locked_out"})
	case errors.Is(err, service.ErrOTPAccountLocked):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many OTP requests, please try again after 30 minutes", "error_type": "otp_account_locked"})
	case errors.Is(err, service.ErrOTPSpamLock):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many OTP requests, please try again after an hour", "error_type": "otp_spam_lock"})
	case errors.Is(err, service.ErrOTPCooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Please wait 60 seconds before requesting another OTP", "error_type": "otp_cooldown"})
	case errors.Is(err, apperrors.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests", "error_type": "rate_limited"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation_failed"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "error_type": "forbidden"})
	default:
		log.Printf("[Handler] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_error"})
	}
}

// respondValidation reports a request-binding failure.
func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation_failed"})
}
