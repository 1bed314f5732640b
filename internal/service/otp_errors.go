package service

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
)

// OTP flow specific errors used by handlers for stable error_type mapping.
// The three window errors wrap apperrors.ErrRateLimited so generic handlers
// can map all of them to 429 without knowing the sub-reason.
var (
	// ErrOTPCooldown: a code was sent less than 60 seconds ago.
	ErrOTPCooldown = fmt.Errorf("%w: otp_cooldown", apperrors.ErrRateLimited)

	// ErrOTPSpamLock: too many issuance requests inside the rolling hour.
	ErrOTPSpamLock = fmt.Errorf("%w: otp_spam_lock", apperrors.ErrRateLimited)

	// ErrOTPAccountLocked: issuance blocked by an active account lock.
	ErrOTPAccountLocked = fmt.Errorf("%w: otp_account_locked", apperrors.ErrRateLimited)

	// ErrOTPLockedOut: the third wrong code submission just triggered the
	// account lock.
	ErrOTPLockedOut = fmt.Errorf("%w: otp_locked_out", apperrors.ErrRateLimited)

	// ErrOTPExpired: no outstanding code for this identifier. Also returned
	// when a code has already been consumed.
	ErrOTPExpired = errors.New("otp_expired")
)

// InvalidOTPError reports a wrong code submission together with the number
// of attempts left before the account lock engages.
type InvalidOTPError struct {
	Remaining int
}

func (e *InvalidOTPError) Error() string {
	return fmt.Sprintf("invalid otp, %d attempts left", e.Remaining)
}
