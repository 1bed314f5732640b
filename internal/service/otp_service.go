package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strconv"
	"time"

	"github.com/yourusername/marketplace-api/internal/domain/repository"
	apperrors "github.com/yourusername/marketplace-api/internal/pkg/errors"
)

// Key prefixes for OTP state in the cache. All records expire by TTL; the
// service never runs a background sweep.
const (
	otpKeyPrefix         = "otp:"
	otpCooldownKeyPrefix = "otp_cooldown:"
	otpRequestKeyPrefix  = "otp_request:"
	otpSpamLockKeyPrefix = "otp_spam_lock:"
	otpLockKeyPrefix     = "otp_lock:"
	otpFailedKeyPrefix   = "otp_failed_attempt:"
)

const (
	otpTTL            = 5 * time.Minute
	otpCooldownTTL    = 60 * time.Second
	otpRequestWindow  = time.Hour
	otpSpamLockTTL    = time.Hour
	otpAccountLockTTL = 30 * time.Minute
	otpFailedTTL      = 5 * time.Minute

	// Issuance calls allowed inside the rolling hour before the spam lock
	// engages, and wrong submissions allowed before the account lock.
	maxOTPRequests    = 3
	maxFailedAttempts = 3
)

// OTPService issues and verifies one-time passcodes for an email identifier.
// It is stateless; all windows and counters live in the cache with per-key
// atomicity only. Two concurrent issuance calls can both pass the cooldown
// check before either writes it - an accepted race for an anti-abuse gate.
type OTPService struct {
	cache repository.CacheRepository
	email EmailService
}

// NewOTPService creates the service and fails on missing collaborators.
func NewOTPService(cache repository.CacheRepository, email EmailService) (*OTPService, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache repository is required for OTPService")
	}
	if email == nil {
		return nil, fmt.Errorf("email service is required for OTPService")
	}
	return &OTPService{cache: cache, email: email}, nil
}

// CheckIssuanceAllowed fails when an active window blocks issuing a new code
// for this identifier. Priority: account lock, then spam lock, then send
// cooldown. Pure read, no state is mutated.
func (s *OTPService) CheckIssuanceAllowed(ctx context.Context, email string) error {
	present, err := s.keyPresent(ctx, otpLockKeyPrefix+email)
	if err != nil {
		return err
	}
	if present {
		return ErrOTPAccountLocked
	}

	present, err = s.keyPresent(ctx, otpSpamLockKeyPrefix+email)
	if err != nil {
		return err
	}
	if present {
		return ErrOTPSpamLock
	}

	present, err = s.keyPresent(ctx, otpCooldownKeyPrefix+email)
	if err != nil {
		return err
	}
	if present {
		return ErrOTPCooldown
	}

	return nil
}

// TrackRequest counts an issuance call inside the rolling hour. The fourth
// call sets the spam lock and fails, so a locked-out caller never receives a
// fresh code. Must run after CheckIssuanceAllowed and before Issue.
func (s *OTPService) TrackRequest(ctx context.Context, email string) error {
	requests, err := s.readCounter(ctx, otpRequestKeyPrefix+email)
	if err != nil {
		return err
	}

	if requests >= maxOTPRequests {
		if err := s.cache.Set(ctx, otpSpamLockKeyPrefix+email, "true", otpSpamLockTTL); err != nil {
			return err
		}
		log.Printf("[OTPService] Spam lock engaged for email=%s after %d requests", email, requests)
		return ErrOTPSpamLock
	}

	return s.cache.Set(ctx, otpRequestKeyPrefix+email, strconv.Itoa(requests+1), otpRequestWindow)
}

// Issue generates a fresh 4-digit code, emails it and stores it with a 300s
// TTL plus a 60s send cooldown. A mail dispatch failure is deliberately
// non-fatal: the code is stored anyway and sent=false tells the caller the
// notification did not go out.
func (s *OTPService) Issue(ctx context.Context, email, name string, template EmailTemplate) (sent bool, err error) {
	code, err := generateOTPCode()
	if err != nil {
		return false, fmt.Errorf("failed to generate otp: %w", err)
	}

	sent = true
	if err := s.email.SendOTP(ctx, email, name, code, template); err != nil {
		// Never log the code itself.
		log.Printf("[OTPService] Failed to send OTP email template=%s to=%s: %v", template, email, err)
		sent = false
	}

	if err := s.cache.Set(ctx, otpKeyPrefix+email, code, otpTTL); err != nil {
		return sent, fmt.Errorf("failed to store otp: %w", err)
	}
	if err := s.cache.Set(ctx, otpCooldownKeyPrefix+email, "true", otpCooldownTTL); err != nil {
		return sent, fmt.Errorf("failed to store otp cooldown: %w", err)
	}

	return sent, nil
}

// Verify checks a submitted code against the outstanding one. A correct code
// is consumed on first use; submitting it again fails with ErrOTPExpired.
// The third wrong submission engages the 30-minute account lock and discards
// the outstanding code.
func (s *OTPService) Verify(ctx context.Context, email, submitted string) error {
	return s.verify(ctx, email, submitted, true)
}

// Check validates a code without consuming it. Wrong submissions still count
// toward the account lock. The password-reset flow pre-checks the code here
// and consumes it only on the final update step.
func (s *OTPService) Check(ctx context.Context, email, submitted string) error {
	return s.verify(ctx, email, submitted, false)
}

func (s *OTPService) verify(ctx context.Context, email, submitted string, consume bool) error {
	stored, err := s.cache.Get(ctx, otpKeyPrefix+email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrOTPExpired
		}
		return err
	}

	failed, err := s.readCounter(ctx, otpFailedKeyPrefix+email)
	if err != nil {
		return err
	}

	if submitted != stored {
		if failed >= maxFailedAttempts-1 {
			if err := s.cache.Set(ctx, otpLockKeyPrefix+email, "true", otpAccountLockTTL); err != nil {
				return err
			}
			if err := s.cache.Delete(ctx, otpKeyPrefix+email, otpFailedKeyPrefix+email); err != nil {
				return err
			}
			log.Printf("[OTPService] Account lock engaged for email=%s after %d failed attempts", email, failed+1)
			return ErrOTPLockedOut
		}

		if err := s.cache.Set(ctx, otpFailedKeyPrefix+email, strconv.Itoa(failed+1), otpFailedTTL); err != nil {
			return err
		}
		return &InvalidOTPError{Remaining: maxFailedAttempts - failed - 1}
	}

	if !consume {
		return nil
	}
	return s.cache.Delete(ctx, otpKeyPrefix+email, otpFailedKeyPrefix+email)
}

func (s *OTPService) keyPresent(ctx context.Context, key string) (bool, error) {
	_, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *OTPService) readCounter(ctx context.Context, key string) (int, error) {
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		// A corrupt counter resets the window rather than failing the flow.
		log.Printf("[OTPService] Corrupt counter at key=%s: %v", key, err)
		return 0, nil
	}
	return count, nil
}

// generateOTPCode draws a uniform 4-digit code in [1000, 9999] from
// crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
