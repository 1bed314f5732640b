package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// EmailTemplate selects the outbound message for an OTP dispatch.
type EmailTemplate string

const (
	TemplateUserActivation   EmailTemplate = "user-activation-mail"
	TemplateSellerActivation EmailTemplate = "seller-activation-mail"
	TemplatePasswordReset    EmailTemplate = "password-reset-mail"
)

// EmailService sends transactional emails.
type EmailService interface {
	SendOTP(ctx context.Context, toEmail, name, code string, template EmailTemplate) error
}

// NoopEmailService is used in development when no mail provider is configured.
type NoopEmailService struct{}

func (s *NoopEmailService) SendOTP(ctx context.Context, toEmail, name, code string, template EmailTemplate) error {
	log.Printf("[EmailService] noop send template=%s to=%s", template, toEmail)
	return nil
}

// ResendEmailService sends emails via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendOTP(ctx context.Context, toEmail, name, code string, template EmailTemplate) error {
	if toEmail == "" || code == "" {
		return fmt.Errorf("toEmail and code are required")
	}

	subject, text, html := renderOTPTemplate(template, name, code)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: subject,
		Text:    text,
		Html:    html,
	}

	options := &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("otp/%s", uuid.NewString()),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func renderOTPTemplate(template EmailTemplate, name, code string) (subject, text, html string) {
	greeting := "Hello"
	if strings.TrimSpace(name) != "" {
		greeting = "Hello " + strings.TrimSpace(name)
	}

	switch template {
	case TemplateSellerActivation:
		subject = "Verify your seller account"
		text = fmt.Sprintf("%s, your seller verification code is %s. It expires in 5 minutes.", greeting, code)
	case TemplatePasswordReset:
		subject = "Reset your password"
		text = fmt.Sprintf("%s, your password reset code is %s. It expires in 5 minutes.", greeting, code)
	default:
		subject = "Verify your email"
		text = fmt.Sprintf("%s, your verification code is %s. It expires in 5 minutes.", greeting, code)
	}

	html = fmt.Sprintf("<p>%s,</p><p>Your one-time code is <strong>%s</strong>.</p><p>It expires in 5 minutes.</p>", greeting, code)
	return subject, text, html
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
