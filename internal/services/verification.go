package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

const (
	DefaultOTPTTL = 5 * time.Minute

	// MaxOTPAttempts bounds verifications per issued code; the code is
	// burned once the limit is passed.
	MaxOTPAttempts = 5

	otpDigits         = 6
	otpKeyPrefix      = "otp:mobile:"
	otpAttemptsPrefix = "otp:attempts:"
)

// VerificationService issues and checks one-time codes for mobile numbers.
type VerificationService struct {
	store  domain.OTPStore
	sender domain.OTPSender
	ttl    time.Duration
	log    logger.Logger
}

func NewVerificationService(store domain.OTPStore, sender domain.OTPSender, ttl time.Duration, log logger.Logger) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &VerificationService{store: store, sender: sender, ttl: ttl, log: log}
}

// SendOTP generates a fresh code for mobile, replacing any earlier one.
func (s *VerificationService) SendOTP(ctx context.Context, mobile string) error {
	mobile = normalizeMobile(mobile)
	if mobile == "" {
		return fmt.Errorf("mobile number is required: %w", domain.ErrBadRequest)
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.store.Put(ctx, otpKeyPrefix+mobile, code, s.ttl); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if err := s.store.Delete(ctx, otpAttemptsPrefix+mobile); err != nil {
		return fmt.Errorf("reset otp attempts: %w", err)
	}
	if err := s.sender.SendOTP(ctx, mobile, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// VerifyOTP reports whether code matches the live code for mobile. A match
// consumes the code, and more than MaxOTPAttempts tries burn it.
func (s *VerificationService) VerifyOTP(ctx context.Context, mobile, code string) (bool, error) {
	mobile = normalizeMobile(mobile)
	key := otpKeyPrefix + mobile
	attemptsKey := otpAttemptsPrefix + mobile

	attempts, err := s.store.Incr(ctx, attemptsKey, s.ttl)
	if err != nil {
		return false, fmt.Errorf("count otp attempt: %w", err)
	}
	if attempts > MaxOTPAttempts {
		if err := s.store.Delete(ctx, key); err != nil {
			return false, fmt.Errorf("burn otp: %w", err)
		}
		s.log.Warn("Too many otp attempts", "mobile", MaskMobile(mobile), "attempts", attempts)
		return false, nil
	}

	ok, err := s.store.Take(ctx, key, strings.TrimSpace(code))
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := s.store.Delete(ctx, attemptsKey); err != nil {
		s.log.Warn("Failed to reset otp attempts", "mobile", MaskMobile(mobile), "error", err)
	}
	return true, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func normalizeMobile(mobile string) string {
	return strings.ReplaceAll(strings.TrimSpace(mobile), " ", "")
}

// MaskMobile hides all but the last three digits.
func MaskMobile(mobile string) string {
	if len(mobile) <= 3 {
		return strings.Repeat("*", len(mobile))
	}
	return strings.Repeat("*", len(mobile)-3) + mobile[len(mobile)-3:]
}

// LogOTPSender stands in for an SMS gateway. It never logs the code itself.
type LogOTPSender struct {
	log logger.Logger
}

func NewLogOTPSender(log logger.Logger) *LogOTPSender {
	return &LogOTPSender{log: log}
}

func (s *LogOTPSender) SendOTP(_ context.Context, mobile, _ string) error {
	s.log.Info("OTP issued", "mobile", MaskMobile(mobile))
	return nil
}
