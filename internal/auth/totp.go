package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	apperrors "exchangedesk/internal/errors"
)

const (
	// TOTPPeriod is the RFC 6238 time step.
	TOTPPeriod = 30
	// TOTPSkew is how many steps before and after the current one are accepted.
	TOTPSkew = 2
)

var (
	// ErrInvalidFormat is returned when a code is not exactly six ASCII digits.
	ErrInvalidFormat = apperrors.ErrInvalidFormat
	// ErrInvalidCode is returned when a well-formed code does not match.
	ErrInvalidCode = fmt.Errorf("%w: one-time code rejected", apperrors.ErrInvalidCredentials)
)

// TOTPService verifies and enrolls time-based one-time passwords.
type TOTPService struct {
	issuer string
	now    func() time.Time
}

// NewTOTPService creates a TOTP service that labels enrolled keys with issuer.
func NewTOTPService(issuer string) *TOTPService {
	return &TOTPService{issuer: issuer, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *TOTPService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TOTPService) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    TOTPPeriod,
		Skew:      TOTPSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Verify checks code against the base32 secret at the current time.
func (s *TOTPService) Verify(secret, code string) error {
	if !ValidCodeFormat(code) {
		return ErrInvalidFormat
	}
	ok, err := totp.ValidateCustom(code, NormalizeSecret(secret), s.now().UTC(), s.opts())
	if err != nil || !ok {
		return ErrInvalidCode
	}
	return nil
}

// Code returns the code valid for secret at t.
func (s *TOTPService) Code(secret string, t time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(NormalizeSecret(secret), t.UTC(), s.opts())
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return code, nil
}

// GenerateSecret creates a fresh per-user key for account.
func (s *TOTPService) GenerateSecret(account string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: account,
		Period:      TOTPPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}
	return key, nil
}

// NormalizeSecret upper-cases a base32 secret and drops whitespace.
func NormalizeSecret(secret string) string {
	return strings.ToUpper(strings.Join(strings.Fields(secret), ""))
}

// ValidCodeFormat reports whether code is exactly six ASCII digits.
func ValidCodeFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
