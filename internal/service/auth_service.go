package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"exchangedesk/internal/auth"
	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

// MFAConfig controls second-factor secret resolution.
type MFAConfig struct {
	// SharedSecret is used for users that have not enrolled their own secret.
	SharedSecret string
	AllowShared  bool
	PendingTTL   time.Duration
}

// Enrollment is the result of rotating a user's own TOTP secret.
type Enrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"otpauthUrl"`
}

// AuthService runs the two-step login flow.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	VerifyMFA(ctx context.Context, email, code string) (string, error)
	Logout(ctx context.Context, token string) error
	EnrollMFA(ctx context.Context, email string) (*Enrollment, error)
}

type authService struct {
	store       DocumentStore
	credentials CredentialService
	sessions    SessionService
	totp        *auth.TOTPService
	pending     auth.PendingStore
	mfa         MFAConfig
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store DocumentStore,
	credentials CredentialService,
	sessions SessionService,
	totp *auth.TOTPService,
	pending auth.PendingStore,
	mfa MFAConfig,
	logger *zap.Logger,
) AuthService {
	if mfa.PendingTTL <= 0 {
		mfa.PendingTTL = 5 * time.Minute
	}
	return &authService{
		store:       store,
		credentials: credentials,
		sessions:    sessions,
		totp:        totp,
		pending:     pending,
		mfa:         mfa,
		logger:      logger,
	}
}

// Login checks the password and moves email into the pending second-factor
// state. It returns the normalized email and never issues a token.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if !s.credentials.Verify(ctx, email, password) {
		s.logger.Warn("password rejected", zap.String("email", email))
		return "", apperrors.ErrInvalidCredentials
	}
	if err := s.pending.MarkPending(ctx, email, s.mfa.PendingTTL); err != nil {
		s.logger.Error("mark pending second factor", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("mark pending second factor: %w", err)
	}
	return email, nil
}

// VerifyMFA checks code for a pending email and opens a session.
// A pending marker is single use: a rejected code requires a new password login.
func (s *authService) VerifyMFA(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)
	if !auth.ValidCodeFormat(code) {
		return "", auth.ErrInvalidFormat
	}

	pending, err := s.pending.ConsumePending(ctx, email)
	if err != nil {
		s.logger.Error("read pending second factor", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("read pending second factor: %w", err)
	}
	if !pending {
		s.logger.Warn("code submitted without password step", zap.String("email", email))
		return "", apperrors.ErrInvalidCredentials
	}

	secret, ok := s.secretFor(s.store.Get().FindUser(email))
	if !ok {
		return "", apperrors.ErrInvalidCredentials
	}
	if err := s.totp.Verify(secret, code); err != nil {
		s.logger.Warn("one-time code rejected", zap.String("email", email))
		return "", err
	}

	token, err := s.sessions.IssueToken(email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.sessions.CreateSession(ctx, email, token); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", err
	}
	s.logger.Info("session opened", zap.String("email", email))
	return token, nil
}

func (s *authService) secretFor(user *model.User) (string, bool) {
	if user == nil {
		return "", false
	}
	if user.MFASecret != "" {
		return user.MFASecret, true
	}
	if s.mfa.AllowShared && s.mfa.SharedSecret != "" {
		return s.mfa.SharedSecret, true
	}
	return "", false
}

// Logout revokes token. Missing or unknown tokens succeed.
func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// EnrollMFA rotates the TOTP secret of email and returns it once.
func (s *authService) EnrollMFA(ctx context.Context, email string) (*Enrollment, error) {
	email = normalizeEmail(email)
	key, err := s.totp.GenerateSecret(email)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(doc *model.Document) error {
		user := doc.FindUser(email)
		if user == nil {
			return ErrUserNotFound
		}
		user.MFASecret = key.Secret()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("second factor enrolled", zap.String("email", email))
	return &Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}
