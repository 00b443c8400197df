package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"exchangedesk/internal/auth"
	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

const minPasswordLength = 6

// CredentialService verifies and manages admin passwords.
type CredentialService interface {
	Hash(password string) (string, error)
	Verify(ctx context.Context, email, password string) bool
	BootstrapDefaults(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) error
}

type credentialService struct {
	store    DocumentStore
	defaults map[string]string
	logger   *zap.Logger
}

// NewCredentialService creates a credential service. defaults maps lowercase seed
// emails to the password hashed for them while their hash is still empty.
func NewCredentialService(store DocumentStore, defaults map[string]string, logger *zap.Logger) CredentialService {
	normalized := make(map[string]string, len(defaults))
	for email, password := range defaults {
		normalized[normalizeEmail(email)] = password
	}
	return &credentialService{
		store:    store,
		defaults: normalized,
		logger:   logger,
	}
}

func (s *credentialService) Hash(password string) (string, error) {
	return auth.HashPassword(password)
}

// Verify reports whether password belongs to email. Unknown users and users
// without a hash both yield false.
func (s *credentialService) Verify(_ context.Context, email, password string) bool {
	user := s.store.Get().FindUser(normalizeEmail(email))
	if user == nil {
		return false
	}
	return auth.CheckPassword(user.PasswordHash, password)
}

// BootstrapDefaults hashes the configured default password of every user that has
// none yet and returns how many were set. Nothing is written when nothing changed.
func (s *credentialService) BootstrapDefaults(ctx context.Context) (int, error) {
	hashes := make(map[string]string)
	for _, user := range s.store.Get().Users {
		if user.PasswordHash != "" {
			continue
		}
		password, ok := s.defaults[normalizeEmail(user.Email)]
		if !ok {
			s.logger.Warn("user has no password and no default configured", zap.String("email", user.Email))
			continue
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return 0, err
		}
		hashes[normalizeEmail(user.Email)] = hash
	}
	if len(hashes) == 0 {
		return 0, nil
	}

	changed := 0
	err := s.store.Update(ctx, func(doc *model.Document) error {
		changed = 0
		for email, hash := range hashes {
			if user := doc.FindUser(email); user != nil && user.PasswordHash == "" {
				user.PasswordHash = hash
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bootstrap passwords: %w", err)
	}
	s.logger.Info("bootstrapped default passwords", zap.Int("count", changed))
	return changed, nil
}

// UpdatePassword replaces the password of email after re-checking the current one.
func (s *credentialService) UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.Invalid("newPassword", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if !s.Verify(ctx, email, currentPassword) {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, func(doc *model.Document) error {
		user := doc.FindUser(normalizeEmail(email))
		if user == nil {
			return fmt.Errorf("user %s: %w", email, apperrors.ErrNotFound)
		}
		user.PasswordHash = hash
		return nil
	})
}
