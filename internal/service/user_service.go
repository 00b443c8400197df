package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

// UserService manages admin accounts.
type UserService interface {
	ListUsers(ctx context.Context) []model.UserView
	CreateUser(ctx context.Context, email, password string) (*model.UserView, error)
	DeleteUser(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error
}

type userService struct {
	store       DocumentStore
	credentials CredentialService
	now         func() time.Time
	logger      *zap.Logger
}

// NewUserService builds a UserService on top of the store and credentials.
func NewUserService(store DocumentStore, credentials CredentialService, logger *zap.Logger) UserService {
	return &userService{
		store:       store,
		credentials: credentials,
		now:         time.Now,
		logger:      logger,
	}
}

// ListUsers returns every user without password hashes or TOTP secrets.
func (s *userService) ListUsers(_ context.Context) []model.UserView {
	users := s.store.Get().Users
	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views
}

func (s *userService) CreateUser(ctx context.Context, email, password string) (*model.UserView, error) {
	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperrors.Invalid("email", "must be a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.Invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := s.credentials.Hash(password)
	if err != nil {
		return nil, err
	}
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	err = s.store.Update(ctx, func(doc *model.Document) error {
		if doc.FindUser(email) != nil {
			return fmt.Errorf("user %s: %w", email, apperrors.ErrConflict)
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("email", email))
	view := user.View()
	return &view, nil
}

// DeleteUser removes the user and every session it owns in one write.
func (s *userService) DeleteUser(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	err := s.store.Update(ctx, func(doc *model.Document) error {
		user := doc.FindUser(email)
		if user == nil {
			return fmt.Errorf("user %s: %w", email, apperrors.ErrNotFound)
		}
		userID := user.ID

		users := doc.Users[:0]
		for _, u := range doc.Users {
			if u.ID != userID {
				users = append(users, u)
			}
		}
		doc.Users = users

		sessions := doc.Sessions[:0]
		for _, session := range doc.Sessions {
			if session.UserID != userID {
				sessions = append(sessions, session)
			}
		}
		doc.Sessions = sessions
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("email", email))
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	return s.credentials.UpdatePassword(ctx, email, currentPassword, newPassword)
}
