package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"exchangedesk/internal/auth"
	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

// ErrUserNotFound is returned when a session is requested for an unknown email.
var ErrUserNotFound = fmt.Errorf("user %w", apperrors.ErrNotFound)

// Identity is the verified owner of a session token.
type Identity struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionService issues, verifies and revokes session tokens.
type SessionService interface {
	IssueToken(email string) (string, error)
	CreateSession(ctx context.Context, email, token string) error
	VerifyToken(ctx context.Context, token string) *Identity
	DeleteSession(ctx context.Context, token string) error
	PruneExpired(ctx context.Context) (int, error)
}

type sessionService struct {
	store  DocumentStore
	jwt    *auth.JWTService
	now    func() time.Time
	logger *zap.Logger
}

// NewSessionService creates a session service signing tokens with jwt.
func NewSessionService(store DocumentStore, jwt *auth.JWTService, logger *zap.Logger) SessionService {
	return &sessionService{
		store:  store,
		jwt:    jwt,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock replaces the time source of the service and its token signer.
func (s *sessionService) SetClock(now func() time.Time) {
	s.now = now
	s.jwt.SetClock(now)
}

func (s *sessionService) IssueToken(email string) (string, error) {
	token, _, err := s.jwt.GenerateToken(normalizeEmail(email))
	if err != nil {
		return "", err
	}
	return token, nil
}

// CreateSession records token for email and stamps the user's last login.
func (s *sessionService) CreateSession(ctx context.Context, email, token string) error {
	now := s.now().UTC()
	return s.store.Update(ctx, func(doc *model.Document) error {
		user := doc.FindUser(normalizeEmail(email))
		if user == nil {
			return ErrUserNotFound
		}
		doc.Sessions = append(doc.Sessions, model.Session{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: now.Add(s.jwt.TTL()),
			CreatedAt: now,
		})
		user.LastLogin = &now
		return nil
	})
}

// VerifyToken returns the identity behind token, or nil when the token is
// malformed, forged, expired or has been revoked.
func (s *sessionService) VerifyToken(_ context.Context, token string) *Identity {
	if token == "" {
		return nil
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil
	}

	doc := s.store.Get()
	for _, session := range doc.Sessions {
		if session.Token != token {
			continue
		}
		user := doc.FindUser(claims.Email)
		if user == nil || user.ID != session.UserID {
			return nil
		}
		return &Identity{
			UserID:    user.ID,
			Email:     user.Email,
			SessionID: session.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		}
	}
	return nil
}

// DeleteSession revokes token. Unknown tokens are not an error.
func (s *sessionService) DeleteSession(ctx context.Context, token string) error {
	if token == "" || !hasSession(s.store.Get(), token) {
		return nil
	}
	return s.store.Update(ctx, func(doc *model.Document) error {
		kept := doc.Sessions[:0]
		for _, session := range doc.Sessions {
			if session.Token != token {
				kept = append(kept, session)
			}
		}
		doc.Sessions = kept
		return nil
	})
}

// PruneExpired drops session records whose expiry has passed.
func (s *sessionService) PruneExpired(ctx context.Context) (int, error) {
	now := s.now()
	stale := 0
	for _, session := range s.store.Get().Sessions {
		if session.Expired(now) {
			stale++
		}
	}
	if stale == 0 {
		return 0, nil
	}

	removed := 0
	err := s.store.Update(ctx, func(doc *model.Document) error {
		kept := doc.Sessions[:0]
		removed = 0
		for _, session := range doc.Sessions {
			if session.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, session)
		}
		doc.Sessions = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("pruned expired sessions", zap.Int("count", removed))
	return removed, nil
}

func hasSession(doc *model.Document, token string) bool {
	for _, session := range doc.Sessions {
		if session.Token == token {
			return true
		}
	}
	return false
}
