package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, fixture(userWithPassword(t, "u1", "admin@example.com", "admin123")))
	credentials := NewCredentialService(st, nil, zap.NewNop())
	svc := NewUserService(st, credentials, zap.NewNop())

	view, err := svc.CreateUser(ctx, " New.Admin@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "new.admin@example.com", view.Email)
	assert.NotEmpty(t, view.ID)
	assert.True(t, credentials.Verify(ctx, "new.admin@example.com", "hunter22"))

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"duplicate with different case", "NEW.ADMIN@example.com", "hunter22", apperrors.ErrConflict},
		{"invalid email", "not-an-email", "hunter22", apperrors.ErrInvalidInput},
		{"short password", "other@example.com", "abc", apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Len(t, svc.ListUsers(ctx), 2)
}

func TestUserService_ListUsersStripsSecrets(t *testing.T) {
	user := userWithPassword(t, "u1", "admin@example.com", "admin123")
	user.MFASecret = "JBSWY3DPEHPK3PXP"
	st := newTestStore(t, fixture(user))
	svc := NewUserService(st, NewCredentialService(st, nil, zap.NewNop()), zap.NewNop())

	views := svc.ListUsers(context.Background())

	require.Len(t, views, 1)
	assert.Equal(t, model.UserView{ID: "u1", Email: "admin@example.com", MFAEnrolled: true, CreatedAt: testNow}, views[0])
}

func TestUserService_DeleteUserCascadesSessions(t *testing.T) {
	ctx := context.Background()
	doc := fixture(
		model.User{ID: "u1", Email: "a@example.com", CreatedAt: testNow},
		model.User{ID: "u2", Email: "b@example.com", CreatedAt: testNow},
	)
	doc.Sessions = []model.Session{
		{ID: "s1", UserID: "u1", Token: "t1", ExpiresAt: testNow.Add(time.Hour)},
		{ID: "s2", UserID: "u1", Token: "t2", ExpiresAt: testNow.Add(time.Hour)},
		{ID: "s3", UserID: "u2", Token: "t3", ExpiresAt: testNow.Add(time.Hour)},
	}
	st := newTestStore(t, doc)
	svc := NewUserService(st, NewCredentialService(st, nil, zap.NewNop()), zap.NewNop())

	require.NoError(t, svc.DeleteUser(ctx, "A@example.com"))

	after := st.Get()
	require.Len(t, after.Users, 1)
	assert.Equal(t, "u2", after.Users[0].ID)
	require.Len(t, after.Sessions, 1)
	assert.Equal(t, "s3", after.Sessions[0].ID)

	err := svc.DeleteUser(ctx, "a@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, fixture(userWithPassword(t, "u1", "admin@example.com", "admin123")))
	credentials := NewCredentialService(st, nil, zap.NewNop())
	svc := NewUserService(st, credentials, zap.NewNop())

	require.NoError(t, svc.ChangePassword(ctx, "admin@example.com", "admin123", "rotated1"))
	assert.True(t, credentials.Verify(ctx, "admin@example.com", "rotated1"))

	err := svc.ChangePassword(ctx, "admin@example.com", "admin123", "rotated2")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
