package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"exchangedesk/internal/auth"
	"exchangedesk/internal/model"
	"exchangedesk/internal/store"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestSessions(t *testing.T, st *store.Store, clock *testClock) SessionService {
	t.Helper()
	svc := NewSessionService(st, auth.NewJWTService("test-secret", auth.SessionTokenExpiry), zap.NewNop())
	svc.(*sessionService).SetClock(clock.Now)
	return svc
}

func TestSessionService_Lifetime(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: testNow}
	st := newTestStore(t, fixture(model.User{ID: "u1", Email: "admin@example.com", CreatedAt: testNow}))
	svc := newTestSessions(t, st, clock)

	token, err := svc.IssueToken("admin@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.CreateSession(ctx, "admin@example.com", token))

	doc := st.Get()
	require.Len(t, doc.Sessions, 1)
	assert.Equal(t, "u1", doc.Sessions[0].UserID)
	assert.Equal(t, testNow.Add(8*time.Hour), doc.Sessions[0].ExpiresAt)
	require.NotNil(t, doc.Users[0].LastLogin)
	assert.Equal(t, testNow, *doc.Users[0].LastLogin)

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"fresh", testNow, true},
		{"7h59m later", testNow.Add(7*time.Hour + 59*time.Minute), true},
		{"8h01m later", testNow.Add(8*time.Hour + time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = tt.at
			identity := svc.VerifyToken(ctx, token)
			if !tt.valid {
				assert.Nil(t, identity)
				return
			}
			require.NotNil(t, identity)
			assert.Equal(t, "admin@example.com", identity.Email)
			assert.Equal(t, "u1", identity.UserID)
		})
	}
}

func TestSessionService_VerifyRejects(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: testNow}
	st := newTestStore(t, fixture(model.User{ID: "u1", Email: "admin@example.com", CreatedAt: testNow}))
	svc := newTestSessions(t, st, clock)

	unrecorded, err := svc.IssueToken("admin@example.com")
	require.NoError(t, err)

	other := NewSessionService(st, auth.NewJWTService("other-secret", auth.SessionTokenExpiry), zap.NewNop())
	forged, err := other.IssueToken("admin@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"valid signature but no session", unrecorded},
		{"signed with another secret", forged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, svc.VerifyToken(ctx, tt.token))
		})
	}
}

func TestSessionService_CreateSessionUnknownUser(t *testing.T) {
	st := newTestStore(t, fixture())
	svc := newTestSessions(t, st, &testClock{now: testNow})

	err := svc.CreateSession(context.Background(), "ghost@example.com", "token")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, st.Get().Sessions)
}

func TestSessionService_DeleteSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, fixture(model.User{ID: "u1", Email: "admin@example.com", CreatedAt: testNow}))
	svc := newTestSessions(t, st, &testClock{now: testNow})

	token, err := svc.IssueToken("admin@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.CreateSession(ctx, "admin@example.com", token))
	require.NotNil(t, svc.VerifyToken(ctx, token))

	require.NoError(t, svc.DeleteSession(ctx, token))
	assert.Nil(t, svc.VerifyToken(ctx, token))
	assert.Empty(t, st.Get().Sessions)

	assert.NoError(t, svc.DeleteSession(ctx, token))
	assert.NoError(t, svc.DeleteSession(ctx, "never-issued"))
	assert.NoError(t, svc.DeleteSession(ctx, ""))
}

func TestSessionService_PruneExpired(t *testing.T) {
	ctx := context.Background()
	doc := fixture(model.User{ID: "u1", Email: "admin@example.com", CreatedAt: testNow})
	doc.Sessions = []model.Session{
		{ID: "s1", UserID: "u1", Token: "old", ExpiresAt: testNow.Add(-time.Minute), CreatedAt: testNow.Add(-8 * time.Hour)},
		{ID: "s2", UserID: "u1", Token: "live", ExpiresAt: testNow.Add(time.Hour), CreatedAt: testNow},
	}
	st := newTestStore(t, doc)
	svc := newTestSessions(t, st, &testClock{now: testNow})

	removed, err := svc.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	sessions := st.Get().Sessions
	require.Len(t, sessions, 1)
	assert.Equal(t, "s2", sessions[0].ID)

	removed, err = svc.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
