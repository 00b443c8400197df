package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWTService_Lifetime(t *testing.T) {
	issued := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := NewJWTService("test-secret", SessionTokenExpiry)
	svc.SetClock(fixedClock(issued))

	token, claims, err := svc.GenerateToken("Admin@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"immediately", issued, nil},
		{"7h59m later", issued.Add(7*time.Hour + 59*time.Minute), nil},
		{"exactly 8h later", issued.Add(8 * time.Hour), ErrExpiredToken},
		{"8h01m later", issued.Add(8*time.Hour + time.Minute), ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.SetClock(fixedClock(tt.at))
			got, err := svc.ValidateToken(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin@example.com", got.Email)
		})
	}
}

func TestJWTService_TokensAreUnique(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	svc.SetClock(fixedClock(time.Unix(1_700_000_000, 0)))

	a, _, err := svc.GenerateToken("admin@example.com")
	require.NoError(t, err)
	b, _, err := svc.GenerateToken("admin@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestJWTService_RejectsForgedTokens(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	token, _, err := svc.GenerateToken("admin@example.com")
	require.NoError(t, err)

	otherSvc := NewJWTService("other-secret", time.Hour)
	forged, _, err := otherSvc.GenerateToken("admin@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Email: "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":         "",
		"garbage":       "not.a.token",
		"wrong secret":  forged,
		"tampered body": tampered,
		"alg none":      unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestNewJWTService_DefaultTTL(t *testing.T) {
	svc := NewJWTService("s", 0)
	assert.Equal(t, SessionTokenExpiry, svc.TTL())
}
