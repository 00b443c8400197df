package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"exchangedesk/internal/auth"
	"exchangedesk/internal/config"
	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/handler"
	"exchangedesk/internal/model"
	"exchangedesk/internal/seed"
	"exchangedesk/internal/service"
	"exchangedesk/internal/store"
)

const testMFASecret = "JBSWY3DPEHPK3PXP"

type testServer struct {
	e    *echo.Echo
	totp *auth.TOTPService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	defaults := seed.Builtin().Document(time.Now())
	defaults.Users = []model.User{{ID: "u1", Email: "admin@example.com", CreatedAt: time.Now()}}

	st := store.New(filepath.Join(t.TempDir(), "data.json"), store.WithLogger(logger))
	require.NoError(t, st.Initialize(ctx, defaults))

	credentials := service.NewCredentialService(st, map[string]string{"admin@example.com": "admin123"}, logger)
	_, err := credentials.BootstrapDefaults(ctx)
	require.NoError(t, err)

	totp := auth.NewTOTPService("Exchange Desk")
	sessions := service.NewSessionService(st, auth.NewJWTService("test-secret", auth.SessionTokenExpiry), logger)
	authService := service.NewAuthService(st, credentials, sessions, totp, auth.NewMemoryPendingStore(),
		service.MFAConfig{SharedSecret: testMFASecret, AllowShared: true}, logger)
	currencyService := service.NewCurrencyService(st)
	rateService := service.NewRateService(st)

	e := echo.New()
	Register(e,
		&config.Config{CORSOrigins: []string{"*"}},
		logger,
		sessions,
		handler.NewHealthHandler(st, "test"),
		handler.NewAuthHandler(authService, logger),
		handler.NewCurrencyHandler(currencyService),
		handler.NewRateHandler(rateService),
		handler.NewUserHandler(service.NewUserService(st, credentials, logger)),
		handler.NewSiteHandler(service.NewSiteService(st), currencyService, rateService),
	)
	return &testServer{e: e, totp: totp}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	code, err := s.totp.Code(testMFASecret, time.Now())
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/auth/mfa/verify", "", map[string]string{"email": "admin@example.com", "code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "Admin@Example.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var loginResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	assert.Equal(t, true, loginResp["requiresMfa"])
	assert.Equal(t, "admin@example.com", loginResp["email"])
	assert.NotContains(t, loginResp, "token")

	rec = s.do(t, http.MethodGet, "/api/admin/currencies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)

	code, err := s.totp.Code(testMFASecret, time.Now())
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/auth/mfa/verify", "", map[string]string{"email": "admin@example.com", "code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tokenResp handler.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokenResp))
	assert.Equal(t, "admin@example.com", tokenResp.Email)

	rec = s.do(t, http.MethodGet, "/api/admin/currencies", tokenResp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var currencies []model.Currency
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &currencies))
	assert.NotEmpty(t, currencies)

	rec = s.do(t, http.MethodGet, "/api/admin/me", tokenResp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var identity service.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	assert.Equal(t, "u1", identity.UserID)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       map[string]string
		wantStatus int
		wantCode   string
	}{
		{"wrong password", "/api/auth/login", map[string]string{"email": "admin@example.com", "password": "nope"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"unknown user", "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "admin123"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"missing password", "/api/auth/login", map[string]string{"email": "admin@example.com"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"code not six digits", "/api/auth/mfa/verify", map[string]string{"email": "admin@example.com", "code": "12ab56"}, http.StatusBadRequest, "INVALID_FORMAT"},
		{"code without password step", "/api/auth/mfa/verify", map[string]string{"email": "admin@example.com", "code": "123456"}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/currencies", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRejectsBadTokens(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"garbage", "a.b.c"} {
		rec := s.do(t, http.MethodGet, "/api/admin/settings", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
	}
}

func TestCurrencyEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/admin/currencies", token, map[string]string{"code": "gbp", "name": "Pound Sterling", "commissionRate": "0.15"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Currency
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "GBP", created.Code)

	rec = s.do(t, http.MethodPost, "/api/admin/currencies", token, map[string]string{"code": "usd", "name": "Dollar", "commissionRate": "0.1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/admin/currencies", token, map[string]string{"code": "U", "name": "Bad", "commissionRate": "0.1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Code)
	assert.Equal(t, "code", resp.Field)

	rec = s.do(t, http.MethodPut, "/api/admin/currencies/"+created.ID, token, map[string]interface{}{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/admin/currencies/missing", token, map[string]interface{}{"enabled": false})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/public/currencies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "GBP")
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/admin/users", token, map[string]string{"email": "ops@example.com", "password": "opspass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.Contains(t, rec.Body.String(), "ops@example.com")

	rec = s.do(t, http.MethodPut, "/api/admin/users/ops@example.com/password", token, map[string]string{"currentPassword": "opspass", "newPassword": "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/admin/users/ops@example.com", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/admin/users/ops@example.com", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndInfo(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = s.do(t, http.MethodGet, "/api", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestOfficeLocationReplace(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.do(t, http.MethodPut, "/api/admin/office-location", token, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Code)
	assert.Equal(t, "street", resp.Field)

	rec = s.do(t, http.MethodPut, "/api/admin/office-location", token, map[string]string{
		"street": "1 Durbar Marg", "city": "Pokhara", "postalCode": "33700",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "mapUrl", decodeError(t, rec).Field)

	rec = s.do(t, http.MethodPut, "/api/admin/office-location", token, map[string]string{
		"street": "1 Durbar Marg", "city": "Pokhara", "postalCode": "33700", "mapUrl": "https://maps.example/p",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/public/office-location", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var office handler.OfficeLocationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &office))
	assert.Equal(t, handler.OfficeLocationResponse{
		Street: "1 Durbar Marg", City: "Pokhara", PostalCode: "33700", MapURL: "https://maps.example/p",
	}, office)
}
