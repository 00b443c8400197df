package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"exchangedesk/internal/errors"
	"exchangedesk/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// LoginRequest represents the password step of a login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse tells the client a one-time code is required next.
type LoginResponse struct {
	Email       string `json:"email"`
	RequiresMFA bool   `json:"requiresMfa"`
}

// MFARequest represents the second-factor step of a login.
type MFARequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// TokenResponse carries the session token issued after the second factor.
type TokenResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Login godoc
// @Summary Verify email and password
// @Description Starts a login. On success the email is pending a one-time code; no token is issued.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	email, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, LoginResponse{Email: email, RequiresMFA: true})
}

// VerifyMFA godoc
// @Summary Verify the one-time code
// @Description Completes a login started with /auth/login and returns a session token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body MFARequest true "Email and six digit code"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/mfa/verify [post]
func (h *AuthHandler) VerifyMFA(c echo.Context) error {
	var req MFARequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.VerifyMFA(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, TokenResponse{Token: token, Email: normalize(req.Email)})
}

// Logout godoc
// @Summary Logout
// @Description Revokes the bearer token when one is sent. Unknown or missing tokens succeed.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), BearerToken(c)); err != nil {
		h.logger.Error("logout", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
			Error: "failed to logout",
			Code:  "LOGOUT_FAILED",
		})
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Identity
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return toHTTPError(errors.ErrUnauthorized)
	}
	return c.JSON(http.StatusOK, identity)
}

// EnrollMFA godoc
// @Summary Rotate own TOTP secret
// @Description Generates a personal TOTP secret for the caller. The shared secret stops working for this user.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Enrollment
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users/me/mfa [post]
func (h *AuthHandler) EnrollMFA(c echo.Context) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return toHTTPError(errors.ErrUnauthorized)
	}

	enrollment, err := h.authService.EnrollMFA(c.Request().Context(), identity.Email)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, enrollment)
}
