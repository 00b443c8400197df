package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"exchangedesk/internal/errors"
	"exchangedesk/internal/service"
)

// IdentityKey is the echo context key the auth middleware stores the session identity under.
const IdentityKey = "user"

// MessageResponse is a minimal confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_INPUT",
		})
	}
	if err := c.Validate(req); err != nil {
		return toHTTPError(err)
	}
	return nil
}

// toHTTPError converts a domain error into an echo error carrying ErrorResponse.
func toHTTPError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// CurrentIdentity returns the identity of the authenticated session, or nil.
func CurrentIdentity(c echo.Context) *service.Identity {
	identity, _ := c.Get(IdentityKey).(*service.Identity)
	return identity
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
