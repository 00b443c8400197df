package router

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"exchangedesk/internal/config"
	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/handler"
	"exchangedesk/internal/service"
)

// TokenVerifier resolves a bearer token to a live session.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) *service.Identity
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	sessions TokenVerifier,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	currencyHandler *handler.CurrencyHandler,
	rateHandler *handler.RateHandler,
	userHandler *handler.UserHandler,
	siteHandler *handler.SiteHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: !allowsAnyOrigin(cfg.CORSOrigins),
	}))

	e.Validator = NewValidator()

	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("", healthHandler.Info)

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/mfa/verify", authHandler.VerifyMFA)
	api.POST("/auth/logout", authHandler.Logout)

	public := api.Group("/public")
	public.GET("/currencies", siteHandler.PublicCurrencies)
	public.GET("/rates", siteHandler.PublicRates)
	public.GET("/office-location", siteHandler.PublicOfficeLocation)

	// Secured routes (require a live session)
	admin := api.Group("/admin", echojwt.WithConfig(sessionAuthConfig(sessions)))

	admin.GET("/me", authHandler.Me)

	admin.GET("/currencies", currencyHandler.ListCurrencies)
	admin.POST("/currencies", currencyHandler.CreateCurrency)
	admin.PUT("/currencies/:id", currencyHandler.UpdateCurrency)

	admin.GET("/rates", rateHandler.ListRates)
	admin.POST("/rates", rateHandler.CreateRate)
	admin.PUT("/rates/:id", rateHandler.UpdateRate)

	admin.GET("/users", userHandler.ListUsers)
	admin.POST("/users", userHandler.CreateUser)
	admin.POST("/users/me/mfa", authHandler.EnrollMFA)
	admin.PUT("/users/:email/password", userHandler.ChangePassword)
	admin.DELETE("/users/:email", userHandler.DeleteUser)

	admin.GET("/office-location", siteHandler.GetOfficeLocation)
	admin.PUT("/office-location", siteHandler.UpdateOfficeLocation)
	admin.GET("/settings", siteHandler.GetSettings)
	admin.PUT("/settings", siteHandler.UpdateSettings)
}

// sessionAuthConfig makes echo-jwt delegate token checks to the session
// service, so revoked tokens are refused even while their signature is valid.
func sessionAuthConfig(sessions TokenVerifier) echojwt.Config {
	return echojwt.Config{
		ContextKey:  handler.IdentityKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			identity := sessions.VerifyToken(c.Request().Context(), token)
			if identity == nil {
				return nil, apperrors.ErrUnauthorized
			}
			return identity, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	}
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Error("request", fields...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports failures by JSON field name.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface. The first failing field is
// returned as an errors.ValidationError.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Invalid("body", err.Error())
	}
	fe := verrs[0]
	return apperrors.Invalid(fe.Field(), reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "alphanum":
		return "must contain only letters and digits"
	case "numeric":
		return "must be a decimal number"
	case "oneof":
		return "must be one of " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
