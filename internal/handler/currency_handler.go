package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"exchangedesk/internal/service"
)

// CurrencyHandler handles currency endpoints.
type CurrencyHandler struct {
	currencyService service.CurrencyService
}

// NewCurrencyHandler creates a new currency handler.
func NewCurrencyHandler(currencyService service.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// CreateCurrencyRequest represents a new currency.
type CreateCurrencyRequest struct {
	Code           string `json:"code" validate:"required,alphanum,min=3,max=5"`
	Name           string `json:"name" validate:"required"`
	CommissionRate string `json:"commissionRate" validate:"required,numeric"`
}

// UpdateCurrencyRequest represents a partial currency update.
type UpdateCurrencyRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	CommissionRate *string `json:"commissionRate" validate:"omitempty,numeric"`
	Enabled        *bool   `json:"enabled"`
}

// ListCurrencies godoc
// @Summary List currencies
// @Tags currencies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Currency
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/currencies [get]
func (h *CurrencyHandler) ListCurrencies(c echo.Context) error {
	return c.JSON(http.StatusOK, h.currencyService.ListCurrencies(c.Request().Context()))
}

// CreateCurrency godoc
// @Summary Create a currency
// @Description Codes are unique regardless of case and stored upper-case.
// @Tags currencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCurrencyRequest true "Currency"
// @Success 201 {object} model.Currency
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/currencies [post]
func (h *CurrencyHandler) CreateCurrency(c echo.Context) error {
	var req CreateCurrencyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	currency, err := h.currencyService.CreateCurrency(c.Request().Context(), service.CurrencyInput{
		Code:           req.Code,
		Name:           req.Name,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, currency)
}

// UpdateCurrency godoc
// @Summary Update a currency
// @Tags currencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Currency ID"
// @Param request body UpdateCurrencyRequest true "Fields to change"
// @Success 200 {object} model.Currency
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/currencies/{id} [put]
func (h *CurrencyHandler) UpdateCurrency(c echo.Context) error {
	var req UpdateCurrencyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	currency, err := h.currencyService.UpdateCurrency(c.Request().Context(), c.Param("id"), service.CurrencyPatch{
		Name:           req.Name,
		CommissionRate: req.CommissionRate,
		Enabled:        req.Enabled,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, currency)
}
