package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"exchangedesk/internal/service"
)

// RateHandler handles exchange rate endpoints.
type RateHandler struct {
	rateService service.RateService
}

// NewRateHandler creates a new rate handler.
func NewRateHandler(rateService service.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// CreateRateRequest represents a new currency pair rate.
type CreateRateRequest struct {
	FromCurrency string `json:"fromCurrency" validate:"required,alphanum,min=3,max=5"`
	ToCurrency   string `json:"toCurrency" validate:"required,alphanum,min=3,max=5"`
	Rate         string `json:"rate" validate:"required,numeric"`
}

// UpdateRateRequest represents a rate change. When changePercent or trend are
// omitted they are derived from the previous rate.
type UpdateRateRequest struct {
	Rate          string  `json:"rate" validate:"required,numeric"`
	ChangePercent *string `json:"changePercent" validate:"omitempty,numeric"`
	Trend         *string `json:"trend" validate:"omitempty,oneof=up down stable"`
}

// ListRates godoc
// @Summary List rates
// @Tags rates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Rate
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/rates [get]
func (h *RateHandler) ListRates(c echo.Context) error {
	return c.JSON(http.StatusOK, h.rateService.ListRates(c.Request().Context()))
}

// CreateRate godoc
// @Summary Create a rate
// @Tags rates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRateRequest true "Rate"
// @Success 201 {object} model.Rate
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/rates [post]
func (h *RateHandler) CreateRate(c echo.Context) error {
	var req CreateRateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rate, err := h.rateService.CreateRate(c.Request().Context(), service.RateInput{
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		Rate:         req.Rate,
	}, updatedBy(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rate)
}

// UpdateRate godoc
// @Summary Update a rate
// @Tags rates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rate ID"
// @Param request body UpdateRateRequest true "New rate"
// @Success 200 {object} model.Rate
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/rates/{id} [put]
func (h *RateHandler) UpdateRate(c echo.Context) error {
	var req UpdateRateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rate, err := h.rateService.UpdateRate(c.Request().Context(), c.Param("id"), service.RatePatch{
		Rate:          req.Rate,
		ChangePercent: req.ChangePercent,
		Trend:         req.Trend,
	}, updatedBy(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, rate)
}

func updatedBy(c echo.Context) string {
	if identity := CurrentIdentity(c); identity != nil {
		return identity.Email
	}
	return ""
}
