package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"exchangedesk/internal/service"
)

// SiteHandler handles office location and settings endpoints, including the
// public read-only views.
type SiteHandler struct {
	siteService     service.SiteService
	currencyService service.CurrencyService
	rateService     service.RateService
}

// NewSiteHandler creates a new site handler.
func NewSiteHandler(siteService service.SiteService, currencyService service.CurrencyService, rateService service.RateService) *SiteHandler {
	return &SiteHandler{
		siteService:     siteService,
		currencyService: currencyService,
		rateService:     rateService,
	}
}

// OfficeLocationRequest replaces the office location. Every field is required.
type OfficeLocationRequest struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	MapURL     string `json:"mapUrl" validate:"required,url"`
}

// OfficeLocationResponse is the office location without bookkeeping fields.
type OfficeLocationResponse struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	MapURL     string `json:"mapUrl"`
}

// SettingsRequest represents a settings update.
type SettingsRequest struct {
	DefaultCommission string `json:"defaultCommission" validate:"required,numeric"`
}

// SettingsResponse carries the desk-wide defaults.
type SettingsResponse struct {
	DefaultCommission string `json:"defaultCommission"`
}

// GetOfficeLocation godoc
// @Summary Get office location
// @Tags site
// @Produce json
// @Security BearerAuth
// @Success 200 {object} OfficeLocationResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/office-location [get]
func (h *SiteHandler) GetOfficeLocation(c echo.Context) error {
	return c.JSON(http.StatusOK, h.officeResponse(c))
}

// UpdateOfficeLocation godoc
// @Summary Update office location
// @Tags site
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OfficeLocationRequest true "Office location"
// @Success 200 {object} model.OfficeLocation
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/office-location [put]
func (h *SiteHandler) UpdateOfficeLocation(c echo.Context) error {
	var req OfficeLocationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	office, err := h.siteService.UpdateOfficeLocation(c.Request().Context(), service.OfficeInput{
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		MapURL:     req.MapURL,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, office)
}

// GetSettings godoc
// @Summary Get settings
// @Tags site
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SettingsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/settings [get]
func (h *SiteHandler) GetSettings(c echo.Context) error {
	settings := h.siteService.GetSettings(c.Request().Context())
	return c.JSON(http.StatusOK, SettingsResponse{DefaultCommission: settings.DefaultCommission})
}

// UpdateSettings godoc
// @Summary Update settings
// @Tags site
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SettingsRequest true "Settings"
// @Success 200 {object} model.Settings
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/settings [put]
func (h *SiteHandler) UpdateSettings(c echo.Context) error {
	var req SettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	settings, err := h.siteService.UpdateSettings(c.Request().Context(), req.DefaultCommission)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, settings)
}

// PublicCurrencies godoc
// @Summary Enabled currencies
// @Tags public
// @Produce json
// @Success 200 {array} model.Currency
// @Router /public/currencies [get]
func (h *SiteHandler) PublicCurrencies(c echo.Context) error {
	return c.JSON(http.StatusOK, h.currencyService.ListEnabled(c.Request().Context()))
}

// PublicRates godoc
// @Summary Rates between enabled currencies
// @Tags public
// @Produce json
// @Success 200 {array} model.Rate
// @Router /public/rates [get]
func (h *SiteHandler) PublicRates(c echo.Context) error {
	return c.JSON(http.StatusOK, h.rateService.ListPublic(c.Request().Context()))
}

// PublicOfficeLocation godoc
// @Summary Office location
// @Tags public
// @Produce json
// @Success 200 {object} OfficeLocationResponse
// @Router /public/office-location [get]
func (h *SiteHandler) PublicOfficeLocation(c echo.Context) error {
	return c.JSON(http.StatusOK, h.officeResponse(c))
}

func (h *SiteHandler) officeResponse(c echo.Context) OfficeLocationResponse {
	office := h.siteService.GetOfficeLocation(c.Request().Context())
	return OfficeLocationResponse{
		Street:     office.Street,
		City:       office.City,
		PostalCode: office.PostalCode,
		MapURL:     office.MapURL,
	}
}
