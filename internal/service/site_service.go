package service

import (
	"context"
	"strings"
	"time"

	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

// OfficeInput replaces the office location.
type OfficeInput struct {
	Street     string
	City       string
	PostalCode string
	MapURL     string
}

// SiteService manages the office location and desk-wide settings.
type SiteService interface {
	GetOfficeLocation(ctx context.Context) model.OfficeLocation
	UpdateOfficeLocation(ctx context.Context, in OfficeInput) (*model.OfficeLocation, error)
	GetSettings(ctx context.Context) model.Settings
	UpdateSettings(ctx context.Context, defaultCommission string) (*model.Settings, error)
}

type siteService struct {
	store DocumentStore
	now   func() time.Time
}

// NewSiteService creates a site service.
func NewSiteService(store DocumentStore) SiteService {
	return &siteService{store: store, now: time.Now}
}

func (s *siteService) GetOfficeLocation(_ context.Context) model.OfficeLocation {
	return s.store.Get().OfficeLocation
}

// UpdateOfficeLocation overwrites every field of the office location.
func (s *siteService) UpdateOfficeLocation(ctx context.Context, in OfficeInput) (*model.OfficeLocation, error) {
	office := model.OfficeLocation{
		Street:     strings.TrimSpace(in.Street),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		MapURL:     strings.TrimSpace(in.MapURL),
	}
	fields := []struct {
		name  string
		value string
	}{
		{"street", office.Street},
		{"city", office.City},
		{"postalCode", office.PostalCode},
		{"mapUrl", office.MapURL},
	}
	for _, f := range fields {
		if f.value == "" {
			return nil, apperrors.Invalid(f.name, "is required")
		}
	}

	err := s.store.Update(ctx, func(doc *model.Document) error {
		office.UpdatedAt = s.now().UTC()
		doc.OfficeLocation = office
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &office, nil
}

func (s *siteService) GetSettings(_ context.Context) model.Settings {
	return s.store.Get().Settings
}

func (s *siteService) UpdateSettings(ctx context.Context, defaultCommission string) (*model.Settings, error) {
	if _, err := parseDecimal("defaultCommission", defaultCommission, false); err != nil {
		return nil, err
	}

	var updated model.Settings
	err := s.store.Update(ctx, func(doc *model.Document) error {
		doc.Settings.DefaultCommission = strings.TrimSpace(defaultCommission)
		doc.Settings.UpdatedAt = s.now().UTC()
		updated = doc.Settings
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
