package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

// CurrencyInput creates a currency.
type CurrencyInput struct {
	Code           string
	Name           string
	CommissionRate string
}

// CurrencyPatch updates a currency. Nil fields are left unchanged.
type CurrencyPatch struct {
	Name           *string
	CommissionRate *string
	Enabled        *bool
}

// CurrencyService manages the traded currencies.
type CurrencyService interface {
	ListCurrencies(ctx context.Context) []model.Currency
	ListEnabled(ctx context.Context) []model.Currency
	CreateCurrency(ctx context.Context, in CurrencyInput) (*model.Currency, error)
	UpdateCurrency(ctx context.Context, id string, patch CurrencyPatch) (*model.Currency, error)
}

type currencyService struct {
	store DocumentStore
	now   func() time.Time
}

// NewCurrencyService creates a currency service.
func NewCurrencyService(store DocumentStore) CurrencyService {
	return &currencyService{store: store, now: time.Now}
}

func (s *currencyService) ListCurrencies(_ context.Context) []model.Currency {
	return s.store.Get().Currencies
}

func (s *currencyService) ListEnabled(_ context.Context) []model.Currency {
	var out []model.Currency
	for _, c := range s.store.Get().Currencies {
		if c.Enabled {
			out = append(out, c)
		}
	}
	if out == nil {
		out = []model.Currency{}
	}
	return out
}

// CreateCurrency adds an enabled currency. Codes are unique regardless of case.
func (s *currencyService) CreateCurrency(ctx context.Context, in CurrencyInput) (*model.Currency, error) {
	code, err := normalizeCode(in.Code)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Invalid("name", "is required")
	}
	if _, err := parseDecimal("commissionRate", in.CommissionRate, false); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	currency := model.Currency{
		ID:             uuid.NewString(),
		Code:           code,
		Name:           name,
		CommissionRate: strings.TrimSpace(in.CommissionRate),
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.store.Update(ctx, func(doc *model.Document) error {
		if doc.FindCurrency(code) != nil {
			return fmt.Errorf("currency %s: %w", code, apperrors.ErrConflict)
		}
		doc.Currencies = append(doc.Currencies, currency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func (s *currencyService) UpdateCurrency(ctx context.Context, id string, patch CurrencyPatch) (*model.Currency, error) {
	var name, commission string
	if patch.Name != nil {
		if name = strings.TrimSpace(*patch.Name); name == "" {
			return nil, apperrors.Invalid("name", "must not be empty")
		}
	}
	if patch.CommissionRate != nil {
		if _, err := parseDecimal("commissionRate", *patch.CommissionRate, false); err != nil {
			return nil, err
		}
		commission = strings.TrimSpace(*patch.CommissionRate)
	}

	var updated model.Currency
	err := s.store.Update(ctx, func(doc *model.Document) error {
		for i := range doc.Currencies {
			c := &doc.Currencies[i]
			if c.ID != id {
				continue
			}
			if patch.Name != nil {
				c.Name = name
			}
			if patch.CommissionRate != nil {
				c.CommissionRate = commission
			}
			if patch.Enabled != nil {
				c.Enabled = *patch.Enabled
			}
			c.UpdatedAt = s.now().UTC()
			updated = *c
			return nil
		}
		return fmt.Errorf("currency %s: %w", id, apperrors.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 3 || len(code) > 5 {
		return "", apperrors.Invalid("code", "must be 3 to 5 characters")
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", apperrors.Invalid("code", "must contain only letters and digits")
		}
	}
	return code, nil
}
