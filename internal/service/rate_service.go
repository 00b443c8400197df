package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

var hundred = decimal.NewFromInt(100)

// RateInput creates a rate for a currency pair.
type RateInput struct {
	FromCurrency string
	ToCurrency   string
	Rate         string
}

// RatePatch updates a rate. ChangePercent and Trend are derived from the
// previous rate when nil.
type RatePatch struct {
	Rate          string
	ChangePercent *string
	Trend         *string
}

// RateService manages exchange rates.
type RateService interface {
	ListRates(ctx context.Context) []model.Rate
	ListPublic(ctx context.Context) []model.Rate
	CreateRate(ctx context.Context, in RateInput, updatedBy string) (*model.Rate, error)
	UpdateRate(ctx context.Context, id string, patch RatePatch, updatedBy string) (*model.Rate, error)
}

type rateService struct {
	store DocumentStore
	now   func() time.Time
}

// NewRateService creates a rate service.
func NewRateService(store DocumentStore) RateService {
	return &rateService{store: store, now: time.Now}
}

func (s *rateService) ListRates(_ context.Context) []model.Rate {
	return s.store.Get().Rates
}

// ListPublic returns the rates whose both currencies are enabled.
func (s *rateService) ListPublic(_ context.Context) []model.Rate {
	doc := s.store.Get()
	out := []model.Rate{}
	for _, r := range doc.Rates {
		from, to := doc.FindCurrency(r.FromCurrency), doc.FindCurrency(r.ToCurrency)
		if from != nil && to != nil && from.Enabled && to.Enabled {
			out = append(out, r)
		}
	}
	return out
}

func (s *rateService) CreateRate(ctx context.Context, in RateInput, updatedBy string) (*model.Rate, error) {
	from, err := normalizeCode(in.FromCurrency)
	if err != nil {
		return nil, apperrors.Invalid("fromCurrency", "must be a currency code")
	}
	to, err := normalizeCode(in.ToCurrency)
	if err != nil {
		return nil, apperrors.Invalid("toCurrency", "must be a currency code")
	}
	if from == to {
		return nil, apperrors.Invalid("toCurrency", "must differ from fromCurrency")
	}
	if _, err := parseDecimal("rate", in.Rate, true); err != nil {
		return nil, err
	}

	rate := model.Rate{
		ID:           uuid.NewString(),
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         strings.TrimSpace(in.Rate),
		Trend:        model.TrendStable,
		UpdatedAt:    s.now().UTC(),
		UpdatedBy:    normalizeEmail(updatedBy),
	}
	err = s.store.Update(ctx, func(doc *model.Document) error {
		if doc.FindCurrency(from) == nil {
			return fmt.Errorf("currency %s: %w", from, apperrors.ErrNotFound)
		}
		if doc.FindCurrency(to) == nil {
			return fmt.Errorf("currency %s: %w", to, apperrors.ErrNotFound)
		}
		for _, r := range doc.Rates {
			if r.FromCurrency == from && r.ToCurrency == to {
				return fmt.Errorf("rate %s/%s: %w", from, to, apperrors.ErrConflict)
			}
		}
		doc.Rates = append(doc.Rates, rate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// UpdateRate sets a new positive rate and records who changed it.
func (s *rateService) UpdateRate(ctx context.Context, id string, patch RatePatch, updatedBy string) (*model.Rate, error) {
	next, err := parseDecimal("rate", patch.Rate, true)
	if err != nil {
		return nil, err
	}
	if patch.ChangePercent != nil {
		if _, err := decimal.NewFromString(strings.TrimSpace(*patch.ChangePercent)); err != nil {
			return nil, apperrors.Invalid("changePercent", "must be a decimal number")
		}
	}
	if patch.Trend != nil && !validTrend(*patch.Trend) {
		return nil, apperrors.Invalid("trend", "must be one of up, down, stable")
	}

	var updated model.Rate
	err = s.store.Update(ctx, func(doc *model.Document) error {
		for i := range doc.Rates {
			r := &doc.Rates[i]
			if r.ID != id {
				continue
			}
			change, trend := deriveChange(r.Rate, next)
			if patch.ChangePercent != nil {
				change = strings.TrimSpace(*patch.ChangePercent)
			}
			if patch.Trend != nil {
				trend = *patch.Trend
			}
			r.Rate = strings.TrimSpace(patch.Rate)
			r.ChangePercent = change
			r.Trend = trend
			r.UpdatedAt = s.now().UTC()
			r.UpdatedBy = normalizeEmail(updatedBy)
			updated = *r
			return nil
		}
		return fmt.Errorf("rate %s: %w", id, apperrors.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// deriveChange computes the percent change from previous to next, rounded to
// two places, and its trend.
func deriveChange(previous string, next decimal.Decimal) (string, string) {
	prev, err := decimal.NewFromString(previous)
	if err != nil || !prev.IsPositive() {
		return "0.00", model.TrendStable
	}
	change := next.Sub(prev).Div(prev).Mul(hundred).Round(2)
	switch change.Sign() {
	case 1:
		return change.StringFixed(2), model.TrendUp
	case -1:
		return change.StringFixed(2), model.TrendDown
	default:
		return "0.00", model.TrendStable
	}
}

func validTrend(trend string) bool {
	switch trend {
	case model.TrendUp, model.TrendDown, model.TrendStable:
		return true
	}
	return false
}
