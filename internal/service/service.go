// Package service holds the desk's business operations. Every mutation runs
// inside a single DocumentStore.Update call.
package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
	"exchangedesk/internal/store"
)

// DocumentStore is the part of the data store the services depend on.
type DocumentStore interface {
	Get() *model.Document
	Update(ctx context.Context, fn store.Mutator) error
}

// Ensure *store.Store satisfies DocumentStore
var _ DocumentStore = (*store.Store)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// parseDecimal validates a decimal string field. When positive is set, zero and
// negative values are rejected, otherwise only negative ones are.
func parseDecimal(field, value string, positive bool) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, apperrors.Invalid(field, "must be a decimal number")
	}
	if positive && !d.IsPositive() {
		return decimal.Zero, apperrors.Invalid(field, "must be positive")
	}
	if !positive && d.IsNegative() {
		return decimal.Zero, apperrors.Invalid(field, "must not be negative")
	}
	return d, nil
}
