package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"exchangedesk/internal/auth"
	"exchangedesk/internal/model"
	"exchangedesk/internal/store"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// fixture returns a document with two currencies enabled, one disabled and a
// USD/EUR rate. Users are added by the caller.
func fixture(users ...model.User) *model.Document {
	return &model.Document{
		Users: users,
		Currencies: []model.Currency{
			{ID: "c-usd", Code: "USD", Name: "US Dollar", CommissionRate: "0.20", Enabled: true, CreatedAt: testNow, UpdatedAt: testNow},
			{ID: "c-eur", Code: "EUR", Name: "Euro", CommissionRate: "0.20", Enabled: true, CreatedAt: testNow, UpdatedAt: testNow},
			{ID: "c-rub", Code: "RUB", Name: "Russian Ruble", CommissionRate: "0.20", Enabled: false, CreatedAt: testNow, UpdatedAt: testNow},
		},
		Rates: []model.Rate{
			{ID: "r-usd-eur", FromCurrency: "USD", ToCurrency: "EUR", Rate: "0.92", Trend: model.TrendStable, UpdatedAt: testNow},
			{ID: "r-usd-rub", FromCurrency: "USD", ToCurrency: "RUB", Rate: "92.5", Trend: model.TrendStable, UpdatedAt: testNow},
		},
		OfficeLocation: model.OfficeLocation{Street: "123 Main Street", City: "Kathmandu, Nepal", PostalCode: "44600", MapURL: "https://maps.example/k"},
		Settings:       model.Settings{DefaultCommission: "0.20"},
	}
}

func newTestStore(t *testing.T, doc *model.Document) *store.Store {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "data.json"), store.WithLogger(zap.NewNop()))
	require.NoError(t, st.Initialize(context.Background(), doc))
	return st
}

func userWithPassword(t *testing.T, id, email, password string) model.User {
	t.Helper()
	user := model.User{ID: id, Email: email, CreatedAt: testNow}
	if password != "" {
		hash, err := auth.HashPassword(password)
		require.NoError(t, err)
		user.PasswordHash = hash
	}
	return user
}
