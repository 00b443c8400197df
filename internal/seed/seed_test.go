package seed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
users:
  - email: Admin@Example.com
    password: admin123
  - email: ops@example.com
currencies:
  - code: usd
    name: US Dollar
    commission_rate: "0.20"
  - code: EUR
    name: Euro
    commission_rate: "0.20"
    disabled: true
rates:
  - from: usd
    to: eur
    rate: "0.92"
office:
  street: 1 Test Street
  city: Testville
  postal_code: "00001"
  map_url: https://maps.example/test
default_commission: "0.25"
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	f, err := Load(writeSeed(t, sampleSeed))
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := f.Document(now)

	require.Len(t, doc.Users, 2)
	assert.Equal(t, "admin@example.com", doc.Users[0].Email)
	assert.Empty(t, doc.Users[0].PasswordHash)
	assert.NotEmpty(t, doc.Users[0].ID)

	require.Len(t, doc.Currencies, 2)
	assert.Equal(t, "USD", doc.Currencies[0].Code)
	assert.True(t, doc.Currencies[0].Enabled)
	assert.False(t, doc.Currencies[1].Enabled)

	require.Len(t, doc.Rates, 1)
	assert.Equal(t, "USD", doc.Rates[0].FromCurrency)
	assert.Equal(t, "EUR", doc.Rates[0].ToCurrency)

	assert.Equal(t, "Testville", doc.OfficeLocation.City)
	assert.Equal(t, "0.25", doc.Settings.DefaultCommission)
	assert.Empty(t, doc.Sessions)

	assert.Equal(t, map[string]string{"admin@example.com": "admin123"}, f.Passwords())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "users: [unclosed"},
		{"missing email", "users:\n  - password: x\n"},
		{"duplicate email", "users:\n  - email: a@x.io\n  - email: A@x.io\n"},
		{"short code", "currencies:\n  - code: US\n    commission_rate: \"0.1\"\n"},
		{"bad commission", "currencies:\n  - code: USD\n    commission_rate: lots\n"},
		{"unknown rate currency", "currencies:\n  - code: USD\n    commission_rate: \"0.1\"\nrates:\n  - from: USD\n    to: EUR\n    rate: \"1\"\n"},
		{"non-positive rate", "currencies:\n  - code: USD\n    commission_rate: \"0.1\"\n  - code: EUR\n    commission_rate: \"0.1\"\nrates:\n  - from: USD\n    to: EUR\n    rate: \"0\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSeed(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	f := Builtin()
	require.NoError(t, f.validate())

	doc := f.Document(time.Now())
	assert.Len(t, doc.Currencies, 6)
	assert.NotNil(t, doc.FindCurrency("USDT"))
	assert.Empty(t, f.Passwords())
}

func TestOpen(t *testing.T) {
	f, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, Builtin(), f)

	_, err = Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
