// Package seed builds the initial document written when no data file exists.
package seed

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"exchangedesk/internal/model"
)

// UserSeed is a seeded admin account. Password is optional and only used by bootstrap.
type UserSeed struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// CurrencySeed is a seeded currency.
type CurrencySeed struct {
	Code           string `yaml:"code"`
	Name           string `yaml:"name"`
	CommissionRate string `yaml:"commission_rate"`
	Disabled       bool   `yaml:"disabled"`
}

// RateSeed is a seeded exchange rate.
type RateSeed struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Rate string `yaml:"rate"`
}

// OfficeSeed is the seeded office location.
type OfficeSeed struct {
	Street     string `yaml:"street"`
	City       string `yaml:"city"`
	PostalCode string `yaml:"postal_code"`
	MapURL     string `yaml:"map_url"`
}

// File is the YAML seed file layout.
type File struct {
	Users             []UserSeed     `yaml:"users"`
	Currencies        []CurrencySeed `yaml:"currencies"`
	Rates             []RateSeed     `yaml:"rates"`
	Office            OfficeSeed     `yaml:"office"`
	DefaultCommission string         `yaml:"default_commission"`
}

// Builtin returns the seed used when no seed file is configured.
// It carries no passwords; those come from deployment configuration.
func Builtin() *File {
	return &File{
		Users: []UserSeed{
			{Email: "admin@senate.exchange"},
			{Email: "operator@senate.exchange"},
		},
		Currencies: []CurrencySeed{
			{Code: "RUB", Name: "Russian Ruble", CommissionRate: "0.20"},
			{Code: "USD", Name: "US Dollar", CommissionRate: "0.20"},
			{Code: "EUR", Name: "Euro", CommissionRate: "0.20"},
			{Code: "KZT", Name: "Kazakhstani Tenge", CommissionRate: "0.20"},
			{Code: "USDT", Name: "Tether", CommissionRate: "0.25"},
			{Code: "BTC", Name: "Bitcoin", CommissionRate: "0.30"},
		},
		Office: OfficeSeed{
			Street:     "123 Main Street",
			City:       "Kathmandu, Nepal",
			PostalCode: "44600",
			MapURL:     "https://www.google.com/maps?q=Kathmandu,Nepal&output=embed",
		},
		DefaultCommission: "0.20",
	}
}

// Load reads and validates a YAML seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool)
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("user at index %d missing email", i)
		}
		if seen[email] {
			return fmt.Errorf("duplicate user %s", email)
		}
		seen[email] = true
	}

	codes := make(map[string]bool)
	for i, c := range f.Currencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if len(code) < 3 || len(code) > 5 {
			return fmt.Errorf("currency at index %d has invalid code %q", i, c.Code)
		}
		if codes[code] {
			return fmt.Errorf("duplicate currency %s", code)
		}
		codes[code] = true
		if _, err := decimal.NewFromString(c.CommissionRate); err != nil {
			return fmt.Errorf("currency %s has invalid commission rate %q", code, c.CommissionRate)
		}
	}

	for i, r := range f.Rates {
		if !codes[strings.ToUpper(r.From)] || !codes[strings.ToUpper(r.To)] {
			return fmt.Errorf("rate at index %d references unknown currency", i)
		}
		v, err := decimal.NewFromString(r.Rate)
		if err != nil || !v.IsPositive() {
			return fmt.Errorf("rate at index %d must be a positive decimal", i)
		}
	}

	if f.DefaultCommission != "" {
		if _, err := decimal.NewFromString(f.DefaultCommission); err != nil {
			return fmt.Errorf("invalid default commission %q", f.DefaultCommission)
		}
	}
	return nil
}

// Document builds the initial document. Password hashes are left empty for bootstrap.
func (f *File) Document(now time.Time) *model.Document {
	doc := &model.Document{
		Users:      make([]model.User, 0, len(f.Users)),
		Currencies: make([]model.Currency, 0, len(f.Currencies)),
		Rates:      make([]model.Rate, 0, len(f.Rates)),
		Sessions:   []model.Session{},
		OfficeLocation: model.OfficeLocation{
			Street:     f.Office.Street,
			City:       f.Office.City,
			PostalCode: f.Office.PostalCode,
			MapURL:     f.Office.MapURL,
			UpdatedAt:  now,
		},
		Settings: model.Settings{
			DefaultCommission: f.DefaultCommission,
			UpdatedAt:         now,
		},
	}

	for _, u := range f.Users {
		doc.Users = append(doc.Users, model.User{
			ID:        uuid.NewString(),
			Email:     strings.ToLower(strings.TrimSpace(u.Email)),
			CreatedAt: now,
		})
	}
	for _, c := range f.Currencies {
		doc.Currencies = append(doc.Currencies, model.Currency{
			ID:             uuid.NewString(),
			Code:           strings.ToUpper(strings.TrimSpace(c.Code)),
			Name:           c.Name,
			CommissionRate: c.CommissionRate,
			Enabled:        !c.Disabled,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	for _, r := range f.Rates {
		doc.Rates = append(doc.Rates, model.Rate{
			ID:           uuid.NewString(),
			FromCurrency: strings.ToUpper(r.From),
			ToCurrency:   strings.ToUpper(r.To),
			Rate:         r.Rate,
			Trend:        model.TrendStable,
			UpdatedAt:    now,
		})
	}
	return doc
}

// Passwords returns the default passwords listed in the seed, keyed by lowercase email.
func (f *File) Passwords() map[string]string {
	out := make(map[string]string)
	for _, u := range f.Users {
		if u.Password != "" {
			out[strings.ToLower(strings.TrimSpace(u.Email))] = u.Password
		}
	}
	return out
}

// Open loads the seed file at path, or returns Builtin when path is empty.
func Open(path string) (*File, error) {
	if path == "" {
		return Builtin(), nil
	}
	return Load(path)
}
