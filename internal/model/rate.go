package model

import "time"

// Trend values carried by a Rate.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Rate is the exchange rate of a directed currency pair.
type Rate struct {
	ID            string    `json:"id"`
	FromCurrency  string    `json:"fromCurrency"`
	ToCurrency    string    `json:"toCurrency"`
	Rate          string    `json:"rate"`
	ChangePercent string    `json:"changePercent,omitempty"`
	Trend         string    `json:"trend,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
	UpdatedBy     string    `json:"updatedById,omitempty"`
}
