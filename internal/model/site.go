package model

import "time"

// OfficeLocation is the singleton address of the exchange office.
type OfficeLocation struct {
	Street     string    `json:"street"`
	City       string    `json:"city"`
	PostalCode string    `json:"postalCode"`
	MapURL     string    `json:"mapUrl"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Settings holds desk-wide defaults.
type Settings struct {
	DefaultCommission string    `json:"defaultCommission"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
