package model

import "strings"

// Document is the whole persisted state of the desk.
type Document struct {
	Users          []User         `json:"users"`
	Currencies     []Currency     `json:"currencies"`
	Rates          []Rate         `json:"rates"`
	OfficeLocation OfficeLocation `json:"officeLocation"`
	Settings       Settings       `json:"settings"`
	Sessions       []Session      `json:"sessions"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Users:          make([]User, len(d.Users)),
		Currencies:     append([]Currency(nil), d.Currencies...),
		Rates:          append([]Rate(nil), d.Rates...),
		OfficeLocation: d.OfficeLocation,
		Settings:       d.Settings,
		Sessions:       append([]Session(nil), d.Sessions...),
	}
	for i, u := range d.Users {
		if u.LastLogin != nil {
			t := *u.LastLogin
			u.LastLogin = &t
		}
		out.Users[i] = u
	}
	if out.Currencies == nil {
		out.Currencies = []Currency{}
	}
	if out.Rates == nil {
		out.Rates = []Rate{}
	}
	if out.Sessions == nil {
		out.Sessions = []Session{}
	}
	return out
}

// FindUser returns the user with the given email, compared case-insensitively.
func (d *Document) FindUser(email string) *User {
	for i := range d.Users {
		if strings.EqualFold(d.Users[i].Email, email) {
			return &d.Users[i]
		}
	}
	return nil
}

// FindCurrency returns the currency with the given code, compared case-insensitively.
func (d *Document) FindCurrency(code string) *Currency {
	for i := range d.Currencies {
		if strings.EqualFold(d.Currencies[i].Code, code) {
			return &d.Currencies[i]
		}
	}
	return nil
}
