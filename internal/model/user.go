package model

import "time"

// User represents an admin account allowed into the panel.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash"`
	MFASecret    string     `json:"mfaSecret,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// UserView is the listing shape of a User. It never carries secrets.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	MFAEnrolled bool       `json:"mfaEnrolled"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

// View strips the password hash and TOTP secret.
func (u User) View() UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		MFAEnrolled: u.MFASecret != "",
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
}
