package model

import "time"

// User mirrors the 'users' table. PasswordHash and RefreshToken are never
// serialized to API responses.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Confirmed    bool      `json:"confirmed"`
	Avatar       *string   `json:"avatar"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
