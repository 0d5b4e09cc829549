// Package model holds the persisted entities of the contacts service.
// Repositories scan rows into these structs and handlers serialize them
// directly, so the json and db column mapping lives here.
package model

import "time"

// Contact is one address-book entry. Every contact belongs to exactly one
// user (UserID) and is only ever read or written through its owner.
type Contact struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"-"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phonenumber"`
	Birthday    Date      `json:"birthday"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
