// Package repository contains the data access layer. Absence of a row is a
// first-class result here, reported through sentinel errors rather than
// panics, so handlers can translate it into a 404 response.
package repository

import "errors"

// ErrContactNotFound is returned when a contact does not exist or is owned
// by a different user. The two cases are deliberately indistinguishable.
var ErrContactNotFound = errors.New("contact not found")

// ErrEmailExists is returned when user creation hits the unique email
// constraint.
var ErrEmailExists = errors.New("email already exists")
