// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered marketplace account.
//
// The email is the primary key: it is stored trimmed and lowercased and must
// belong to the institutional domain. Records are created on registration and
// never mutated or deleted.
type User struct {
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
