// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered journal account.
//
// Name, Username, and Email are all UNIQUE in the database — the signup flow
// relies on those constraints to reject duplicates instead of racing a
// SELECT-then-INSERT.
//
// WHY PasswordHash AND NOT Password?
// We never store or pass around the plaintext password. The field holds the
// bcrypt hash (salt included in the hash string itself), and the json:"-"
// tag makes it impossible to accidentally serialize it into a response.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
