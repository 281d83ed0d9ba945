// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Page represents a single journal entry.
//
// The Date field is a caller-supplied string, NOT a time.Time. The journal
// accepts whatever the user types into the date box ("2024-01-01",
// "last Tuesday", ...) and stores it verbatim — it is display text, not a
// value we ever compute with. CreatedAt/UpdatedAt are the real timestamps.
type Page struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
