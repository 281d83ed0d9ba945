// Package model defines the data structures used throughout the application.
package model

import "time"

// Session is the server-side record binding a browser to a logged-in user.
//
// The browser only ever holds a signed token containing the session ID.
// Everything that matters — who the session belongs to, when it expires —
// lives in this row, so logging out (deleting the row) immediately kills
// the session no matter what cookies are still floating around.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is past its expiry time.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}
