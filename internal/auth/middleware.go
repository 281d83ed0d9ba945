package auth

import (
	"context"
	"net/http"

	"github.com/miguelr/journal-cms/internal/model"
)

// CookieName is the session cookie. HttpOnly everywhere it's set, so
// page JavaScript can never read the token.
const CookieName = "session"

// SessionStore is the slice of the session repository the middleware
// needs. Declaring it here (instead of importing the repository package)
// keeps auth free of storage concerns and lets tests hand in a two-method
// fake.
type SessionStore interface {
	GetSessionByID(ctx context.Context, id string) (*model.Session, error)
}

// contextKey is an unexported type for context keys in this package.
// A package-private key type means no other package can read or shadow the
// values we store — a plain string key would be up for grabs.
type contextKey string

const (
	sessionIDKey contextKey = "sessionID"
	userIDKey    contextKey = "userID"
)

// RequireSession gates every protected route.
//
// It reads the session cookie, verifies the token signature, loads the
// session row, and rejects expired or deleted sessions. On success the
// session and user IDs go into the request context for handlers; on any
// failure the browser is redirected to /login — protected pages never
// render partial data to an anonymous visitor.
//
// A redirect (not a 401 page) because this is a server-rendered app: the
// correct "error page" for a logged-out user is the login form itself.
func RequireSession(tokens *TokenService, sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := authenticate(r, tokens, sessions)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sess.ID)
			ctx = context.WithValue(ctx, userIDKey, sess.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the authenticated session's ID.
// ok is false on anonymous requests (routes outside RequireSession).
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// UserIDFromContext returns the authenticated user's ID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// authenticate runs the full cookie → token → session-row check.
func authenticate(r *http.Request, tokens *TokenService, sessions SessionStore) (*model.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie — simply not logged in.
		return nil, err
	}

	sessionID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return nil, err
	}

	sess, err := sessions.GetSessionByID(r.Context(), sessionID)
	if err != nil {
		// Deleted row = logged out elsewhere; same outcome as no cookie.
		return nil, err
	}
	if sess.Expired() {
		return nil, http.ErrNoCookie
	}

	return sess, nil
}
