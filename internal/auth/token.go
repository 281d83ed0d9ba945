// Package auth — session cookie tokens.
//
// SESSION FLOW:
//  1. Login verifies the password and creates a session ROW in the database
//  2. The session's ID is wrapped in a signed JWT and set as an HttpOnly cookie
//  3. On each request, middleware verifies the signature, then loads the
//     session row and checks it hasn't expired or been deleted
//  4. Logout deletes the row — the cookie out in the wild is now worthless
//
// WHY SIGN THE SESSION ID AT ALL?
// The authority lives server-side (the row), so the signature isn't doing
// stateless auth — it's tamper-proofing. A signed token means nobody can
// sit there guessing session IDs against the database: requests with a bad
// signature are rejected before any lookup happens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "journal-cms"

// TokenService signs and verifies session tokens. It holds the HMAC secret
// used for both operations — keep it out of source control and stable
// across restarts, or every login dies with the process.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. SESSION_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the token payload. The standard "sub" claim carries the
// session ID — not the user ID; the user is resolved from the session row.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for the given session ID, valid for ttl.
// The token expiry mirrors the session row's expires_at, so the cookie and
// the row age out together.
func (s *TokenService) Generate(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and returns the session ID.
//
// The jwt library checks the signature, expiry, and issuer. Restricting
// the accepted algorithms to HS256 closes the classic "alg confusion"
// hole where an attacker picks their own signing method.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session token expired")
		}
		return "", fmt.Errorf("auth: invalid session token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid session token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: session token has no subject")
	}

	return c.Subject, nil
}
