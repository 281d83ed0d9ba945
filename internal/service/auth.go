// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier shape:
//
//	Handler (HTTP)        → parses forms, renders templates, sets cookies
//	Service (this layer)  → validation, auth rules, index consistency
//	Repository (storage)  → SQL against SQLite
//
// Services accept repository INTERFACES, not concrete types, so the tests
// in this package run against in-memory fakes with no database at all.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/auth"
	"github.com/miguelr/journal-cms/internal/model"
	"github.com/miguelr/journal-cms/internal/repository"
)

// Signup field rules. These mirror the registration form's constraints and
// are enforced here — every caller gets them, not just the HTTP form.
const (
	MinNameLength     = 4
	MaxNameLength     = 15
	MinUsernameLength = 4
	MaxUsernameLength = 15
	MinPasswordLength = 8
	MaxPasswordLength = 80
	MaxEmailLength    = 50
)

// Session lifetimes. A plain login gets a browser-session cookie backed by
// a 24h server-side row; "remember me" stretches both to 30 days.
const (
	SessionTTL  = 24 * time.Hour
	RememberTTL = 30 * 24 * time.Hour
)

// AuthService owns login, signup, logout, and session resolution.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAuthService wires an AuthService. Called from the composition root in
// internal/server.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// LoginResult bundles everything the login handler needs to finish the
// request: the user (for the redirect target's greeting), the session row,
// the signed cookie token, and how long the cookie should live.
type LoginResult struct {
	User     *model.User
	Session  *model.Session
	Token    string
	TTL      time.Duration
	Remember bool
}

// Login authenticates a username/password pair and, on success, creates a
// server-side session and its signed cookie token.
//
// An unknown username and a wrong password both return
// apperror.ErrInvalidCredentials — the login page must not reveal which
// half was wrong, so neither does the service.
func (s *AuthService) Login(ctx context.Context, username, password string, remember bool) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", slog.String("username", username))
		return nil, apperror.ErrInvalidCredentials
	}

	ttl := SessionTTL
	if remember {
		ttl = RememberTTL
	}

	sess := &model.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("service/auth: creating session for %s: %w", user.ID, err)
	}

	token, err := s.tokens.Generate(sess.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for session %s: %w", sess.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.Bool("remember", remember),
	)

	return &LoginResult{
		User:     user,
		Session:  sess,
		Token:    token,
		TTL:      ttl,
		Remember: remember,
	}, nil
}

// Signup validates the registration form, hashes the password, and creates
// the account.
//
// Validation failures come back as apperror.FieldErrors so the form can
// show every problem at once instead of one per submit. Duplicate
// name/username/email surfaces the same way (from the repository), never
// as a 500.
func (s *AuthService) Signup(ctx context.Context, name, email, username, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if errs := validateSignup(name, email, username, password); len(errs) > 0 {
		return nil, errs
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Duplicate name/username/email arrives as a field-tagged
		// validation error — pass it straight through to the form.
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Logout destroys the session. Already-gone sessions are fine — logging
// out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: deleting session %s: %w", sessionID, err)
	}
	s.logger.Info("user logged out", slog.String("sessionID", sessionID))
	return nil
}

// UserByID resolves a user record, typically from the user ID the session
// middleware put in the request context.
func (s *AuthService) UserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// CleanupExpiredSessions removes dead session rows. Run at startup.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	n, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("service/auth: cleaning up sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", slog.Int64("count", n))
	}
	return nil
}

// validateSignup applies the form's field rules and collects every failure.
func validateSignup(name, email, username, password string) apperror.FieldErrors {
	errs := apperror.FieldErrors{}

	if l := len(name); l < MinNameLength || l > MaxNameLength {
		errs["name"] = fmt.Sprintf("name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	if l := len(username); l < MinUsernameLength || l > MaxUsernameLength {
		errs["username"] = fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	if l := len(password); l < MinPasswordLength || l > MaxPasswordLength {
		errs["password"] = fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)
	}
	if email == "" || len(email) > MaxEmailLength {
		errs["email"] = fmt.Sprintf("email is required and must be %d characters or fewer", MaxEmailLength)
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "invalid email"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
