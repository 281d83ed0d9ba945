package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/miguelr/journal-cms/internal/apperror"
	"github.com/miguelr/journal-cms/internal/auth"
	"github.com/miguelr/journal-cms/internal/service"
)

// AuthHandler serves the login, signup, and logout flow.
type AuthHandler struct {
	auth   *service.AuthService
	render *Renderer
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, render *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, render: render, logger: logger}
}

// HandleLoginForm shows the login page.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "login.html", map[string]any{
		"Title": "Log in",
	})
}

// HandleLogin processes the login form.
//
// HTTP: POST /login — fields: username, password, remember
//
// Success sets the session cookie and redirects to the dashboard. Bad
// credentials render the "invalid" notice — one page for both unknown
// username and wrong password, so the form leaks nothing about which.
//
// COOKIE LIFETIME:
// Without "remember me", the cookie gets no Max-Age: it's a browser-session
// cookie, gone when the browser closes (the server-side row still caps it
// at 24h). With "remember me", Max-Age pins it for the 30-day session.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	remember := r.PostFormValue("remember") != ""

	result, err := h.auth.Login(r.Context(), username, password, remember)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidCredentials) {
			h.render.HTML(w, http.StatusOK, "invalid.html", map[string]any{
				"Title": "Invalid login",
			})
			return
		}
		h.render.ServerError(w, err)
		return
	}

	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable when serving over HTTPS
	}
	if result.Remember {
		cookie.MaxAge = int(result.TTL.Seconds())
	}
	http.SetCookie(w, cookie)

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleSignupForm shows the registration page.
//
// HTTP: GET /signup
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, http.StatusOK, "signup.html", map[string]any{
		"Title":  "Sign up",
		"Errors": apperror.FieldErrors{},
		"Values": map[string]string{},
	})
}

// HandleSignup processes the registration form.
//
// HTTP: POST /signup — fields: name, email, username, password
//
// Validation failures (including duplicate name/username/email) re-render
// the form with per-field messages and the previously typed values (minus
// the password). Success renders the new-user confirmation page.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	name := r.PostFormValue("name")
	email := r.PostFormValue("email")
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.auth.Signup(r.Context(), name, email, username, password)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.render.HTML(w, http.StatusOK, "signup.html", map[string]any{
				"Title":  "Sign up",
				"Errors": fieldErrors(err),
				"Values": map[string]string{
					"name":     name,
					"email":    email,
					"username": username,
				},
			})
			return
		}
		h.render.ServerError(w, err)
		return
	}

	h.render.HTML(w, http.StatusOK, "new-user.html", map[string]any{
		"Title": "Account created",
		"User":  user,
	})
}

// HandleLogout destroys the current session and clears the cookie.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := auth.SessionIDFromContext(r.Context()); ok {
		if err := h.auth.Logout(r.Context(), sessionID); err != nil {
			// Cookie still gets cleared below; the orphan row expires.
			h.logger.Error("logout failed", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fieldErrors normalizes a validation error into the map the signup
// template iterates over: a FieldErrors passes through, a single
// field-tagged AppError becomes a one-entry map.
func fieldErrors(err error) apperror.FieldErrors {
	var fe apperror.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	var ae *apperror.AppError
	if errors.As(err, &ae) && ae.Field != "" {
		return apperror.FieldErrors{ae.Field: ae.Message}
	}
	return apperror.FieldErrors{"form": err.Error()}
}
