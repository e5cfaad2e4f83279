package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gas-tracker/internal/auth"
)

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(r.Context(), cookie.Value)
		if err != nil {
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		// Rolling session: renew if past halfway point
		now := h.now()
		if sessionInfo.ExpiresAt.Sub(now) < SessionDuration/2 {
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(r.Context(), cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value)
			} else {
				h.logger.WithError(err).WithField("user_id", sessionInfo.User.ID).Warn("session renewal failed")
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Error    string
	Username string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/cars", http.StatusFound)
			return
		}
	}
	h.render(w, r, "login.html", LoginViewModel{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderStatus(w, r, http.StatusBadRequest, "login.html", LoginViewModel{Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	vm := LoginViewModel{Username: username}

	if username == "" || password == "" {
		vm.Error = "Username and password are required"
		h.renderStatus(w, r, http.StatusBadRequest, "login.html", vm)
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), username)
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		h.logger.WithField("username", username).Info("failed login")
		vm.Error = "Invalid username or password"
		h.renderStatus(w, r, http.StatusUnauthorized, "login.html", vm)
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.logger.WithError(err).Error("failed to generate session token")
		vm.Error = "An error occurred. Please try again."
		h.renderStatus(w, r, http.StatusInternalServerError, "login.html", vm)
		return
	}

	expiresAt := h.now().Add(SessionDuration)
	if err := h.db.CreateSession(r.Context(), token, user.ID, expiresAt); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("failed to create session")
		vm.Error = "An error occurred. Please try again."
		h.renderStatus(w, r, http.StatusInternalServerError, "login.html", vm)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/cars", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.logger.WithError(err).Warn("failed to delete session")
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// SetTimezone stores the browser's timezone for rendering and parsing
// datetimes. Unknown zone names are rejected.
func (h *Handlers) SetTimezone(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("timezone"))
	if _, err := time.LoadLocation(name); err != nil || name == "" {
		http.Error(w, "Unknown timezone", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TimezoneCookieName,
		Value:    name,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// location is the request's display timezone, UTC when unset.
func (h *Handlers) location(r *http.Request) *time.Location {
	cookie, err := r.Cookie(TimezoneCookieName)
	if err != nil || cookie.Value == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(cookie.Value)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
