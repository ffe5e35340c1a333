package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"synexis/internal/httputil"
)

// CookieName is the session cookie set on login.
const CookieName = "synexis_session"

// SetSessionCookie writes the session cookie. Secure cookies use
// SameSite=None so a separately hosted frontend can send them.
func SetSessionCookie(w http.ResponseWriter, id string, ttl time.Duration, secure bool) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		c.SameSite = http.SameSiteNoneMode
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   -1,
	}
	if secure {
		c.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, c)
}

// SessionID returns the session cookie value, or "".
func SessionID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireSession rejects requests without a live session with 401 and
// stores the principal on the request context otherwise.
func RequireSession(svc *Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := svc.Authenticate(r.Context(), SessionID(r))
			if errors.Is(err, ErrSessionNotFound) {
				httputil.Fail(log, w, "Not authenticated.", nil, http.StatusUnauthorized)
				return
			}
			if err != nil {
				httputil.Fail(log, w, "Session lookup failed.", err, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
