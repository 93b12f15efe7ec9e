package http

import (
	"errors"
	"net/http"
	"time"

	"finanzas/internal/core"
)

const sessionCookieName = "session"

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	ttl := s.auth.Sessions().TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUser resolves the session cookie. Any failure, including a token
// for a user that no longer exists, is reported as core.ErrMissingSession;
// other errors are storage failures.
func (s *Server) currentUser(r *http.Request) (core.User, error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return core.User{}, core.ErrMissingSession
	}
	return s.auth.Authenticate(r.Context(), c.Value)
}

func hasSessionCookie(r *http.Request) bool {
	_, err := r.Cookie(sessionCookieName)
	return !errors.Is(err, http.ErrNoCookie)
}
