package http

import (
	"errors"
	"net/http"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", pageData{Title: "Log in"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sl := applog.NewStructuredLogger(applog.FromContext(r.Context()))
	data := pageData{Title: "Log in"}

	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid request"
		s.render(w, r, http.StatusBadRequest, "login.html", data)
		return
	}
	email := sanitizeInput(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	data.Form.Email = email

	token, user, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		sl.LogAuth(r.Context(), applog.OpLogin, 0, err)
		if errors.Is(err, core.ErrInvalidCredentials) {
			s.appMetrics.inc(&s.appMetrics.failedLogins)
			data.Error = "Incorrect email or password"
			s.render(w, r, http.StatusUnauthorized, "login.html", data)
			return
		}
		data.Error = "Login is unavailable right now, please try again"
		s.render(w, r, http.StatusInternalServerError, "login.html", data)
		return
	}

	s.appMetrics.inc(&s.appMetrics.logins)
	sl.LogAuth(r.Context(), applog.OpLogin, user.ID, nil)
	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", pageData{Title: "Create account"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	sl := applog.NewStructuredLogger(applog.FromContext(r.Context()))
	data := pageData{Title: "Create account"}

	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid request"
		s.render(w, r, http.StatusBadRequest, "register.html", data)
		return
	}
	name := sanitizeInput(r.PostForm.Get("name"))
	email := sanitizeInput(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	data.Form = formValues{Name: name, Email: email}

	token, user, err := s.auth.Register(r.Context(), name, email, password)
	if err != nil {
		sl.LogAuth(r.Context(), applog.OpRegister, 0, err)
		status, msg := registerFailure(err)
		data.Error = msg
		s.render(w, r, status, "register.html", data)
		return
	}

	s.appMetrics.inc(&s.appMetrics.registrations)
	sl.LogAuth(r.Context(), applog.OpRegister, user.ID, nil)
	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func registerFailure(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict, "That email is already registered"
	case errors.Is(err, core.ErrEmptyName):
		return http.StatusUnprocessableEntity, "Name is required"
	case errors.Is(err, core.ErrInvalidEmail):
		return http.StatusUnprocessableEntity, "Enter a valid email address"
	case errors.Is(err, core.ErrEmptyPassword):
		return http.StatusUnprocessableEntity, "Password is required"
	case isValidationError(err):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "Registration failed, please try again"
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, err := s.currentUser(r); err == nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogAuth(r.Context(), applog.OpLogout, user.ID, nil)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
