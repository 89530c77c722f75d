package http

import (
	"errors"
	"net/http"
	"strings"

	"easyfinance/internal/api"
	"easyfinance/internal/core"
	applog "easyfinance/internal/log"
)

const (
	noticeExpired    = "Your session has expired, please log in again."
	noticeRegistered = "Registration successful, please log in."
	noticeLoggedOut  = "You have been logged out."

	msgInvalidCredentials = "Invalid email or password."
	msgLoginFailed        = "Login failed, please try again later."
	msgRegisterFailed     = "Registration failed, please try again."
)

type loginPage struct {
	pageMeta
	Email string
}

type registerPage struct {
	pageMeta
	Name  string
	Email string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.FromRequest(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.FromRequest(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	page := loginPage{pageMeta: pageMeta{Title: "Login"}}
	q := r.URL.Query()
	switch {
	case q.Get("expired") == "1":
		page.Notice = noticeExpired
	case q.Get("registered") == "1":
		page.Notice = noticeRegistered
	case q.Get("logged_out") == "1":
		page.Notice = noticeLoggedOut
	}
	s.render(w, r, http.StatusOK, pageLogin, page)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	creds := core.Credentials{
		Email:    sanitizeInput(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	page := loginPage{pageMeta: pageMeta{Title: "Login"}, Email: creds.Email}
	logger := applog.FromContext(r.Context())

	if err := creds.Validate(); err != nil {
		page.Error = capitalize(err.Error())
		s.render(w, r, http.StatusUnprocessableEntity, pageLogin, page)
		return
	}

	tok, err := s.backend.Login(r.Context(), creds)
	if err != nil {
		s.appMetrics.loginFailures.Add(1)
		status := http.StatusUnauthorized
		if errors.Is(err, api.ErrUnauthorized) {
			page.Error = msgInvalidCredentials
			logger.InfoContext(r.Context(), "Login rejected", applog.FieldOperation, applog.OpLogin)
		} else {
			page.Error = msgLoginFailed
			status = backendStatus(err)
			s.backendFailed(r.Context(), applog.ComponentAuth, applog.OpLogin, err)
		}
		s.render(w, r, status, pageLogin, page)
		return
	}

	if err := s.sessions.Begin(r.Context(), w, tok); err != nil {
		logger.ErrorContext(r.Context(), "Failed to start session", "error", err)
		page.Error = msgLoginFailed
		s.render(w, r, http.StatusInternalServerError, pageLogin, page)
		return
	}

	s.appMetrics.logins.Add(1)
	logger.InfoContext(r.Context(), "User logged in", applog.FieldOperation, applog.OpLogin)
	redirect(w, r, "/dashboard")
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageRegister, registerPage{pageMeta: pageMeta{Title: "Register"}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	reg := core.Registration{
		Name:                 sanitizeInput(r.PostForm.Get("name")),
		Email:                sanitizeInput(r.PostForm.Get("email")),
		Password:             r.PostForm.Get("password"),
		PasswordConfirmation: r.PostForm.Get("password_confirmation"),
	}
	page := registerPage{
		pageMeta: pageMeta{Title: "Register"},
		Name:     reg.Name,
		Email:    reg.Email,
	}

	if err := reg.Validate(); err != nil {
		page.Error = capitalize(err.Error())
		s.render(w, r, http.StatusUnprocessableEntity, pageRegister, page)
		return
	}

	if err := s.backend.Register(r.Context(), reg); err != nil {
		s.backendFailed(r.Context(), applog.ComponentAuth, applog.OpRegister, err)
		page.Error = api.MessageOf(err, msgRegisterFailed)
		s.render(w, r, backendStatus(err), pageRegister, page)
		return
	}

	s.appMetrics.registrations.Add(1)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User registered",
		applog.FieldOperation, applog.OpRegister)
	redirect(w, r, "/login?registered=1")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(w, r)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User logged out",
		applog.FieldOperation, applog.OpLogout)
	redirect(w, r, "/login?logged_out=1")
}

// capitalize upper-cases the first letter of a validation message.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
