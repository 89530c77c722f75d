package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"easyfinance/internal/api"
	applog "easyfinance/internal/log"
	"easyfinance/internal/session"
)

const (
	loginPath        = "/login"
	expiredLoginPath = "/login?expired=1"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// isFragmentRequest reports an htmx request that is not a boosted
// navigation, so the response replaces an element and not the page.
func isFragmentRequest(r *http.Request) bool {
	return isHTMX(r) && r.Header.Get("HX-Boosted") != "true"
}

func fragmentError(status int, message string) *HTMXResponseBuilder {
	switch status {
	case http.StatusBadRequest:
		return BadRequestError(message)
	case http.StatusNotFound:
		return NotFoundError(message)
	case http.StatusUnprocessableEntity:
		return UnprocessableEntityError(message)
	case http.StatusInternalServerError:
		return InternalServerError(message)
	default:
		return ErrorResponse(status, message)
	}
}

// requestLog carries the request id and route component of ctx.
func requestLog(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}

// redirect sends a full navigation. HTMX requests get HX-Redirect so the
// browser leaves the boosted page instead of swapping the target in.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(target).Write(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, loginPath)
}

// expireSession ends the session after the backend rejected its token.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.End(w, r)
	s.appMetrics.sessionsExpired.Add(1)
	s.logger.WithComponent(applog.ComponentAuth).InfoContext(r.Context(), "Session expired",
		applog.FieldPath, r.URL.Path)
	redirect(w, r, expiredLoginPath)
}

// handleUnauthorized applies the session expiry policy to err. It reports
// whether the response has been written.
func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, api.ErrUnauthorized) {
		s.expireSession(w, r)
		return true
	}
	return false
}

// backendStatus maps a backend failure to the status of the re-rendered page.
func backendStatus(err error) int {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return apiErr.Status
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// errorType classifies err for structured logs.
func errorType(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return applog.ErrorTypeAuth
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		return applog.ErrorTypeNotFound
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict:
		return applog.ErrorTypeConflict
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return applog.ErrorTypeValidation
	case errors.As(err, &apiErr):
		return applog.ErrorTypeInternal
	default:
		return applog.ErrorTypeNetwork
	}
}

func (s *Server) backendFailed(ctx context.Context, component, op string, err error) {
	s.appMetrics.backendErrors.Add(1)
	requestLog(ctx).LogBackendFailure(ctx, component, op, err, errorType(err))
}

// token returns the backend token attached by the session middleware.
func token(r *http.Request) string {
	t, _ := session.TokenFrom(r.Context())
	return t
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// formID parses an optional positive id form or query value. Empty means 0.
func formID(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// resolveImageURL turns a host-relative receipt path from the backend into
// an absolute URL on the backend's origin.
func (s *Server) resolveImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || s.backendOrigin == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return raw
	}
	return s.backendOrigin.ResolveReference(ref).String()
}
