package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// CookieName is the browser cookie carrying the session id.
const CookieName = "easyfinance_session"

// Manager binds a Store to the session cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
}

func NewManager(store Store, ttl time.Duration, secureCookie bool) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secureCookie}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Begin stores token and sets the session cookie on w.
func (m *Manager) Begin(ctx context.Context, w http.ResponseWriter, token string) error {
	id, err := m.store.Save(ctx, token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// FromRequest returns the backend token of the request's session.
func (m *Manager) FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	token, err := m.store.Token(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.WarnContext(r.Context(), "Session lookup failed", "error", err)
		}
		return "", false
	}
	return token, true
}

// End deletes the request's session, if any, and expires the cookie.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if err := m.store.Delete(r.Context(), c.Value); err != nil {
			slog.WarnContext(r.Context(), "Failed to delete session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKey struct{}

// WithToken returns a context carrying the backend token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// TokenFrom returns the token stored by WithToken.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(contextKey{}).(string)
	return token, ok && token != ""
}

// Require is middleware that rejects requests without a live session by
// calling onMissing, and otherwise threads the token through the context.
func (m *Manager) Require(onMissing http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := m.FromRequest(r)
			if !ok {
				onMissing(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}
