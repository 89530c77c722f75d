package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"easyfinance/internal/core"
)

// ErrNoToken is returned when a login succeeds but carries no token.
var ErrNoToken = errors.New("api: login response has no token")

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (string, error) {
	in := map[string]string{
		"email":    strings.TrimSpace(creds.Email),
		"password": creds.Password,
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/login", "", nil, in, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", ErrNoToken
	}
	return out.Token, nil
}

// Register creates an account. The caller logs in separately afterwards.
func (c *Client) Register(ctx context.Context, reg core.Registration) error {
	in := map[string]string{
		"name":                  strings.TrimSpace(reg.Name),
		"email":                 strings.TrimSpace(reg.Email),
		"password":              reg.Password,
		"password_confirmation": reg.PasswordConfirmation,
	}
	return c.doJSON(ctx, http.MethodPost, "/register", "", nil, in, nil)
}
