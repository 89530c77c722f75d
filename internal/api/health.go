package api

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// Ping reports whether the backend answers HTTP at all. Any response,
// including 401 or 404 from the base path, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil
	}
	var apiErr *Error
	if errors.Is(err, ErrUnauthorized) || errors.As(err, &apiErr) {
		return nil
	}
	return err
}
