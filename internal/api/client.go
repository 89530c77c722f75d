// Package api is the HTTP client for the external finance backend.
//
// Every call is a single attempt with no retry. The caller's context is the
// only deadline; the client does not impose a timeout of its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ErrUnauthorized is returned for any 401 response. Callers treat it as the
// end of the session.
var ErrUnauthorized = errors.New("api: unauthorized")

// ErrMalformedList is returned alongside an empty slice when a collection
// response is neither a JSON array nor a {data:[...]} envelope.
var ErrMalformedList = errors.New("api: malformed list response")

// Error is a non-401 error response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// MessageOf returns the backend-supplied message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Client talks to the backend rooted at baseURL.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

// New creates a client. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: u}, nil
}

// BaseURL returns the backend root this client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request describes a single backend call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	Token       string
	ContentType string
	// Accept defaults to application/json.
	Accept string
}

// URL resolves a path and query against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()
	return u.String()
}

// Do sends req and maps error statuses. On success the caller owns the
// response body. On failure the body has already been drained and closed.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Path, req.Query), req.Body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	}
	return nil, &Error{Status: resp.StatusCode, Message: readMessage(resp.Body)}
}

// readMessage extracts {"message": "..."} from an error body, if present.
func readMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}

// doJSON sends an optional JSON body and decodes the response into out when
// out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path, token string, query url.Values, in, out any) error {
	req := Request{Method: method, Path: path, Query: query, Token: token}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		req.Body = bytes.NewReader(payload)
		req.ContentType = "application/json"
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// getList fetches a collection endpoint and decodes it with decodeList.
func getList[T any](ctx context.Context, c *Client, path, token string, query url.Values) ([]T, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Token: token})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	items, err := decodeList[T](data)
	if errors.Is(err, ErrMalformedList) {
		slog.WarnContext(ctx, "Backend returned an unexpected list shape", "path", path, "bytes", len(data))
	}
	return items, err
}

// decodeList accepts a bare JSON array or an object with a data array. Any
// other shape yields an empty, non-nil slice and ErrMalformedList.
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)

	var items []T
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return []T{}, fmt.Errorf("%w: %v", ErrMalformedList, err)
		}
		return nonNil(items), nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return []T{}, fmt.Errorf("%w: %v", ErrMalformedList, err)
	}
	raw := bytes.TrimSpace(envelope.Data)
	if len(raw) == 0 || raw[0] != '[' {
		return []T{}, ErrMalformedList
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return []T{}, fmt.Errorf("%w: %v", ErrMalformedList, err)
	}
	return nonNil(items), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
