// Package client is the dashboard's typed client for the servicebook REST API.
package client

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
	"time"

	"github.com/frahmantamala/servicebook/internal/session"
)

// LoginFallbackMessage is shown when a failed login carries no detail.
const LoginFallbackMessage = "Ошибка входа"

// ErrUnauthenticated marks a profile fetch the API refused. Callers demote to the anonymous view.
var ErrUnauthenticated = errors.New("client: unauthenticated")

// TokenSource is read on every request, so clearing the session drops the header on the next call.
type TokenSource interface {
	Get() string
}

// SessionStore is what Login needs to persist the token.
type SessionStore interface {
	TokenSource
	Set(token string)
}

// TransportError wraps a failure that produced no HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response. Detail is set when the body was a {"detail": ...} object;
// otherwise Body holds the raw text.
type HTTPError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("Ошибка %d", e.StatusCode)
}

type Config struct {
	BaseURL string
	// Timeout bounds each request; 0 means none.
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		http:    &http.Client{Timeout: config.Timeout},
		tokens:  session.NewStore(""),
		logger:  logger,
	}
}

// For returns a client bound to one browser session.
func (c *Client) For(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

type apiResponse struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload interface{}, authenticated bool) (*apiResponse, error) {
	op := method + " " + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if token := c.tokens.Get(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "op", op, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	c.logger.Debug("api request", "op", op, "status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(resp.StatusCode, data)
	}
	return &apiResponse{status: resp.StatusCode, body: data}, nil
}

func newHTTPError(status int, body []byte) *HTTPError {
	herr := &HTTPError{StatusCode: status, Body: string(body)}
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		herr.Detail = parsed.Detail
	}
	return herr
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil, true)
	if err != nil {
		return err
	}
	return decode(resp.body, dst)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, dst interface{}) error {
	resp, err := c.do(ctx, method, path, nil, payload, true)
	if err != nil {
		return err
	}
	if dst == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	return decode(resp.body, dst)
}

func decode(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeList accepts a bare array or a paginated {"results": [...]} object.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := decode(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := decode(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return []T{}, nil
	}
	return page.Results, nil
}

func (c *Client) list(ctx context.Context, path string, q url.Values) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil, true)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// Login exchanges credentials for tokens and stores the access token in s before returning.
func (c *Client) Login(ctx context.Context, s SessionStore, username, password string) (*Tokens, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/token/", nil, map[string]string{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		var herr *HTTPError
		if errors.As(err, &herr) && herr.Detail == "" {
			herr.Detail = LoginFallbackMessage
		}
		return nil, err
	}

	var tokens Tokens
	if err := decode(resp.body, &tokens); err != nil {
		return nil, err
	}
	if tokens.Access == "" {
		return nil, &HTTPError{StatusCode: resp.status, Detail: LoginFallbackMessage}
	}
	s.Set(tokens.Access)
	return &tokens, nil
}

// Me fetches the profile of the session's user. Any failure wraps ErrUnauthenticated.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	if c.tokens.Get() == "" {
		return nil, ErrUnauthenticated
	}
	var p Profile
	if err := c.getJSON(ctx, "/api/me/", nil, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return &p, nil
}

// Search is the public serial lookup. It never sends credentials. Zero matches is an empty
// slice and a nil error.
func (c *Client) Search(ctx context.Context, term string) ([]PublicMachine, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/search", url.Values{"q": {term}}, nil, false)
	if err != nil {
		return nil, err
	}
	return decodeList[PublicMachine](resp.body)
}
