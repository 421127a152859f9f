// Package pharmaapi is a typed wrapper over the pharmacy-network admin REST API.
//
// Only the calls the import console needs are covered: bulk creation,
// the lookups that feed context selectors, and login. Authenticated calls
// carry the signed-in user's bearer token through an oauth2 transport.
package pharmaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single API call when the caller sets none.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("the API rejected the session token")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API returned status %d", e.Status)
}

// Client talks to one API base URL. The zero value is not usable; build
// one with New.
type Client struct {
	baseURL *url.URL
	timeout time.Duration
	http    *http.Client
	log     *zap.Logger
}

// New returns an unauthenticated client for baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("API base URL must be http or https, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: u,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}, nil
}

// BaseURL returns the API root this client targets.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// WithToken returns a copy of c that authenticates every request with the
// given bearer token.
func (c *Client) WithToken(token string) *Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: c.timeout})
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.timeout

	cp := *c
	cp.http = hc
	return &cp
}

// BulkCreate posts one batch of records to endpoint wrapped as
// {"<pluralKey>": records}.
func (c *Client) BulkCreate(ctx context.Context, endpoint, pluralKey string, records any) (*BulkResponse, error) {
	body := map[string]any{pluralKey: records}
	var out BulkResponse
	if err := c.do(ctx, http.MethodPost, endpoint, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCountries returns all countries.
func (c *Client) ListCountries(ctx context.Context) ([]Option, error) {
	return c.list(ctx, "/countries", nil)
}

// ListStates returns the states of a country, or every state when
// countryID is empty.
func (c *Client) ListStates(ctx context.Context, countryID ID) ([]Option, error) {
	q := url.Values{}
	if !countryID.IsZero() {
		q.Set("country_id", countryID.String())
	}
	return c.list(ctx, "/states", q)
}

// ListDistributors returns all distributors.
func (c *Client) ListDistributors(ctx context.Context) ([]Option, error) {
	return c.list(ctx, "/distributors", nil)
}

// ListPharmacies returns all pharmacies.
func (c *Client) ListPharmacies(ctx context.Context) ([]Option, error) {
	return c.list(ctx, "/pharmacies", nil)
}

// GetPharmacy fetches one pharmacy.
func (c *Client) GetPharmacy(ctx context.Context, id ID) (*Option, error) {
	var env struct {
		Data *Option `json:"data"`
		Option
	}
	if err := c.do(ctx, http.MethodGet, "/pharmacies/"+url.PathEscape(id.String()), nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Data != nil {
		return env.Data, nil
	}
	return &env.Option, nil
}

// Login exchanges credentials for a bearer token. It is the only call that
// does not need one.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out struct {
		Token       string      `json:"token"`
		AccessToken string      `json:"access_token"`
		User        SessionUser `json:"user"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	token := out.Token
	if token == "" {
		token = out.AccessToken
	}
	if token == "" {
		return nil, errors.New("login response carried no token")
	}
	return &LoginResult{Token: token, User: out.User}, nil
}

// Ping checks that the API answers at all. Any status below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach API: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= 500 {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

// list decodes either {"data": [...]} or a bare array.
func (c *Client) list(ctx context.Context, path string, q url.Values) ([]Option, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var opts []Option
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return opts, nil
	}
	var env struct {
		Data []Option `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage pulls "message" or "error" out of a JSON error body, or
// returns the trimmed body text.
func errorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(b, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return strings.TrimSpace(string(b))
}
