// Package apiclient is the request pipeline every call to the remote API
// goes through. It attaches the session token, tracks the loading
// indicator, unwraps the {code, message, data} envelope and turns every
// failure into a user-visible notification.
package apiclient

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

	"github.com/ziadkadry99/studyguide/internal/metrics"
	"github.com/ziadkadry99/studyguide/internal/router"
)

const (
	// DefaultTimeout applies when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second
	// DefaultLoginPath is where a 401 sends the navigator.
	DefaultLoginPath = "/login"

	notificationSource = "request"
	maxBodyBytes       = 10 << 20
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource returns the bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// LoadingTracker drives the global loading indicator. Every BeginRequest is
// matched by exactly one EndRequest with the returned ticket.
type LoadingTracker interface {
	BeginRequest() string
	EndRequest(id string)
}

// SessionTerminator clears the session after a 401.
type SessionTerminator interface {
	Logout(ctx context.Context) error
}

// Navigator moves the application to another view.
type Navigator interface {
	Navigate(ctx context.Context, path string) (router.Route, error)
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Error(ctx context.Context, source, message string)
}

// Options configures a Client. Nil collaborators are replaced by no-ops.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient Doer
	Tokens     TokenSource
	Loading    LoadingTracker
	Session    SessionTerminator
	Navigator  Navigator
	Notifier   Notifier
	LoginPath  string
	Logger     *slog.Logger
	Metrics    *metrics.Pipeline
}

// Client performs API calls. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	timeout   time.Duration
	http      Doer
	tokens    TokenSource
	loading   LoadingTracker
	session   SessionTerminator
	navigator Navigator
	notifier  Notifier
	loginPath string
	logger    *slog.Logger
	metrics   *metrics.Pipeline
}

// Response is a successful call's unwrapped payload.
type Response struct {
	Status int
	Header http.Header
	// Data is the envelope's data field, or the whole body when data is
	// absent or null.
	Data json.RawMessage
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", opts.BaseURL)
	}

	c := &Client{
		base:      base,
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
		tokens:    opts.Tokens,
		loading:   opts.Loading,
		session:   opts.Session,
		navigator: opts.Navigator,
		notifier:  opts.Notifier,
		loginPath: opts.LoginPath,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.tokens == nil {
		c.tokens = noToken{}
	}
	if c.loading == nil {
		c.loading = noLoading{}
	}
	if c.notifier == nil {
		c.notifier = noNotifier{}
	}
	if c.loginPath == "" {
		c.loginPath = DefaultLoginPath
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// WithTokens returns a copy of c that reads the bearer token from t.
func (c *Client) WithTokens(t TokenSource) *Client {
	cp := *c
	cp.tokens = t
	return &cp
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Get sends a GET with params as the query string.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.send(ctx, http.MethodGet, path, params, nil, "")
}

// Delete sends a DELETE with params as the query string.
func (c *Client) Delete(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.send(ctx, http.MethodDelete, path, params, nil, "")
}

// Post sends body as JSON. A nil body is sent as {}.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body)
}

// Put sends body as JSON. A nil body is sent as {}.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPut, path, body)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) (*Response, error) {
	payload := []byte("{}")
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}
	return c.send(ctx, method, path, nil, payload, "application/json")
}

// resolve joins path onto the base URL and merges params into its query.
func (c *Client) resolve(path string, params url.Values) (*url.URL, error) {
	if strings.TrimSpace(path) == "" || strings.HasPrefix(path, "//") {
		return nil, ErrInvalidPath
	}
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() || ref.Host != "" {
		return nil, ErrInvalidPath
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	q := ref.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return &u, nil
}

// send performs one attempt. Path and body are validated before the loading
// ticket is taken, so invalid calls have no side effects.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body []byte, contentType string) (*Response, error) {
	target, err := c.resolve(path, params)
	if err != nil {
		return nil, err
	}

	ticket := c.loading.BeginRequest()
	defer c.loading.EndRequest(ticket)

	c.metrics.Started()
	start := time.Now()
	resp, err := c.roundTrip(ctx, method, target, ticket, body, contentType)
	elapsed := time.Since(start)

	outcome := OutcomeOf(err)
	c.metrics.Finished(method, string(outcome), elapsed)

	attrs := []any{
		"method", method,
		"path", target.Path,
		"outcome", outcome,
		"duration", elapsed,
		"request_id", ticket,
	}
	if resp != nil {
		attrs = append(attrs, "status", resp.Status)
	}
	if err == nil {
		c.logger.Debug("api request", attrs...)
		return resp, nil
	}

	attrs = append(attrs, "error", err)
	c.logger.Warn("api request failed", attrs...)
	c.fail(ctx, err)
	return nil, err
}

func (c *Client) roundTrip(ctx context.Context, method string, target *url.URL, ticket string, body []byte, contentType string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, noResponseError(err)
	}
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", ticket)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, noResponseError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, statusError(resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, noResponseError(err)
	}

	data, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Data: data}, nil
}

// fail runs the side effects every failed call has: one notification and,
// for 401, session teardown and a redirect to the login view.
func (c *Client) fail(ctx context.Context, err error) {
	var te *TransportError
	var be *BusinessError
	switch {
	case errors.As(err, &te):
		if te.Unauthorized() {
			c.expireSession(ctx)
		}
		c.notifier.Error(ctx, notificationSource, te.Message)
	case errors.As(err, &be):
		c.notifier.Error(ctx, notificationSource, be.Message)
	}
}

func (c *Client) expireSession(ctx context.Context) {
	// The caller's context may already be done; teardown must still happen.
	ctx = context.WithoutCancel(ctx)
	if c.session != nil {
		if err := c.session.Logout(ctx); err != nil {
			c.logger.Error("clearing session after 401", "error", err)
		}
	}
	if c.navigator != nil {
		if _, err := c.navigator.Navigate(ctx, c.loginPath); err != nil {
			c.logger.Error("redirecting to login", "error", err)
		}
	}
}

type noToken struct{}

func (noToken) Token() string { return "" }

type noLoading struct{}

func (noLoading) BeginRequest() string { return "" }
func (noLoading) EndRequest(string)    {}

type noNotifier struct{}

func (noNotifier) Error(context.Context, string, string) {}
