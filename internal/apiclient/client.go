package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

// Client is an OSN API client. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	jar       http.CookieJar
	transport http.RoundTripper
	timeout   time.Duration
	log       zerolog.Logger
}

// WithCookieJar replaces the default in-memory jar, e.g. with a FileJar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *clientOptions) { o.jar = jar }
}

// WithTransport sets the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithTimeout bounds each request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// NewCookieJar returns an in-memory jar using the public suffix list.
func NewCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) URL", baseURL)
	}

	o := clientOptions{
		transport: http.DefaultTransport,
		timeout:   defaultTimeout,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.jar == nil {
		if o.jar, err = NewCookieJar(); err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Jar:     o.jar,
			Timeout: o.timeout,
			Transport: &csrfTransport{
				base:   o.transport,
				jar:    o.jar,
				origin: u.Scheme + "://" + u.Host,
			},
		},
		jar: o.jar,
		log: o.log.With().Str("component", "apiclient").Logger(),
	}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// CSRFToken returns the decoded XSRF-TOKEN currently held in the jar.
func (c *Client) CSRFToken() (string, bool) {
	return xsrfToken(c.jar, c.baseURL)
}

// do sends one request. A non-nil out receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeUser accepts either a bare user or one wrapped in {"data": ...}.
func decodeUser(raw json.RawMessage) (*User, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		raw = envelope.Data
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == 0 && user.Email == "" {
		return nil, errors.New("decode user: empty payload")
	}
	return &user, nil
}
