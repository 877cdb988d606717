package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

const (
	// APIPath is the root all cassette endpoints live under.
	APIPath = "/api"

	// CSRFHeaderName names the header carrying the CSRF token, both in the
	// handshake response and on every request once a token is installed.
	CSRFHeaderName = "cassette_csrf_token"

	// DataPath is the identity/user-data endpoint. Collaborators use it
	// directly, e.g. as a download link for the data export.
	DataPath          = APIPath + "/you"
	CSRFTokenPath     = APIPath + "/csrfToken"
	PlayerStatesPath  = APIPath + "/playerStates"
	ActiveDevicesPath = APIPath + "/activeDevices"
)

// Client is a cassette API client.
//
// A Client owns exactly one *http.Client (with a cookie jar) and the CSRF
// token installed by SetCSRFToken. It is safe for concurrent use; requests
// read the token once while being built, so a concurrent SetCSRFToken may
// or may not affect a request already in flight.
type Client struct {
	httpClient *http.Client
	base       string
	referer    bool
	logger     *slog.Logger
	seed       []*http.Cookie

	mu        sync.RWMutex
	csrfToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc as the transport. If hc has no cookie jar a copy
// of it is made and given one; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCookies seeds the cookie jar, typically with a stored session.
func WithCookies(cookies []*http.Cookie) Option {
	return func(c *Client) {
		c.seed = append(c.seed, cookies...)
	}
}

// WithReferer sends "Referer: <base URL>/" on every request. The server's
// CSRF middleware requires a same-origin referer when served over TLS.
func WithReferer(enabled bool) Option {
	return func(c *Client) {
		c.referer = enabled
	}
}

// New creates a client for the cassette service at baseURL (scheme and
// host, optionally a path prefix). No network I/O happens here.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(baseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		base:   base,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hc := *c.httpClient
		hc.Jar = jar
		c.httpClient = &hc
	}

	if len(c.seed) > 0 {
		c.httpClient.Jar.SetCookies(c.cookieURL(), c.seed)
		c.seed = nil
	}

	return c, nil
}

// BaseURL returns the service URL the client was created with, without a
// trailing slash.
func (c *Client) BaseURL() string {
	return c.base
}

// DataURL returns the absolute URL of the identity/user-data endpoint.
func (c *Client) DataURL() string {
	return c.base + DataPath
}

// Cookies returns the cookies the jar currently holds for the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.httpClient.Jar.Cookies(c.cookieURL())
}

// cookieURL is the URL cookies are seeded for and read back from. Using a
// path below the API root picks up cookies scoped to "/" and to "/api".
func (c *Client) cookieURL() *url.URL {
	u, _ := url.Parse(c.base + APIPath + "/")
	return u
}

// Response is the raw outcome of a trigger-style request. The client does
// not interpret it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Head performs a HEAD request against path.
func (c *Client) Head(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodHead, path)
}

// Get performs a GET request against path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path)
}

// Post performs a body-less POST request against path.
func (c *Client) Post(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodPost, path)
}

// Put performs a body-less PUT request against path.
func (c *Client) Put(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodPut, path)
}

// Delete performs a DELETE request against path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path)
}

// request issues a single request. Nothing is retried and transport
// errors are returned exactly as http.Client.Do produced them.
func (c *Client) request(ctx context.Context, method, path string) (*Response, error) {
	fullURL := c.base + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, err
	}

	if token := c.CSRFToken(); token != "" {
		// Assigned directly so the key keeps its exact spelling.
		req.Header[CSRFHeaderName] = []string{token}
	}
	if c.referer {
		req.Header.Set("Referer", c.base+"/")
	}

	c.logger.Debug("cassette request", "method", method, "url", fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("cassette request failed", "method", method, "url", fullURL, "error", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("cassette response", "method", method, "url", fullURL, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Method:     method,
			URL:        fullURL,
			Header:     resp.Header,
			Body:       body,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// APIError is returned when the service answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
	Header     http.Header
	Body       []byte
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if msg == "" {
		return fmt.Sprintf("cassette API error %d: %s %s", e.StatusCode, e.Method, e.URL)
	}
	return fmt.Sprintf("cassette API error %d: %s %s: %s", e.StatusCode, e.Method, e.URL, msg)
}

// IsCSRFRejected returns true if the server refused the request because
// the CSRF token was missing or invalid.
func (e *APIError) IsCSRFRejected() bool {
	return e.StatusCode == http.StatusUnauthorized && strings.Contains(string(e.Body), "CSRF")
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsCSRFRejectedError checks if err is a CSRF rejection from the server.
func IsCSRFRejectedError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsCSRFRejected()
	}
	return false
}

// BuildURL builds a URL with query parameters. Without parameters the
// path is returned untouched, with no trailing "?".
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
