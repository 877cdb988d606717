package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// recorder is a test server that records every request it sees.
type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
	handler  http.HandlerFunc
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.requests = append(r.requests, req.Clone(context.Background()))
	r.mu.Unlock()
	if r.handler != nil {
		r.handler(w, req)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (r *recorder) last(t *testing.T) *http.Request {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		t.Fatal("no request recorded")
	}
	return r.requests[len(r.requests)-1]
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{handler: handler}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, rec
}

// operations covers every request-issuing method so header and error
// properties can be checked across the whole surface.
var operations = []struct {
	name string
	call func(ctx context.Context, c *Client) error
}{
	{"FetchCSRFToken", func(ctx context.Context, c *Client) error { _, err := c.FetchCSRFToken(ctx); return err }},
	{"FetchIdentity", func(ctx context.Context, c *Client) error { _, err := c.FetchIdentity(ctx); return err }},
	{"FetchActiveDevices", func(ctx context.Context, c *Client) error { _, err := c.FetchActiveDevices(ctx); return err }},
	{"FetchPlayerStates", func(ctx context.Context, c *Client) error { _, err := c.FetchPlayerStates(ctx); return err }},
	{"StorePlayerState", func(ctx context.Context, c *Client) error { _, err := c.StorePlayerState(ctx); return err }},
	{"UpdatePlayerState", func(ctx context.Context, c *Client) error { _, err := c.UpdatePlayerState(ctx, 1); return err }},
	{"DeletePlayerState", func(ctx context.Context, c *Client) error { _, err := c.DeletePlayerState(ctx, 1); return err }},
	{"RestoreFromPlayerState", func(ctx context.Context, c *Client) error { _, err := c.RestoreFromPlayerState(ctx, 1, "dev"); return err }},
	{"DeleteYourData", func(ctx context.Context, c *Client) error { _, err := c.DeleteYourData(ctx); return err }},
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"plain", "http://localhost:8080", false},
		{"trailing slash", "https://cassette.example.com/", false},
		{"path prefix", "https://example.com/cassette", false},
		{"no scheme", "localhost:8080", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if strings.HasSuffix(c.BaseURL(), "/") {
				t.Errorf("BaseURL() = %q, want no trailing slash", c.BaseURL())
			}
			if c.CSRFToken() != "" {
				t.Errorf("CSRFToken() = %q, want empty on a new client", c.CSRFToken())
			}
		})
	}
}

func TestNewDoesNotModifyHTTPClient(t *testing.T) {
	hc := &http.Client{}
	c, err := New("http://localhost", WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if hc.Jar != nil {
		t.Error("caller's http.Client was given a jar")
	}
	if c.httpClient.Jar == nil {
		t.Error("client has no cookie jar")
	}
}

func TestEndpoints(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"states":[]}`))
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
	}{
		{"identity", func() error { _, err := c.FetchIdentity(ctx); return err }, http.MethodGet, "/api/you"},
		{"csrf", func() error { _, err := c.FetchCSRFToken(ctx); return err }, http.MethodHead, "/api/csrfToken"},
		{"devices", func() error { _, err := c.FetchActiveDevices(ctx); return err }, http.MethodGet, "/api/activeDevices"},
		{"list", func() error { _, err := c.FetchPlayerStates(ctx); return err }, http.MethodGet, "/api/playerStates"},
		{"store", func() error { _, err := c.StorePlayerState(ctx); return err }, http.MethodPost, "/api/playerStates"},
		{"update", func() error { _, err := c.UpdatePlayerState(ctx, 3); return err }, http.MethodPut, "/api/playerStates/3"},
		{"delete", func() error { _, err := c.DeletePlayerState(ctx, 3); return err }, http.MethodDelete, "/api/playerStates/3"},
		{"restore", func() error { _, err := c.RestoreFromPlayerState(ctx, 3, ""); return err }, http.MethodPost, "/api/playerStates/3/restore"},
		{"delete data", func() error { _, err := c.DeleteYourData(ctx); return err }, http.MethodDelete, "/api/you"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("call error = %v", err)
			}
			req := rec.last(t)
			if req.Method != tt.method {
				t.Errorf("method = %s, want %s", req.Method, tt.method)
			}
			if req.URL.Path != tt.path {
				t.Errorf("path = %s, want %s", req.URL.Path, tt.path)
			}
			if req.ContentLength > 0 {
				t.Errorf("request carried a body of %d bytes", req.ContentLength)
			}
		})
	}
}

func TestTokenPropagation(t *testing.T) {
	c, rec := newTestClient(t, nil)
	ctx := context.Background()

	c.SetCSRFToken("tok-1")
	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			_ = op.call(ctx, c)
			if got := rec.last(t).Header.Get(CSRFHeaderName); got != "tok-1" {
				t.Errorf("%s = %q, want tok-1", CSRFHeaderName, got)
			}
		})
	}
}

func TestTokenHeaderSpelling(t *testing.T) {
	var seen http.Header
	hc := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Clone()
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: http.NoBody}, nil
	})}

	c, err := New("http://cassette.test", WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.SetCSRFToken("abc")
	if _, err := c.StorePlayerState(context.Background()); err != nil {
		t.Fatalf("StorePlayerState() error = %v", err)
	}

	if got := seen[CSRFHeaderName]; len(got) != 1 || got[0] != "abc" {
		t.Errorf("header %q = %v, want [abc]", CSRFHeaderName, got)
	}
}

func TestNoTokenBeforeInstall(t *testing.T) {
	c, rec := newTestClient(t, nil)

	if _, err := c.StorePlayerState(context.Background()); err != nil {
		t.Fatalf("StorePlayerState() error = %v", err)
	}
	if got := rec.last(t).Header.Get(CSRFHeaderName); got != "" {
		t.Errorf("%s = %q before any token was installed", CSRFHeaderName, got)
	}
}

func TestTokenOverwrite(t *testing.T) {
	c, rec := newTestClient(t, nil)
	ctx := context.Background()

	c.SetCSRFToken("T1")
	c.SetCSRFToken("T2")

	for i := 0; i < 3; i++ {
		if _, err := c.DeletePlayerState(ctx, i); err != nil {
			t.Fatalf("DeletePlayerState() error = %v", err)
		}
		if got := rec.last(t).Header.Get(CSRFHeaderName); got != "T2" {
			t.Errorf("request %d token = %q, want T2", i, got)
		}
	}

	c.SetCSRFToken("")
	if _, err := c.StorePlayerState(ctx); err != nil {
		t.Fatalf("StorePlayerState() error = %v", err)
	}
	if got := rec.last(t).Header.Get(CSRFHeaderName); got != "" {
		t.Errorf("token = %q after clearing, want none", got)
	}
}

func TestRestoreURL(t *testing.T) {
	c, rec := newTestClient(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		deviceID string
		wantURI  string
	}{
		{"without device", "", "/api/playerStates/5/restore"},
		{"with device", "abc", "/api/playerStates/5/restore?deviceID=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.RestoreFromPlayerState(ctx, 5, tt.deviceID); err != nil {
				t.Fatalf("RestoreFromPlayerState() error = %v", err)
			}
			req := rec.last(t)
			if got := req.URL.RequestURI(); got != tt.wantURI {
				t.Errorf("RequestURI = %q, want %q", got, tt.wantURI)
			}
			if req.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", req.Method)
			}
		})
	}
}

func TestRestorePath(t *testing.T) {
	if got := RestorePath(5, ""); got != "/api/playerStates/5/restore" {
		t.Errorf("RestorePath(5, \"\") = %q", got)
	}
	if got := RestorePath(5, "abc"); got != "/api/playerStates/5/restore?deviceID=abc" {
		t.Errorf("RestorePath(5, \"abc\") = %q", got)
	}
	if got := RestorePath(0, "a b"); got != "/api/playerStates/0/restore?deviceID=a+b" {
		t.Errorf("RestorePath(0, \"a b\") = %q", got)
	}
}

func TestFetchPlayerStatesUnwraps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"states", `{ "states": [ {"id":1}, {"id":2} ] }`, `[ {"id":1}, {"id":2} ]`},
		{"missing field", `{"other": true}`, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.FetchPlayerStates(context.Background())
			if err != nil {
				t.Fatalf("FetchPlayerStates() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("FetchPlayerStates() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFetchPlayerStatesMalformed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	if _, err := c.FetchPlayerStates(context.Background()); err == nil {
		t.Error("FetchPlayerStates() error = nil for a non-JSON body")
	}
}

func TestFetchActiveDevicesPassthrough(t *testing.T) {
	body := `[ {"id":"dev1"} ]`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	got, err := c.FetchActiveDevices(context.Background())
	if err != nil {
		t.Fatalf("FetchActiveDevices() error = %v", err)
	}
	if string(got) != body {
		t.Errorf("FetchActiveDevices() = %s, want %s", got, body)
	}

	var devices []map[string]string
	if err := json.Unmarshal(got, &devices); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(devices) != 1 || devices[0]["id"] != "dev1" {
		t.Errorf("devices = %v", devices)
	}
}

func TestFetchIdentityWholePayload(t *testing.T) {
	body := `{"user":{"id":"u1"},"states":[{"id":1}]}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	got, err := c.FetchIdentity(context.Background())
	if err != nil {
		t.Fatalf("FetchIdentity() error = %v", err)
	}
	if string(got) != body {
		t.Errorf("FetchIdentity() = %s, want %s", got, body)
	}
}

func TestFetchCSRFToken(t *testing.T) {
	t.Run("header present", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(CSRFHeaderName, "tok123")
		})
		got, err := c.FetchCSRFToken(context.Background())
		if err != nil {
			t.Fatalf("FetchCSRFToken() error = %v", err)
		}
		if got != "tok123" {
			t.Errorf("FetchCSRFToken() = %q, want tok123", got)
		}
		if c.CSRFToken() != "" {
			t.Error("FetchCSRFToken() installed the token")
		}
	})

	t.Run("header absent", func(t *testing.T) {
		c, _ := newTestClient(t, nil)
		got, err := c.FetchCSRFToken(context.Background())
		if err != nil {
			t.Fatalf("FetchCSRFToken() error = %v", err)
		}
		if got != "" {
			t.Errorf("FetchCSRFToken() = %q, want empty", got)
		}
	})
}

func TestHandshakeWithCookies(t *testing.T) {
	const cookieName = "_cassette_csrf"
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "secret", Path: "/"})
			w.Header().Set(CSRFHeaderName, "masked")
			return
		}
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value != "secret" || r.Header.Get(CSRFHeaderName) != "masked" {
			http.Error(w, "Failed verifying CSRF token.", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	ctx := context.Background()

	token, err := c.FetchCSRFToken(ctx)
	if err != nil {
		t.Fatalf("FetchCSRFToken() error = %v", err)
	}
	c.SetCSRFToken(token)

	resp, err := c.StorePlayerState(ctx)
	if err != nil {
		t.Fatalf("StorePlayerState() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	found := false
	for _, ck := range c.Cookies() {
		if ck.Name == cookieName {
			found = true
		}
	}
	if !found {
		t.Errorf("Cookies() does not contain %s", cookieName)
	}
}

func TestWithCookies(t *testing.T) {
	c, rec := newTestClient(t, nil)
	// Re-create against the same server with a seeded jar.
	seeded, err := New(c.BaseURL(), WithCookies([]*http.Cookie{{Name: "session", Value: "abc"}}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := seeded.FetchIdentity(context.Background()); err != nil {
		t.Fatalf("FetchIdentity() error = %v", err)
	}
	ck, err := rec.last(t).Cookie("session")
	if err != nil || ck.Value != "abc" {
		t.Errorf("session cookie = %v, %v; want abc", ck, err)
	}
}

func TestWithReferer(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	c, err := New(srv.URL, WithReferer(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.DeleteYourData(context.Background()); err != nil {
		t.Fatalf("DeleteYourData() error = %v", err)
	}
	if got := rec.last(t).Header.Get("Referer"); got != srv.URL+"/" {
		t.Errorf("Referer = %q, want %q", got, srv.URL+"/")
	}
}

func TestDataURL(t *testing.T) {
	c, err := New("https://cassette.example.com/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.DataURL(); got != "https://cassette.example.com/api/you" {
		t.Errorf("DataURL() = %q", got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestTransportErrorPropagation(t *testing.T) {
	errNetwork := errors.New("network down")
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errNetwork
	})}

	c, err := New("http://cassette.test", WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			err := op.call(context.Background(), c)
			if !errors.Is(err, errNetwork) {
				t.Fatalf("error = %v, want %v", err, errNetwork)
			}
			// http.Client reports transport failures as *url.Error; the
			// client must hand that value over without wrapping it.
			var urlErr *url.Error
			if !errors.As(err, &urlErr) {
				t.Fatalf("error %T is not a *url.Error", err)
			}
			if urlErr != err {
				t.Errorf("error was wrapped: %v", err)
			}
			if urlErr.Err != errNetwork {
				t.Errorf("url.Error.Err = %v, want the transport's error", urlErr.Err)
			}
		})
	}
}

func TestStatusErrorPropagation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	for _, op := range operations {
		t.Run(op.name, func(t *testing.T) {
			err := op.call(context.Background(), c)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v (%T), want *APIError", err, err)
			}
			if apiErr.StatusCode != http.StatusInternalServerError {
				t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
			}
			if StatusCode(err) != http.StatusInternalServerError {
				t.Errorf("StatusCode(err) = %d, want 500", StatusCode(err))
			}
		})
	}
}

func TestNoRetry(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := c.StorePlayerState(context.Background()); err == nil {
		t.Fatal("StorePlayerState() error = nil, want 503")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("server saw %d requests, want 1", calls)
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{
		StatusCode: 401,
		Method:     http.MethodPost,
		URL:        "http://cassette.test/api/playerStates",
		Body:       []byte("Failed verifying CSRF token. Supplied token: ''\n"),
	}

	want := "cassette API error 401: POST http://cassette.test/api/playerStates: Failed verifying CSRF token. Supplied token: ''"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsCSRFRejectedError(err) {
		t.Error("IsCSRFRejectedError() = false, want true")
	}

	empty := &APIError{StatusCode: 404, Method: http.MethodGet, URL: "http://x/api/you"}
	if got := empty.Error(); got != "cassette API error 404: GET http://x/api/you" {
		t.Errorf("Error() = %q", got)
	}
	if IsCSRFRejectedError(empty) {
		t.Error("IsCSRFRejectedError() = true for a 404")
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Error("StatusCode() != 0 for a non-API error")
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]string
		want   string
	}{
		{"no params", "/api/you", nil, "/api/you"},
		{"empty params", "/api/you", map[string]string{}, "/api/you"},
		{"single param", "/api/playerStates/1/restore", map[string]string{"deviceID": "x"}, "/api/playerStates/1/restore?deviceID=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
