// Package session keeps the cassette service's cookies between CLI runs.
//
// Only cookies are stored. The CSRF token is fetched fresh by every
// command and lives in the client's memory alone.
package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultFileName is the default name for the session file.
	DefaultFileName = "session.json"
)

// Session is a stored set of cookies for one cassette service.
type Session struct {
	URL       string            `json:"url"`
	Cookies   map[string]string `json:"cookies"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns an empty session for url.
func New(url string) *Session {
	return &Session{URL: NormalizeURL(url), Cookies: map[string]string{}}
}

// NormalizeURL returns the form a service URL is stored and compared in:
// without trailing slashes, the way the client holds its base URL.
func NormalizeURL(url string) string {
	return strings.TrimRight(url, "/")
}

// FromCookies builds a session from cookies held by a client.
func FromCookies(url string, cookies []*http.Cookie) *Session {
	s := New(url)
	for _, c := range cookies {
		s.Cookies[c.Name] = c.Value
	}
	s.UpdatedAt = time.Now()
	return s
}

// HTTPCookies returns the stored cookies sorted by name.
func (s *Session) HTTPCookies() []*http.Cookie {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: s.Cookies[name], Path: "/"})
	}
	return cookies
}

// Storage handles persisting sessions to disk.
type Storage struct {
	path string
}

// NewStorage creates a new session storage at the specified path.
// If path is empty, uses the default location (~/.config/cassette/session.json).
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		path = filepath.Join(configDir, "cassette", DefaultFileName)
	}

	return &Storage{path: path}, nil
}

// Save persists a session to disk.
func (s *Storage) Save(session *Session) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Cookies grant account access; owner only.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load reads a session from disk.
func (s *Storage) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No session stored yet
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if session.Cookies == nil {
		session.Cookies = map[string]string{}
	}

	return &session, nil
}

// LoadFor returns the stored session if it belongs to url, otherwise an
// empty one. Cookies of one service are never sent to another.
func (s *Storage) LoadFor(url string) (*Session, error) {
	session, err := s.Load()
	if err != nil {
		return nil, err
	}
	if session == nil || NormalizeURL(session.URL) != NormalizeURL(url) {
		return New(url), nil
	}
	session.URL = NormalizeURL(session.URL)
	return session, nil
}

// Delete removes the stored session.
func (s *Storage) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// Exists returns true if a session file exists.
func (s *Storage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the path to the session file.
func (s *Storage) Path() string {
	return s.path
}
