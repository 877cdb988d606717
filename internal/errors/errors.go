package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tessro/cassette/internal/cassette/client"
)

// Error types for common failure scenarios.
var (
	ErrNotConfigured    = errors.New("cassette server not configured")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrCSRFRejected     = errors.New("csrf token rejected")
	ErrNoCSRFToken      = errors.New("server sent no csrf token")
	ErrConsentRequired  = errors.New("consent required")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrNoActiveDevice   = errors.New("no active device")
	ErrNetworkError     = errors.New("network error")
	ErrTimeout          = errors.New("request timeout")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrAborted          = errors.New("aborted")
)

// CassetteError wraps an error with a user-friendly suggestion.
type CassetteError struct {
	Err        error
	Suggestion string
}

func (e *CassetteError) Error() string {
	return e.Err.Error()
}

func (e *CassetteError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &CassetteError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// Check if it's already a CassetteError with suggestion
	var cassetteErr *CassetteError
	if errors.As(err, &cassetteErr) && cassetteErr.Suggestion != "" {
		return cassetteErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())
	status := client.StatusCode(err)

	// CSRF errors
	if errors.Is(err, ErrCSRFRejected) || errors.Is(err, ErrNoCSRFToken) || client.IsCSRFRejectedError(err) {
		return "The session's CSRF cookie may be stale. Run 'cassette session clear' and try again"
	}

	// Authentication errors
	if errors.Is(err, ErrNotAuthenticated) || status == http.StatusUnauthorized {
		return "Log in to cassette in a browser, then run 'cassette session import' with its session cookie"
	}

	// Consent
	if errors.Is(err, ErrConsentRequired) || status == http.StatusForbidden {
		return "Open cassette in a browser and accept the terms first"
	}

	// Slot errors
	if errors.Is(err, ErrSlotNotFound) || status == http.StatusBadRequest {
		return "Run 'cassette states' to see the available slots"
	}

	// Device errors
	if errors.Is(err, ErrNoActiveDevice) || strings.Contains(errStr, "no (active) device") ||
		strings.Contains(errStr, "no active device") {
		return "Open Spotify on a device and start playing, or pass --device"
	}

	// Network errors
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return "Check that the cassette server is reachable (server.url or CASSETTE_URL)"
	}

	// Config errors
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'cassette config init' to set up your configuration"
	}

	// Server errors
	if status >= 500 {
		return "cassette is having issues. Try again in a moment"
	}

	return ""
}

// Classify wraps err with the sentinel matching its cause, so callers can
// test with errors.Is. Cancellation and already classified errors are
// returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	for _, sentinel := range []error{
		ErrCSRFRejected, ErrNotAuthenticated, ErrConsentRequired, ErrNetworkError, ErrTimeout,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if client.IsCSRFRejectedError(err) {
		return fmt.Errorf("%w: %w", ErrCSRFRejected, err)
	}
	switch client.StatusCode(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrConsentRequired, err)
	case 0:
	default:
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if netErr != nil {
		return fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	return err
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// Err returns all errors joined, or nil.
func (p *PartialResult[T]) Err() error {
	return errors.Join(p.Errors...)
}
