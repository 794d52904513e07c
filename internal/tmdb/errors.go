package tmdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned when TMDb rejects the API key.
	ErrUnauthorized = errors.New("invalid API key, please check your TMDb API key")
	// ErrRateLimited is returned on HTTP 429.
	ErrRateLimited = errors.New("TMDb rate limit exceeded, please wait a moment")
	// ErrNoMatch is returned by Lookup when the search has no results.
	ErrNoMatch = errors.New("no TMDb match")
	// ErrMissingAPIKey is returned by ValidateAPIKey for an empty key.
	ErrMissingAPIKey = errors.New("API key is empty")
)

// InvalidKeyError is a key that is set but fails the local format checks.
type InvalidKeyError struct {
	Reason string
}

func (e *InvalidKeyError) Error() string { return e.Reason }

// StatusError is any other non-200 response.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TMDb %s: HTTP %d", e.Endpoint, e.Code)
}

// ValidateAPIKey performs the local sanity checks done before any request.
// It returns ErrMissingAPIKey or an *InvalidKeyError.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrMissingAPIKey
	case len(key) < 20:
		return &InvalidKeyError{Reason: "API key seems too short"}
	case strings.ContainsRune(key, ' '):
		return &InvalidKeyError{Reason: "API key contains spaces"}
	}
	return nil
}
