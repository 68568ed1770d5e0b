package jobclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

var (
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable reports that the backend could not be reached.
	ErrUnavailable = errors.New("transcription backend unavailable")
)

// HTTPError is returned for non-success responses.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Message returns the backend's detail, or a generic fallback.
func (e *HTTPError) Message(fallback string) string {
	if e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// IsUnavailable reports whether err stems from a transport failure rather
// than a backend response.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// DetailMessage extracts a user-facing message from err, preferring the
// backend's detail text.
func DetailMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message(fallback)
	}
	if IsUnavailable(err) {
		return ErrUnavailable.Error()
	}
	if err != nil {
		return err.Error()
	}
	return fallback
}
