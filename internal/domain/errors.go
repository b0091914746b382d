package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrInternal        = errors.New("internal error")
)

// ErrorKind is the closed classification assigned at the adapter boundary.
// The retry loop inspects kinds, never error message substrings.
type ErrorKind string

// Provider failure kinds.
const (
	KindTimeout         ErrorKind = "timeout"
	KindConnReset       ErrorKind = "conn_reset"
	KindRateLimited     ErrorKind = "rate_limited"
	KindServerError     ErrorKind = "server_error"
	KindBadRequest      ErrorKind = "bad_request"
	KindAuth            ErrorKind = "auth"
	KindParse           ErrorKind = "parse"
	KindUnknownProvider ErrorKind = "unknown_provider"
)

// Retryable reports whether a failure of this kind is expected to
// self-resolve on retry: timeouts, resets, 429 and 5xx.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTimeout, KindConnReset, KindRateLimited, KindServerError:
		return true
	}
	return false
}

// ProviderError wraps a backend failure with its classification so the
// pipeline can decide retryability and the HTTP layer can map a status.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider %s: %s (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a classified provider failure.
func NewProviderError(provider string, kind ErrorKind, status int, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Status: status, Message: message, Err: err}
}

// KindOf extracts the error kind from err, or KindServerError when the
// error carries no classification (unknown failures default to retryable,
// matching the transient-network assumption).
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindServerError
}

// ClassifyStatus maps an HTTP status from a provider backend to a kind.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimited
	case status == 401 || status == 403:
		return KindAuth
	case status >= 400 && status < 500:
		return KindBadRequest
	case status >= 500:
		return KindServerError
	default:
		return KindServerError
	}
}
