package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failure and decides its HTTP status
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindAuth       Kind = "auth_error"
	KindNotFound   Kind = "not_found"
	KindRateLimit  Kind = "rate_limit"
	KindUpstream   Kind = "upstream_error"
	KindSchema     Kind = "schema_violation"
	KindTimeout    Kind = "timeout"
	KindInternal   Kind = "internal_error"
)

// Error is the typed failure surfaced to handlers and clients
type Error struct {
	Kind       Kind
	Message    string
	RequestID  string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to its HTTP status code
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindUpstream, KindSchema:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the sanitized text safe to echo to clients
func (e *Error) PublicMessage() string {
	msg := e.Message
	if msg == "" {
		switch e.Kind {
		case KindUpstream:
			msg = "AI provider request failed"
		case KindSchema:
			msg = "AI provider returned an invalid response"
		case KindTimeout:
			msg = "AI provider timed out"
		default:
			msg = "internal server error"
		}
	}
	return Sanitize(msg, MaxEchoLength)
}

// WithRequestID stamps the request id and returns the same error
func (e *Error) WithRequestID(id string) *Error {
	e.RequestID = id
	return e
}

func newf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation reports a malformed caller request
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, nil, format, args...)
}

// Auth reports a missing or bad request signature or session token
func Auth(format string, args ...any) *Error {
	return newf(KindAuth, nil, format, args...)
}

// NotFound reports an unknown session or resource
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, nil, format, args...)
}

// RateLimited reports an exhausted caller bucket
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimit, Message: "rate limit exceeded", RetryAfter: retryAfter}
}

// Upstream wraps a provider transport or status failure
func Upstream(err error) *Error {
	return &Error{Kind: KindUpstream, Err: err}
}

// Schema wraps a provider response that failed extraction or normalization
func Schema(err error) *Error {
	return &Error{Kind: KindSchema, Err: err}
}

// Timeout wraps a generation that ran past its deadline
func Timeout(err error) *Error {
	return &Error{Kind: KindTimeout, Err: err}
}

// Internal wraps anything unexpected
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// From returns err as *Error, classifying foreign errors on the way
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	return Internal(err)
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
