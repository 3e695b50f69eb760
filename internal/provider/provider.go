// Package provider talks to the language-model APIs that generate question sets and reports.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"pilotscope/internal/model"
)

// ErrEmptyContent is returned when a provider answers 2xx without any text
var ErrEmptyContent = errors.New("provider returned empty content")

// Request is one generation call
type Request struct {
	Type          model.RequestType
	System        string
	Prompt        string
	QuestionCount int // used for the question-set schema hint
}

// Provider returns the raw model text for a request. Implementations make exactly one
// upstream call per Generate and never retry.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// HTTPDoer abstracts HTTP clients used by providers
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Error is a typed provider failure
type Error struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewHTTPClient returns a client whose transport records a client span per call.
// Deadlines come from the request context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}
}
