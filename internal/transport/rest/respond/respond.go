// Package respond writes JSON bodies for handlers and middleware alike.
package respond

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"pilotscope/internal/apperr"
)

type contextKey string

// RequestIDKey holds the per-request id set by the request id middleware
const RequestIDKey contextKey = "requestId"

// HeaderRequestID carries the request id in both directions
const HeaderRequestID = "X-Request-ID"

// ErrorBody is the wire shape of every error response
type ErrorBody struct {
	Error     string      `json:"error"`
	RequestID string      `json:"requestId,omitempty"`
	Type      apperr.Kind `json:"type,omitempty"`
	Fallback  interface{} `json:"fallback,omitempty"`
}

// WithRequestID stores the request id in ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID extracts the request id from ctx
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// JSON writes data with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes err as an ErrorBody. fallback may be nil.
func Error(w http.ResponseWriter, r *http.Request, err error, fallback interface{}) {
	appErr := apperr.From(err)
	if appErr.RequestID == "" {
		appErr.RequestID = RequestID(r.Context())
	}
	if appErr.RetryAfter > 0 {
		secs := int(math.Ceil(appErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	JSON(w, appErr.Status(), ErrorBody{
		Error:     appErr.PublicMessage(),
		RequestID: appErr.RequestID,
		Type:      appErr.Kind,
		Fallback:  fallback,
	})
}
