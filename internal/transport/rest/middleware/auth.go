package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"pilotscope/internal/apperr"
	"pilotscope/internal/service"
	"pilotscope/internal/transport/rest/respond"
)

type contextKey string

// SessionIDKey holds the session id proven by the request's token
const SessionIDKey contextKey = "sessionId"

// AuthMiddleware guards routes with request signatures and session tokens
type AuthMiddleware struct {
	authSvc      *service.AuthService
	maxBodyBytes int64
	now          func() time.Time
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService, maxBodyBytes int64) *AuthMiddleware {
	return &AuthMiddleware{
		authSvc:      authSvc,
		maxBodyBytes: maxBodyBytes,
		now:          time.Now,
	}
}

// VerifySignature buffers the body (bounded by maxBodyBytes), checks the optional
// x-signature/x-timestamp/x-nonce headers and restores the body for the handler.
func (m *AuthMiddleware) VerifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, m.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respond.Error(w, r, apperr.Validation("request body exceeds %d bytes", m.maxBodyBytes), nil)
				return
			}
			respond.Error(w, r, apperr.Validation("unreadable request body"), nil)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		headers := service.SignatureHeaders{
			Signature: r.Header.Get(service.HeaderSignature),
			Timestamp: r.Header.Get(service.HeaderTimestamp),
			Nonce:     r.Header.Get(service.HeaderNonce),
		}
		if err := m.authSvc.VerifySignature(r.Context(), headers, body, m.now()); err != nil {
			respond.Error(w, r, err, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession validates the session JWT from the Authorization header or
// ?token= and requires it to match the {id} route variable.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := sessionToken(r)
		if token == "" {
			respond.Error(w, r, apperr.Auth("missing session token"), nil)
			return
		}
		m.withSession(w, r, token, next)
	})
}

// OptionalSession authenticates the session token when one is sent and lets anonymous
// requests through. A token that does not validate is still rejected.
func (m *AuthMiddleware) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if r.Method == http.MethodOptions || token == "" {
			next.ServeHTTP(w, r)
			return
		}
		m.withSession(w, r, token, next)
	})
}

func (m *AuthMiddleware) withSession(w http.ResponseWriter, r *http.Request, token string, next http.Handler) {
	claims, err := m.authSvc.ValidateSessionToken(token)
	if err != nil {
		respond.Error(w, r, apperr.Auth("invalid or expired token"), nil)
		return
	}
	if id := mux.Vars(r)["id"]; id != "" && id != claims.SessionID {
		respond.Error(w, r, apperr.Auth("token not valid for this session"), nil)
		return
	}

	ctx := context.WithValue(r.Context(), SessionIDKey, claims.SessionID)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// GetSessionID extracts the authenticated session id from context
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(SessionIDKey).(string); ok {
		return v
	}
	return ""
}

// LimitBody caps every request body at maxBytes; reads past it fail with *http.MaxBytesError
func LimitBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
