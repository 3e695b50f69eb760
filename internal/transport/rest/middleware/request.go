package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pilotscope/internal/apperr"
	"pilotscope/internal/cache"
	"pilotscope/internal/logger"
	"pilotscope/internal/transport/rest/respond"
)

const maxRequestIDLength = 64

// RequestID reuses a well-formed inbound X-Request-ID or mints a uuid, and echoes it back
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(respond.HeaderRequestID))
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(respond.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(respond.WithRequestID(r.Context(), id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// statusRecorder captures the status code for access logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrade pass through the access log
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// AccessLog logs one line per request
func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			kv := []interface{}{
				"request_id", respond.RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if status >= http.StatusInternalServerError {
				log.Warn("request failed", kv...)
				return
			}
			log.Info("request", kv...)
		})
	}
}

// RateLimit admits requests per caller through limiter and answers 429 with Retry-After
// once the caller is over budget. A limiter error lets the request through.
func RateLimit(limiter cache.RateLimiter, keys *ClientKeys, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), keys.Key(r))
			if err != nil {
				log.Warn("rate limiter unavailable", "request_id", respond.RequestID(r.Context()), "error", err)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				retry := decision.RetryAfter
				if retry < time.Second {
					retry = time.Second
				}
				respond.Error(w, r, apperr.RateLimited(retry), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKeys identifies callers for rate limiting. Forwarding headers are only read
// when the peer is one of the trusted proxies.
type ClientKeys struct {
	trusted []*net.IPNet
}

// NewClientKeys creates a resolver; with no trusted proxies the peer address is the key
func NewClientKeys(trusted []*net.IPNet) *ClientKeys {
	return &ClientKeys{trusted: trusted}
}

// Key returns the caller address. Behind a trusted proxy it is the right-most
// X-Forwarded-For hop that is not itself a trusted proxy, then X-Real-IP.
func (k *ClientKeys) Key(r *http.Request) string {
	peer := peerHost(r.RemoteAddr)
	if k == nil || !k.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !k.isTrusted(hop) {
			return hop
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" && !k.isTrusted(ip) {
		return ip
	}
	return peer
}

func (k *ClientKeys) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range k.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func peerHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
