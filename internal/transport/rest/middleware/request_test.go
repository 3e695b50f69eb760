package middleware

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilotscope/internal/cache"
	"pilotscope/internal/logger"
	"pilotscope/internal/transport/rest/respond"
)

func TestClientKeys(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	behindProxy := NewClientKeys([]*net.IPNet{proxies})
	direct := NewClientKeys(nil)

	tests := []struct {
		name   string
		keys   *ClientKeys
		header http.Header
		remote string
		want   string
	}{
		{"untrusted peer ignores forwarded", direct, http.Header{"X-Forwarded-For": {"198.51.100.1"}, "X-Real-Ip": {"198.51.100.2"}}, "203.0.113.9:1", "203.0.113.9"},
		{"peer not in trusted list", behindProxy, http.Header{"X-Forwarded-For": {"198.51.100.1"}}, "203.0.113.9:1", "203.0.113.9"},
		{"right-most untrusted hop", behindProxy, http.Header{"X-Forwarded-For": {"6.6.6.6, 198.51.100.1, 10.0.0.5"}}, "10.0.0.3:1", "198.51.100.1"},
		{"repeated header lines", behindProxy, http.Header{"X-Forwarded-For": {"6.6.6.6", "198.51.100.1"}}, "10.0.0.3:1", "198.51.100.1"},
		{"real ip behind proxy", behindProxy, http.Header{"X-Real-Ip": {"198.51.100.2"}}, "10.0.0.3:1", "198.51.100.2"},
		{"only proxies forwarded", behindProxy, http.Header{"X-Forwarded-For": {"10.0.0.7, ,10.0.0.5"}}, "10.0.0.3:1", "10.0.0.3"},
		{"peer without port", direct, nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header = tt.header
			if r.Header == nil {
				r.Header = http.Header{}
			}
			r.RemoteAddr = tt.remote
			assert.Equal(t, tt.want, tt.keys.Key(r))
		})
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	limited := RateLimit(cache.NewMemoryRateLimiter(2), NewClientKeys(nil), logger.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "10.0.0.1:4000"
		r.Header.Set("X-Forwarded-For", "1.2.3."+strconv.Itoa(i))
		limited.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429, 429}, codes)
}

func TestLimitBody(t *testing.T) {
	var readErr error
	h := LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("12345678")))
	assert.NoError(t, readErr)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("123456789")))
	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, readErr, &tooLarge)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = respond.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(respond.HeaderRequestID, "abc-123")
	h.ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(respond.HeaderRequestID))

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(respond.HeaderRequestID, "bad id\n<script>")
	h.ServeHTTP(rec, r)
	assert.NotEqual(t, "bad id\n<script>", seen)
	assert.Len(t, seen, 36, "replaced by a uuid")
}
