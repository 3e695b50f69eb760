package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pilotscope/internal/apperr"
	"pilotscope/internal/cache"
	"pilotscope/internal/config"
	"pilotscope/internal/logger"
	"pilotscope/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Signed-request headers
const (
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
	HeaderNonce     = "X-Nonce"
)

// millisecondThreshold separates Unix seconds from Unix milliseconds in x-timestamp
const millisecondThreshold = 1_000_000_000_000

// SignatureHeaders are the raw values of the three signing headers
type SignatureHeaders struct {
	Signature string
	Timestamp string
	Nonce     string
}

func (h SignatureHeaders) present() int {
	n := 0
	for _, v := range []string{h.Signature, h.Timestamp, h.Nonce} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// AuthService verifies signed requests and issues session-scoped tokens
type AuthService struct {
	jwtSecret  []byte
	hmacSecret []byte
	maxSkew    time.Duration
	nonceTTL   time.Duration
	sessionTTL time.Duration
	nonces     cache.NonceStore
	log        *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.SecurityConfig, nonces cache.NonceStore, log *logger.Logger) *AuthService {
	secret := cfg.JWTSecret
	if secret == "" {
		// tokens will not survive a restart or span instances
		secret = uuid.NewString() + uuid.NewString()
		log.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}
	return &AuthService{
		jwtSecret:  []byte(secret),
		hmacSecret: []byte(cfg.HMACSecret),
		maxSkew:    cfg.SignatureMaxSkew,
		nonceTTL:   cfg.NonceTTL,
		sessionTTL: cfg.SessionTTL,
		nonces:     nonces,
		log:        log,
	}
}

// IssueSessionToken creates a token scoped to one journey session
func (s *AuthService) IssueSessionToken(sessionID string, now time.Time) (string, error) {
	claims := &model.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			Subject:   sessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSessionToken validates a session JWT and returns its claims
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifySignature checks the optional HMAC envelope of a request body.
// All three headers absent skips verification; a partial set is rejected.
func (s *AuthService) VerifySignature(ctx context.Context, h SignatureHeaders, body []byte, now time.Time) error {
	switch h.present() {
	case 0:
		return nil
	case 3:
	default:
		return apperr.Auth("x-signature, x-timestamp and x-nonce must be sent together")
	}

	if len(s.hmacSecret) == 0 {
		s.log.Warn("signed request received but HMAC_SECRET is not set, skipping verification")
		return nil
	}

	ts, err := parseTimestamp(h.Timestamp)
	if err != nil {
		return apperr.Auth("invalid x-timestamp")
	}
	if skew := now.Sub(ts); skew > s.maxSkew || skew < -s.maxSkew {
		return apperr.Auth("x-timestamp outside the allowed window")
	}

	expected := Sign(s.hmacSecret, strings.TrimSpace(h.Timestamp), strings.TrimSpace(h.Nonce), body)
	given := strings.ToLower(strings.TrimSpace(h.Signature))
	if !hmac.Equal([]byte(expected), []byte(given)) {
		return apperr.Auth("invalid signature")
	}

	fresh, err := s.nonces.Consume(ctx, strings.TrimSpace(h.Nonce), s.nonceTTL)
	if err != nil {
		return apperr.Internal(err)
	}
	if !fresh {
		return apperr.Auth("nonce already used")
	}
	return nil
}

// Sign returns the lowercase hex HMAC-SHA256 of "timestamp:nonce:body"
func Sign(secret []byte, timestamp, nonce string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{':'})
	mac.Write([]byte(nonce))
	mac.Write([]byte{':'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// parseTimestamp accepts Unix seconds or Unix milliseconds
func parseTimestamp(raw string) (time.Time, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if n > millisecondThreshold {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}
