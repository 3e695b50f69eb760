package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims scoping a token to one assessment session
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// SessionResponse is returned when a session starts or resets
type SessionResponse struct {
	Token   string       `json:"token"`
	Journey *UserJourney `json:"journey"`
}
