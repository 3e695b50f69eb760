package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrJourneyOutOfOrder rejects an append whose timestamp moves backwards
var ErrJourneyOutOfOrder = errors.New("journey response timestamp precedes the previous one")

// JourneyResponse is one recorded button press or text entry
type JourneyResponse struct {
	Screen       string `json:"screen" bson:"screen"`
	ButtonNumber int    `json:"buttonNumber" bson:"buttonNumber"`
	ButtonText   string `json:"buttonText" bson:"buttonText"`
	Timestamp    int64  `json:"timestamp" bson:"timestamp"` // Unix milliseconds
	TextInput    string `json:"textInput,omitempty" bson:"textInput,omitempty"`
}

// UserJourney is the ordered answer history of one assessment session
type UserJourney struct {
	SessionID string            `json:"sessionId" bson:"sessionId"`
	StartedAt time.Time         `json:"startedAt" bson:"startedAt"`
	Responses []JourneyResponse `json:"responses" bson:"responses"`
	Metadata  map[string]any    `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// NewJourney starts an empty journey with a fresh session id
func NewJourney(now time.Time) *UserJourney {
	return &UserJourney{
		SessionID: uuid.NewString(),
		StartedAt: now.UTC(),
		Responses: []JourneyResponse{},
	}
}

// Append adds a response at the end; the journey only grows
func (j *UserJourney) Append(r JourneyResponse) error {
	if n := len(j.Responses); n > 0 && r.Timestamp != 0 && r.Timestamp < j.Responses[n-1].Timestamp {
		return ErrJourneyOutOfOrder
	}
	j.Responses = append(j.Responses, r)
	return nil
}

// Reset clears the history and rotates the session id
func (j *UserJourney) Reset(now time.Time) {
	fresh := NewJourney(now)
	j.SessionID = fresh.SessionID
	j.StartedAt = fresh.StartedAt
	j.Responses = fresh.Responses
	j.Metadata = nil
}

// Len returns the number of recorded responses
func (j *UserJourney) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Responses)
}
