package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"pilotscope/internal/apperr"
	"pilotscope/internal/cache"
	"pilotscope/internal/model"
)

// JourneyService owns the server-side journey of each wizard session
type JourneyService struct {
	cache cache.JourneyCache
	auth  *AuthService
	now   func() time.Time
	mu    sync.Mutex // serializes read-modify-write on the cache
}

// NewJourneyService creates a new journey service
func NewJourneyService(journeys cache.JourneyCache, auth *AuthService) *JourneyService {
	return &JourneyService{
		cache: journeys,
		auth:  auth,
		now:   time.Now,
	}
}

// Start opens a new journey and returns it with its session token
func (s *JourneyService) Start(ctx context.Context, metadata map[string]any) (*model.SessionResponse, error) {
	if err := validateMetadata(metadata); err != nil {
		return nil, err
	}
	now := s.now()
	journey := model.NewJourney(now)
	journey.Metadata = metadata
	if err := s.cache.Set(ctx, journey); err != nil {
		return nil, apperr.Internal(err)
	}
	token, err := s.auth.IssueSessionToken(journey.SessionID, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &model.SessionResponse{Token: token, Journey: journey}, nil
}

// Get returns the stored journey or a not-found error
func (s *JourneyService) Get(ctx context.Context, sessionID string) (*model.UserJourney, error) {
	journey, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if journey == nil {
		return nil, apperr.NotFound("session not found")
	}
	return journey, nil
}

// Lookup is Get without the not-found error; used to fill empty assessment journeys
func (s *JourneyService) Lookup(ctx context.Context, sessionID string) (*model.UserJourney, error) {
	return s.cache.Get(ctx, sessionID)
}

// Append records one response at the end of the journey
func (s *JourneyService) Append(ctx context.Context, sessionID string, resp model.JourneyResponse) (*model.UserJourney, error) {
	if err := validateResponse(resp); err != nil {
		return nil, err
	}
	if resp.Timestamp == 0 {
		resp.Timestamp = s.now().UnixMilli()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	journey, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if journey.Len() >= model.MaxJourneyResponses {
		return nil, apperr.Validation("journey already holds %d responses", model.MaxJourneyResponses)
	}
	if err := journey.Append(resp); err != nil {
		if errors.Is(err, model.ErrJourneyOutOfOrder) {
			return nil, apperr.Validation("timestamp precedes the previous response")
		}
		return nil, apperr.Internal(err)
	}
	if err := s.cache.Set(ctx, journey); err != nil {
		return nil, apperr.Internal(err)
	}
	return journey, nil
}

// Reset discards the journey and starts a new one under a new session id
func (s *JourneyService) Reset(ctx context.Context, sessionID string) (*model.SessionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	journey, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	journey.Reset(now)
	if err := s.cache.Set(ctx, journey); err != nil {
		return nil, apperr.Internal(err)
	}
	token, err := s.auth.IssueSessionToken(journey.SessionID, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &model.SessionResponse{Token: token, Journey: journey}, nil
}

// validateMetadata bounds the caller-supplied tags stored with a journey
func validateMetadata(m map[string]any) error {
	if len(m) > model.MaxMetadataEntries {
		return apperr.Validation("metadata exceeds %d entries", model.MaxMetadataEntries)
	}
	if len(m) == 0 {
		return nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return apperr.Validation("metadata is not valid JSON")
	}
	if len(encoded) > model.MaxMetadataBytes {
		return apperr.Validation("metadata exceeds %d bytes", model.MaxMetadataBytes)
	}
	return nil
}

func validateResponse(r model.JourneyResponse) error {
	if strings.TrimSpace(r.Screen) == "" {
		return apperr.Validation("screen is required")
	}
	if utf8.RuneCountInString(r.ButtonText) > model.MaxButtonTextLength {
		return apperr.Validation("buttonText exceeds %d characters", model.MaxButtonTextLength)
	}
	if utf8.RuneCountInString(r.TextInput) > model.MaxTextInputLength {
		return apperr.Validation("textInput exceeds %d characters", model.MaxTextInputLength)
	}
	if r.Timestamp < 0 {
		return apperr.Validation("timestamp must not be negative")
	}
	return nil
}
