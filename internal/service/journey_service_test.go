package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilotscope/internal/apperr"
	"pilotscope/internal/cache"
	"pilotscope/internal/model"
)

func TestJourneyLifecycle(t *testing.T) {
	auth := newTestAuth(t, "")
	svc := NewJourneyService(cache.NewMemoryJourneyCache(time.Hour), auth)
	ctx := context.Background()

	started, err := svc.Start(ctx, map[string]any{"utm_source": "partner"})
	require.NoError(t, err)
	id := started.Journey.SessionID
	claims, err := auth.ValidateSessionToken(started.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.SessionID)

	j, err := svc.Append(ctx, id, model.JourneyResponse{Screen: "role", ButtonNumber: 2, ButtonText: "IT", Timestamp: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, j.Len())

	_, err = svc.Append(ctx, id, model.JourneyResponse{Screen: "goal", ButtonText: "Speed", Timestamp: 50})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	j, err = svc.Append(ctx, id, model.JourneyResponse{Screen: "goal", ButtonText: "Speed"})
	require.NoError(t, err)
	assert.Greater(t, j.Responses[1].Timestamp, int64(100), "missing timestamps are stamped server side")

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, "partner", got.Metadata["utm_source"])

	reset, err := svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, id, reset.Journey.SessionID)
	assert.Equal(t, 0, reset.Journey.Len())
	assert.NotEqual(t, started.Token, reset.Token)

	_, err = svc.Get(ctx, id)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestJourneyAppendValidation(t *testing.T) {
	svc := NewJourneyService(cache.NewMemoryJourneyCache(time.Hour), newTestAuth(t, ""))
	ctx := context.Background()
	started, err := svc.Start(ctx, nil)
	require.NoError(t, err)
	id := started.Journey.SessionID

	tests := []model.JourneyResponse{
		{Screen: " "},
		{Screen: "s", ButtonText: strings.Repeat("a", model.MaxButtonTextLength+1)},
		{Screen: "s", TextInput: strings.Repeat("a", model.MaxTextInputLength+1)},
		{Screen: "s", Timestamp: -1},
	}
	for _, resp := range tests {
		_, err := svc.Append(ctx, id, resp)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "%+v", resp)
	}

	_, err = svc.Append(ctx, "unknown", model.JourneyResponse{Screen: "s"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestJourneyStartBoundsMetadata(t *testing.T) {
	svc := NewJourneyService(cache.NewMemoryJourneyCache(time.Hour), newTestAuth(t, ""))
	ctx := context.Background()

	_, err := svc.Start(ctx, map[string]any{"blob": strings.Repeat("x", model.MaxMetadataBytes)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	many := map[string]any{}
	for i := 0; i <= model.MaxMetadataEntries; i++ {
		many["k"+strings.Repeat("x", i)] = i
	}
	_, err = svc.Start(ctx, many)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Start(ctx, map[string]any{"utm_source": "partner", "campaign": 7})
	assert.NoError(t, err)
}
