package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilotscope/internal/apperr"
)

func validRequest() *AssessmentRequest {
	return &AssessmentRequest{
		RequestType: RequestGenerateQuestions,
		UserJourney: &UserJourney{
			SessionID: "s-1",
			Responses: []JourneyResponse{{Screen: "intro", ButtonNumber: 1, ButtonText: "Retail", Timestamp: 1}},
		},
		Industry: "  Retail ",
	}
}

func TestAssessmentRequestValidate(t *testing.T) {
	req := validRequest()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Retail", req.Industry)

	tests := []struct {
		name   string
		mutate func(r *AssessmentRequest)
		want   string
	}{
		{"missing type", func(r *AssessmentRequest) { r.RequestType = "" }, "requestType is required"},
		{"unknown type", func(r *AssessmentRequest) { r.RequestType = "generate_poem" }, "generate_poem"},
		{"missing journey", func(r *AssessmentRequest) { r.UserJourney = nil }, "userJourney is required"},
		{"missing session", func(r *AssessmentRequest) { r.UserJourney.SessionID = " " }, "sessionId"},
		{"industry too long", func(r *AssessmentRequest) { r.Industry = strings.Repeat("a", MaxIndustryLength+1) }, "industry"},
		{"scenario too long", func(r *AssessmentRequest) {
			r.CustomScenario = strings.Repeat("a", MaxCustomScenarioLength+1)
		}, "customScenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssessmentRequestAcceptsBoundaryLengths(t *testing.T) {
	r := validRequest()
	r.Industry = strings.Repeat("é", MaxIndustryLength)
	r.CustomScenario = strings.Repeat("b", MaxCustomScenarioLength)
	assert.NoError(t, r.Validate())
}

func TestJourneyAppendAndReset(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	j := NewJourney(now)
	first := j.SessionID

	require.NoError(t, j.Append(JourneyResponse{Screen: "s1", Timestamp: 100}))
	require.NoError(t, j.Append(JourneyResponse{Screen: "s2", Timestamp: 200}))
	assert.ErrorIs(t, j.Append(JourneyResponse{Screen: "s0", Timestamp: 50}), ErrJourneyOutOfOrder)
	assert.Equal(t, 2, j.Len())

	j.Reset(now.Add(time.Minute))
	assert.NotEqual(t, first, j.SessionID)
	assert.Equal(t, 0, j.Len())
	assert.Equal(t, now.Add(time.Minute), j.StartedAt)
}

func TestQuestionConstructors(t *testing.T) {
	q := MultiChoice("Pick", 2, "a", "b", "c")
	require.NotNil(t, q.MaxSelections)
	assert.Equal(t, 2, *q.MaxSelections)
	assert.Nil(t, MultiChoice("Pick", 0, "a", "b").MaxSelections)
	assert.True(t, TextInput("Why?", "Because", 10).Type.Valid())
	assert.False(t, QuestionType("dropdown").Valid())
}
