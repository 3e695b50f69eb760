package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"pilotscope/internal/apperr"
)

// RequestType selects what the assessment call generates
type RequestType string

const (
	RequestGenerateQuestions RequestType = "generate_questions"
	RequestGenerateReport    RequestType = "generate_report"
)

// Valid reports whether t is a known request type
func (t RequestType) Valid() bool {
	return t == RequestGenerateQuestions || t == RequestGenerateReport
}

// Request body limits
const (
	MaxIndustryLength       = 120
	MaxCustomScenarioLength = 500
	MaxJourneyResponses     = 200
	MaxButtonTextLength     = 500
	MaxTextInputLength      = 2000
	MaxMetadataEntries      = 20
	MaxMetadataBytes        = 2048
)

// AssessmentRequest is the body of POST /api/ai-assessment
type AssessmentRequest struct {
	UserJourney    *UserJourney `json:"userJourney"`
	RequestType    RequestType  `json:"requestType"`
	Industry       string       `json:"industry,omitempty"`
	CustomScenario string       `json:"customScenario,omitempty"`
}

// Validate checks the caller-supplied body and trims free-text fields in place
func (r *AssessmentRequest) Validate() error {
	if !r.RequestType.Valid() {
		if r.RequestType == "" {
			return apperr.Validation("requestType is required")
		}
		return apperr.Validation("requestType %q is not supported", string(r.RequestType))
	}
	if r.UserJourney == nil {
		return apperr.Validation("userJourney is required")
	}
	if strings.TrimSpace(r.UserJourney.SessionID) == "" {
		return apperr.Validation("userJourney.sessionId is required")
	}
	if len(r.UserJourney.Responses) > MaxJourneyResponses {
		return apperr.Validation("userJourney.responses exceeds %d entries", MaxJourneyResponses)
	}
	for i, resp := range r.UserJourney.Responses {
		if utf8.RuneCountInString(resp.ButtonText) > MaxButtonTextLength {
			return apperr.Validation("userJourney.responses[%d].buttonText exceeds %d characters", i, MaxButtonTextLength)
		}
		if utf8.RuneCountInString(resp.TextInput) > MaxTextInputLength {
			return apperr.Validation("userJourney.responses[%d].textInput exceeds %d characters", i, MaxTextInputLength)
		}
	}
	r.Industry = strings.TrimSpace(r.Industry)
	r.CustomScenario = strings.TrimSpace(r.CustomScenario)
	if utf8.RuneCountInString(r.Industry) > MaxIndustryLength {
		return apperr.Validation("industry exceeds %d characters", MaxIndustryLength)
	}
	if utf8.RuneCountInString(r.CustomScenario) > MaxCustomScenarioLength {
		return apperr.Validation("customScenario exceeds %d characters", MaxCustomScenarioLength)
	}
	return nil
}

// AssessmentStatus is the outcome stored per generation
type AssessmentStatus string

const (
	AssessmentOK     AssessmentStatus = "ok"
	AssessmentFailed AssessmentStatus = "failed"
)

// AssessmentRecord is the persisted audit entry of one generation call
type AssessmentRecord struct {
	ID            string           `json:"id" bson:"_id,omitempty"`
	RequestID     string           `json:"requestId" bson:"requestId"`
	SessionID     string           `json:"sessionId" bson:"sessionId"`
	RequestType   RequestType      `json:"requestType" bson:"requestType"`
	Provider      string           `json:"provider,omitempty" bson:"provider,omitempty"`
	Status        AssessmentStatus `json:"status" bson:"status"`
	ErrorKind     string           `json:"errorKind,omitempty" bson:"errorKind,omitempty"`
	QuestionCount int              `json:"questionCount,omitempty" bson:"questionCount,omitempty"`
	Industry      string           `json:"industry,omitempty" bson:"industry,omitempty"`
	DurationMS    int64            `json:"durationMs" bson:"durationMs"`
	CreatedAt     time.Time        `json:"createdAt" bson:"createdAt"`
}
