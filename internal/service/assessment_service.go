package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pilotscope/internal/apperr"
	"pilotscope/internal/config"
	"pilotscope/internal/logger"
	"pilotscope/internal/model"
	"pilotscope/internal/normalize"
	"pilotscope/internal/observability"
	"pilotscope/internal/prompt"
	"pilotscope/internal/provider"
	"pilotscope/internal/repository"
)

var errNoProvider = errors.New("no AI provider configured")

const recordSaveTimeout = 5 * time.Second

// AssessmentResult is a normalized generation. Exactly one of Questions and Report is set.
type AssessmentResult struct {
	RequestID string
	Provider  string
	Questions *model.QuestionSetResponse
	Report    *model.ReportData
}

// Body is the value written to the client
func (r *AssessmentResult) Body() interface{} {
	if r.Report != nil {
		return r.Report
	}
	return r.Questions
}

// AssessmentService turns an assessment request into normalized provider output
type AssessmentService struct {
	chain         provider.Chain
	journeys      *JourneyService
	repo          repository.AssessmentRepo
	broadcaster   Broadcaster
	log           *logger.Logger
	tracer        trace.Tracer
	timeout       time.Duration
	questionCount int
	now           func() time.Time
}

// NewAssessmentService creates a new assessment service. journeys may be nil.
func NewAssessmentService(
	cfg config.AIConfig,
	chain provider.Chain,
	journeys *JourneyService,
	repo repository.AssessmentRepo,
	log *logger.Logger,
) *AssessmentService {
	if repo == nil {
		repo = repository.NewNoopAssessmentRepo()
	}
	return &AssessmentService{
		chain:         chain,
		journeys:      journeys,
		repo:          repo,
		broadcaster:   nopBroadcaster{},
		log:           log,
		tracer:        observability.Tracer(),
		timeout:       cfg.Timeout(),
		questionCount: cfg.QuestionCount,
		now:           time.Now,
	}
}

// SetBroadcaster sets the progress event sink (avoids circular dependency)
func (s *AssessmentService) SetBroadcaster(b Broadcaster) {
	if b == nil {
		b = nopBroadcaster{}
	}
	s.broadcaster = b
}

// QuestionCount is the number of questions each generated set holds
func (s *AssessmentService) QuestionCount() int {
	return s.questionCount
}

// Providers lists the chain in the order it is tried
func (s *AssessmentService) Providers() []string {
	return s.chain.Names()
}

// History lists the stored generation records of a session, newest first.
// The repository caps limit.
func (s *AssessmentService) History(ctx context.Context, sessionID string, limit int) ([]*model.AssessmentRecord, error) {
	records, err := s.repo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if records == nil {
		records = []*model.AssessmentRecord{}
	}
	return records, nil
}

// Generate validates the request, walks the provider chain and returns the first result
// that normalizes. Failures come back as *apperr.Error stamped with requestID.
//
// authSessionID is the session proven by the caller's token, empty for anonymous calls.
// Only a proven session gets its tracked journey substituted, its progress events and its
// history records; anonymous calls are recorded without a session.
func (s *AssessmentService) Generate(ctx context.Context, requestID, authSessionID string, req *model.AssessmentRequest) (*AssessmentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.From(err).WithRequestID(requestID)
	}
	if authSessionID != "" && authSessionID != req.UserJourney.SessionID {
		return nil, apperr.Auth("token not valid for this session").WithRequestID(requestID)
	}

	sessionID := authSessionID
	log := s.log.With("request_id", requestID, "session_id", sessionID, "request_type", string(req.RequestType))
	started := s.now()

	ctx, span := s.tracer.Start(ctx, "assessment.generate", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("request.type", string(req.RequestType)),
		attribute.Int("providers", len(s.chain)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	journey := req.UserJourney
	if sessionID != "" {
		journey = s.resolveJourney(ctx, log, journey)
	}
	s.publish(sessionID, EventGenerationStarted, map[string]interface{}{
		"requestId":   requestID,
		"requestType": req.RequestType,
	})

	preq := s.buildRequest(req, journey)
	result, attempted, err := s.walkChain(ctx, log, requestID, sessionID, preq)

	record := &model.AssessmentRecord{
		ID:          requestID,
		RequestID:   requestID,
		SessionID:   sessionID,
		RequestType: req.RequestType,
		Industry:    req.Industry,
		CreatedAt:   started.UTC(),
		DurationMS:  s.now().Sub(started).Milliseconds(),
	}

	if err != nil {
		appErr := err.WithRequestID(requestID)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, string(appErr.Kind))
		log.Warn("generation failed", "kind", appErr.Kind, "attempted", attempted, "error", appErr.Error())

		record.Status = model.AssessmentFailed
		record.ErrorKind = string(appErr.Kind)
		s.saveRecord(ctx, log, record)
		s.publish(sessionID, EventGenerationFailed, map[string]interface{}{
			"requestId": requestID,
			"type":      appErr.Kind,
		})
		return nil, appErr
	}

	result.RequestID = requestID
	record.Status = model.AssessmentOK
	record.Provider = result.Provider
	if result.Questions != nil {
		record.QuestionCount = len(result.Questions.Questions)
	}
	s.saveRecord(ctx, log, record)

	span.SetAttributes(attribute.String("provider", result.Provider))
	log.Info("generation completed", "provider", result.Provider, "duration_ms", record.DurationMS)
	s.publish(sessionID, EventGenerationCompleted, map[string]interface{}{
		"requestId": requestID,
		"provider":  result.Provider,
	})
	return result, nil
}

func (s *AssessmentService) walkChain(ctx context.Context, log *logger.Logger, requestID, sessionID string, preq provider.Request) (*AssessmentResult, []string, *apperr.Error) {
	if len(s.chain) == 0 {
		return nil, nil, &apperr.Error{Kind: apperr.KindUpstream, Message: "no AI provider configured", Err: errNoProvider}
	}

	var lastErr *apperr.Error
	attempted := make([]string, 0, len(s.chain))
	for i, p := range s.chain {
		if ctx.Err() != nil {
			break
		}
		attempted = append(attempted, p.Name())
		s.publish(sessionID, EventProviderAttempt, map[string]interface{}{
			"requestId": requestID,
			"provider":  p.Name(),
			"attempt":   i + 1,
		})

		result, err := s.attempt(ctx, p, preq)
		if err == nil {
			return result, attempted, nil
		}

		lastErr = err
		log.Warn("provider attempt failed", "provider", p.Name(), "kind", err.Kind, "error", err.Error())
		s.publish(sessionID, EventProviderFailed, map[string]interface{}{
			"requestId": requestID,
			"provider":  p.Name(),
			"type":      err.Kind,
		})
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, attempted, apperr.Timeout(ctx.Err())
	}
	if lastErr == nil {
		return nil, attempted, apperr.From(ctx.Err())
	}
	return nil, attempted, lastErr
}

// attempt runs one provider call and normalizes its output
func (s *AssessmentService) attempt(ctx context.Context, p provider.Provider, preq provider.Request) (*AssessmentResult, *apperr.Error) {
	ctx, span := s.tracer.Start(ctx, "provider.generate", trace.WithAttributes(
		attribute.String("provider", p.Name()),
	))
	defer span.End()

	raw, err := p.Generate(ctx, preq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Timeout(err)
		}
		return nil, apperr.Upstream(err)
	}

	result := &AssessmentResult{Provider: p.Name()}
	switch preq.Type {
	case model.RequestGenerateReport:
		result.Report, err = normalize.DecodeReport(raw)
	default:
		result.Questions, err = normalize.DecodeQuestions(raw, preq.QuestionCount)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema violation")
		return nil, apperr.Schema(err)
	}
	return result, nil
}

func (s *AssessmentService) buildRequest(req *model.AssessmentRequest, journey *model.UserJourney) provider.Request {
	in := prompt.Input{
		Journey:        journey,
		Industry:       req.Industry,
		CustomScenario: req.CustomScenario,
	}
	var p prompt.Prompt
	if req.RequestType == model.RequestGenerateReport {
		p = prompt.BuildReport(in)
	} else {
		p = prompt.BuildQuestions(in, s.questionCount)
	}
	return provider.Request{
		Type:          req.RequestType,
		System:        p.System,
		Prompt:        p.User,
		QuestionCount: s.questionCount,
	}
}

// resolveJourney falls back to the tracked journey when the request carries no responses
func (s *AssessmentService) resolveJourney(ctx context.Context, log *logger.Logger, j *model.UserJourney) *model.UserJourney {
	if j.Len() > 0 || s.journeys == nil {
		return j
	}
	stored, err := s.journeys.Lookup(ctx, j.SessionID)
	if err != nil {
		log.Warn("journey lookup failed", "error", err)
		return j
	}
	if stored == nil {
		return j
	}
	return stored
}

// publish drops events of anonymous calls
func (s *AssessmentService) publish(sessionID, msgType string, payload interface{}) {
	if sessionID == "" {
		return
	}
	s.broadcaster.Publish(sessionID, msgType, payload)
}

func (s *AssessmentService) saveRecord(ctx context.Context, log *logger.Logger, record *model.AssessmentRecord) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordSaveTimeout)
	defer cancel()
	if err := s.repo.Save(saveCtx, record); err != nil {
		log.Error("failed to save assessment record", "error", err)
	}
}
