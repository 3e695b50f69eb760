package handler

import (
	"net/http"
	"strconv"

	"pilotscope/internal/apperr"
	"pilotscope/internal/fallback"
	"pilotscope/internal/model"
	"pilotscope/internal/service"
	"pilotscope/internal/transport/rest/middleware"
	"pilotscope/internal/transport/rest/respond"
)

// HeaderProvider names the provider that produced a successful generation
const HeaderProvider = "X-AI-Provider"

// AssessmentHandler handles AI generation endpoints
type AssessmentHandler struct {
	assessmentSvc *service.AssessmentService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessmentSvc *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentSvc: assessmentSvc}
}

// Generate handles POST /api/ai-assessment and POST /v1/assessment
func (h *AssessmentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.AssessmentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respond.Error(w, r, err, nil)
		return
	}

	ctx := r.Context()
	result, err := h.assessmentSvc.Generate(ctx, respond.RequestID(ctx), middleware.GetSessionID(ctx), &req)
	if err != nil {
		var canned interface{}
		if generationFailed(err) {
			canned = fallback.For(req.RequestType, h.assessmentSvc.QuestionCount())
		}
		respond.Error(w, r, err, canned)
		return
	}

	w.Header().Set(HeaderProvider, result.Provider)
	respond.JSON(w, http.StatusOK, result.Body())
}

// Fallback handles GET /v1/assessment/fallback?requestType=...
func (h *AssessmentHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	requestType := model.RequestType(r.URL.Query().Get("requestType"))
	if requestType == "" {
		requestType = model.RequestGenerateQuestions
	}
	if !requestType.Valid() {
		respond.Error(w, r, apperr.Validation("requestType %q is not supported", string(requestType)), nil)
		return
	}
	respond.JSON(w, http.StatusOK, fallback.For(requestType, h.assessmentSvc.QuestionCount()))
}

// History handles GET /v1/sessions/{id}/assessments
func (h *AssessmentHandler) History(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(w, r, apperr.Validation("limit must be a positive integer"), nil)
			return
		}
		limit = n
	}

	records, err := h.assessmentSvc.History(r.Context(), id, limit)
	if err != nil {
		respond.Error(w, r, err, nil)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":   id,
		"assessments": records,
	})
}

// generationFailed is true for failures the client may cover with canned content
func generationFailed(err error) bool {
	return apperr.IsKind(err, apperr.KindUpstream) ||
		apperr.IsKind(err, apperr.KindSchema) ||
		apperr.IsKind(err, apperr.KindTimeout)
}
