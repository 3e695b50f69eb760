package handler

import (
	"net/http"

	"pilotscope/internal/config"
	"pilotscope/internal/service"
	"pilotscope/internal/transport/rest/respond"
)

// MetaHandler serves health and embedding information
type MetaHandler struct {
	assessmentSvc *service.AssessmentService
	cors          config.CORSConfig
	version       string
}

// NewMetaHandler creates a new meta handler
func NewMetaHandler(assessmentSvc *service.AssessmentService, cors config.CORSConfig, version string) *MetaHandler {
	return &MetaHandler{
		assessmentSvc: assessmentSvc,
		cors:          cors,
		version:       version,
	}
}

// EmbedConfig is the body of GET /v1/embed-config
type EmbedConfig struct {
	AllowedParentOrigin string `json:"allowedParentOrigin"`
	FrameAncestors      string `json:"frameAncestors"`
}

// Health handles GET /health
func (h *MetaHandler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"version":       h.version,
		"providers":     h.assessmentSvc.Providers(),
		"questionCount": h.assessmentSvc.QuestionCount(),
	})
}

// Embed handles GET /v1/embed-config
func (h *MetaHandler) Embed(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, EmbedConfig{
		AllowedParentOrigin: h.cors.AllowedParentOrigin,
		FrameAncestors:      FrameAncestors(h.cors.AllowedParentOrigin),
	})
}

// FrameAncestors is the CSP frame-ancestors value for the allowed parent origin
func FrameAncestors(parentOrigin string) string {
	if parentOrigin == "" {
		return "'self'"
	}
	return "'self' " + parentOrigin
}
