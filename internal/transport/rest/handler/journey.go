package handler

import (
	"net/http"

	"pilotscope/internal/model"
	"pilotscope/internal/service"
	"pilotscope/internal/transport/rest/middleware"
	"pilotscope/internal/transport/rest/respond"
)

// JourneyHandler handles the session journey endpoints
type JourneyHandler struct {
	journeySvc *service.JourneyService
}

// NewJourneyHandler creates a new journey handler
func NewJourneyHandler(journeySvc *service.JourneyService) *JourneyHandler {
	return &JourneyHandler{journeySvc: journeySvc}
}

// StartSessionRequest is the optional body of POST /v1/sessions
type StartSessionRequest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Start handles POST /v1/sessions
func (h *JourneyHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respond.Error(w, r, err, nil)
		return
	}

	resp, err := h.journeySvc.Start(r.Context(), req.Metadata)
	if err != nil {
		respond.Error(w, r, err, nil)
		return
	}
	respond.JSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{id}
func (h *JourneyHandler) Get(w http.ResponseWriter, r *http.Request) {
	journey, err := h.journeySvc.Get(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		respond.Error(w, r, err, nil)
		return
	}
	respond.JSON(w, http.StatusOK, journey)
}

// Append handles POST /v1/sessions/{id}/responses
func (h *JourneyHandler) Append(w http.ResponseWriter, r *http.Request) {
	var resp model.JourneyResponse
	if err := decodeJSON(r, &resp, false); err != nil {
		respond.Error(w, r, err, nil)
		return
	}

	journey, err := h.journeySvc.Append(r.Context(), middleware.GetSessionID(r.Context()), resp)
	if err != nil {
		respond.Error(w, r, err, nil)
		return
	}
	respond.JSON(w, http.StatusOK, journey)
}

// Reset handles POST /v1/sessions/{id}/reset
func (h *JourneyHandler) Reset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.journeySvc.Reset(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		respond.Error(w, r, err, nil)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}
