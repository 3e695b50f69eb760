package rest

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"pilotscope/internal/cache"
	"pilotscope/internal/config"
	"pilotscope/internal/logger"
	"pilotscope/internal/service"
	"pilotscope/internal/transport/rest/handler"
	"pilotscope/internal/transport/rest/middleware"
	"pilotscope/internal/transport/ws"
)

const (
	allowedMethods = "GET, POST, OPTIONS"
	allowedHeaders = "Content-Type, Authorization, X-Signature, X-Timestamp, X-Nonce, X-Request-ID"
	exposedHeaders = "X-Request-ID, Retry-After, X-RateLimit-Remaining, X-AI-Provider"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	AssessmentService *service.AssessmentService
	JourneyService    *service.JourneyService
	RateLimiter       cache.RateLimiter
	WSHub             *ws.Hub
	CORS              config.CORSConfig
	MaxBodyBytes      int64
	TrustedProxies    []*net.IPNet
	Version           string
	Log               *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	assessmentHandler := handler.NewAssessmentHandler(c.AssessmentService)
	journeyHandler := handler.NewJourneyHandler(c.JourneyService)
	metaHandler := handler.NewMetaHandler(c.AssessmentService, c.CORS, c.Version)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.CORS.AllowedOrigins, c.Log)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService, c.MaxBodyBytes)
	rateMW := middleware.RateLimit(c.RateLimiter, middleware.NewClientKeys(c.TrustedProxies), c.Log)

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(c.Log))
	r.Use(middleware.LimitBody(c.MaxBodyBytes))
	r.Use(corsMiddleware(c.CORS))

	// Health check
	r.HandleFunc("/health", metaHandler.Health).Methods("GET")

	// Generation routes (rate limited, optionally signed, optionally tied to a session)
	generate := r.NewRoute().Subrouter()
	generate.Use(rateMW)
	generate.Use(authMW.OptionalSession)
	generate.Use(authMW.VerifySignature)
	generate.HandleFunc("/api/ai-assessment", assessmentHandler.Generate).Methods("POST", "OPTIONS")
	generate.HandleFunc("/v1/assessment", assessmentHandler.Generate).Methods("POST", "OPTIONS")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/assessment/fallback", assessmentHandler.Fallback).Methods("GET", "OPTIONS")
	v1.HandleFunc("/embed-config", metaHandler.Embed).Methods("GET", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Session creation is rate limited like generation
	start := v1.NewRoute().Subrouter()
	start.Use(rateMW)
	start.HandleFunc("/sessions", journeyHandler.Start).Methods("POST", "OPTIONS")

	// Session routes (require the session's own token)
	sessionRoutes := v1.NewRoute().Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("/sessions/{id}", journeyHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/responses", journeyHandler.Append).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/reset", journeyHandler.Reset).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/assessments", assessmentHandler.History).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(cfg config.CORSConfig) mux.MiddlewareFunc {
	allowed := map[string]bool{}
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	allowAny := len(allowed) == 0 || allowed["*"]
	frameAncestors := ""
	if cfg.AllowedParentOrigin != "" {
		frameAncestors = "frame-ancestors " + handler.FrameAncestors(cfg.AllowedParentOrigin)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAny:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Access-Control-Expose-Headers", exposedHeaders)
			if frameAncestors != "" {
				w.Header().Set("Content-Security-Policy", frameAncestors)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
