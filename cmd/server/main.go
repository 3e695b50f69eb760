package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pilotscope/internal/cache"
	"pilotscope/internal/config"
	"pilotscope/internal/logger"
	"pilotscope/internal/observability"
	"pilotscope/internal/provider"
	"pilotscope/internal/repository"
	"pilotscope/internal/service"
	"pilotscope/internal/transport/rest"
	"pilotscope/internal/transport/ws"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server exited with error", "error", err)
	}
	log.Info("server exited")
}

// stores are the backing stores picked from the configuration
type stores struct {
	journeys cache.JourneyCache
	nonces   cache.NonceStore
	limiter  cache.RateLimiter
	repo     repository.AssessmentRepo
	closers  []func(context.Context) error
}

func (s *stores) close(ctx context.Context, log *logger.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			log.Warn("failed to close store", "error", err)
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Stores.RedisURI == "" {
		log.Warn("REDIS_URI not set, using in-memory journey, nonce and rate-limit stores")
		s.journeys = cache.NewMemoryJourneyCache(cfg.Stores.JourneyTTL)
		s.nonces = cache.NewMemoryNonceCache()
		s.limiter = cache.NewMemoryRateLimiter(cfg.Security.RateLimitPerMinute)
	} else {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		s.closers = append(s.closers, func(context.Context) error { return rdb.Close() })
		s.journeys = cache.NewJourneyCache(rdb, cfg.Stores.JourneyTTL)
		s.nonces = cache.NewNonceCache(rdb)
		s.limiter = cache.NewRedisRateLimiter(rdb, cfg.Security.RateLimitPerMinute)
		log.Info("connected to redis", "addr", cfg.RedisAddr())
	}

	if cfg.Stores.MongoURI == "" {
		log.Warn("MONGO_URI not set, assessment records are not persisted")
		s.repo = repository.NewNoopAssessmentRepo()
		return s, nil
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Stores.MongoURI))
	if err != nil {
		s.close(ctx, log)
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	s.closers = append(s.closers, mongoClient.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		s.close(ctx, log)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := mongoClient.Database(cfg.Stores.MongoDB)
	if err := repository.EnsureIndexes(pingCtx, db); err != nil {
		log.Warn("failed to ensure indexes", "error", err)
	}
	s.repo = repository.NewAssessmentRepo(db)
	log.Info("connected to mongodb", "database", cfg.Stores.MongoDB)
	return s, nil
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	shutdownTracing, err := observability.InitTracing(ctx, log, cfg.Tracing, version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}

	chain, err := provider.NewChain(ctx, cfg.AI, provider.NewHTTPClient())
	if err != nil {
		st.close(context.Background(), log)
		return fmt.Errorf("build provider chain: %w", err)
	}
	if len(chain) == 0 {
		log.Warn("no AI provider key configured, generation requests will fail with upstream_error")
	}
	log.Info("AI config",
		"providers", chain.Names(),
		"timeout_ms", cfg.AI.TimeoutMS,
		"question_count", cfg.AI.QuestionCount,
		"openai_model", cfg.AI.OpenAI.Model,
		"gemini_model", cfg.AI.Gemini.Model,
	)

	trustedProxies, err := cfg.Security.TrustedProxyNets()
	if err != nil {
		st.close(context.Background(), log)
		return err
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub(log)

	// Initialize services
	authSvc := service.NewAuthService(cfg.Security, st.nonces, log)
	journeySvc := service.NewJourneyService(st.journeys, authSvc)
	assessmentSvc := service.NewAssessmentService(cfg.AI, chain, journeySvc, st.repo, log)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	assessmentSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:       authSvc,
		AssessmentService: assessmentSvc,
		JourneyService:    journeySvc,
		RateLimiter:       st.limiter,
		WSHub:             wsHub,
		CORS:              cfg.CORS,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		TrustedProxies:    trustedProxies,
		Version:           version,
		Log:               log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	wsHub.Close()
	st.close(shutdownCtx, log)
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown failed", "error", err)
	}
	return serveErr
}
