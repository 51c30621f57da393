package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/renatodap/fitness-backend/internal/ai"
	"github.com/renatodap/fitness-backend/internal/auth"
	"github.com/renatodap/fitness-backend/internal/blob"
	"github.com/renatodap/fitness-backend/internal/coach"
	"github.com/renatodap/fitness-backend/internal/config"
	"github.com/renatodap/fitness-backend/internal/consultation"
	"github.com/renatodap/fitness-backend/internal/embeddings"
	"github.com/renatodap/fitness-backend/internal/enrichment"
	"github.com/renatodap/fitness-backend/internal/events"
	"github.com/renatodap/fitness-backend/internal/programs"
	"github.com/renatodap/fitness-backend/internal/quickentry"
	"github.com/renatodap/fitness-backend/internal/ratelimit"
	"github.com/renatodap/fitness-backend/internal/recommendations"
	"github.com/renatodap/fitness-backend/internal/storage"
	"github.com/renatodap/fitness-backend/internal/storage/memory"
	"github.com/renatodap/fitness-backend/internal/storage/postgres"
	"github.com/renatodap/fitness-backend/internal/worker"
)

// Server wires every core service behind the HTTP surface.
type Server struct {
	config  *config.Config
	mux     *http.ServeMux
	storage storage.Store
	queue   *worker.Queue

	router  *ai.Router
	limiter *ratelimit.Limiter
}

// Deps lets callers (and tests) inject pre-built collaborators. Zero
// fields fall back to config-driven construction.
type Deps struct {
	Storage        storage.Store
	Router         *ai.Router
	Queue          *worker.Queue
	BlobStore      blob.Store
	EmbeddingModel embeddings.Model
	Limiter        *ratelimit.Limiter
}

// New builds the server from config alone.
func New(cfg *config.Config, queue *worker.Queue) *Server {
	return NewWithDeps(cfg, Deps{Queue: queue})
}

// NewWithDeps builds the server with injected collaborators.
func NewWithDeps(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		queue:  deps.Queue,
	}

	s.storage = deps.Storage
	if s.storage == nil {
		s.storage = initStorage(cfg)
	}

	s.router = deps.Router
	if s.router == nil {
		s.router = ai.NewRouterFromConfig(cfg)
	}

	blobStore := deps.BlobStore
	if blobStore == nil {
		blobStore = blob.NewFromConfig(cfg)
	}

	embeddingModel := deps.EmbeddingModel
	if embeddingModel == nil {
		if cfg.AIMode == config.AIModeMock || cfg.EmbeddingBaseURL == "" {
			embeddingModel = embeddings.NewMockModel(384)
		} else {
			embeddingModel = embeddings.NewHTTPModel(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
		}
	}

	s.limiter = deps.Limiter
	if s.limiter == nil {
		s.limiter = ratelimit.New(ratelimit.NewMemoryKV())
	}

	embedService := embeddings.NewService(s.storage, embeddingModel, s.router)
	enricher := enrichment.NewService(s.storage, s.router)
	eventService := events.NewService(s.storage)
	programService := programs.NewService(s.storage, s.router)
	quickEntryService := quickentry.NewService(s.storage, s.router, embedService, enricher, blobStore, s.queue)
	consultationService := consultation.NewService(s.storage, s.router, embedService, programService)
	recommendationService := recommendations.NewService(s.storage, s.router, eventService, programService)
	coachService := coach.NewService(s.storage, s.router, embedService, s.queue)

	// A fresh log completes any matching pending recommendation.
	quickEntryService.OnEntryLogged(func(ctx context.Context, userID, logType string, data map[string]any) {
		recommendationService.HandleLoggedEntry(ctx, userID, logType, data)
	})

	s.routes(
		quickentry.NewHandler(quickEntryService),
		consultation.NewHandler(consultationService),
		recommendations.NewHandler(recommendationService),
		programs.NewHandler(programService),
		coach.NewHandler(coachService),
	)
	return s
}

func initStorage(cfg *config.Config) storage.Store {
	if cfg.DatabaseURL == "" {
		log.Println("storage: using in-memory store")
		return memory.New()
	}

	log.Println("storage: connecting to PostgreSQL...")
	pgStorage, err := postgres.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Printf("storage: PostgreSQL connection failed: %v", err)
		log.Println("storage: falling back to in-memory store")
		return memory.New()
	}
	log.Println("storage: PostgreSQL connected")
	return pgStorage
}

func (s *Server) routes(
	quickEntryHandler *quickentry.Handler,
	consultationHandler *consultation.Handler,
	recommendationHandler *recommendations.Handler,
	programHandler *programs.Handler,
	coachHandler *coach.Handler,
) {
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	limited := func(policy ratelimit.Policy, handler http.HandlerFunc) http.Handler {
		return s.limiter.Middleware(policy, handler)
	}

	// Quick entry
	s.mux.Handle("POST /v1/quick-entry/preview", limited(ratelimit.PolicyQuickEntry, quickEntryHandler.HandlePreview))
	s.mux.Handle("POST /v1/quick-entry/confirm", limited(ratelimit.PolicyQuickEntry, quickEntryHandler.HandleConfirm))
	s.mux.Handle("POST /v1/quick-entry", limited(ratelimit.PolicyQuickEntry, quickEntryHandler.HandleProcess))

	// Consultation
	s.mux.Handle("POST /v1/consultation/start", limited(ratelimit.PolicyAIAPI, consultationHandler.HandleStart))
	s.mux.Handle("POST /v1/consultation/{id}/message", limited(ratelimit.PolicyAIAPI, consultationHandler.HandleSend))
	s.mux.HandleFunc("GET /v1/consultation/{id}/summary", consultationHandler.HandleSummary)
	s.mux.Handle("POST /v1/consultation/{id}/complete", limited(ratelimit.PolicyProgramGeneration, consultationHandler.HandleComplete))
	s.mux.HandleFunc("GET /v1/consultation/status", consultationHandler.HandleStatus)
	s.mux.HandleFunc("GET /v1/consultation/active-session", consultationHandler.HandleActiveSession)

	// Recommendations
	s.mux.Handle("POST /v1/recommendations/generate", limited(ratelimit.PolicyAIAPI, recommendationHandler.HandleGenerate))
	s.mux.HandleFunc("GET /v1/recommendations/today", recommendationHandler.HandleToday)
	s.mux.HandleFunc("GET /v1/recommendations/next", recommendationHandler.HandleNext)
	s.mux.HandleFunc("POST /v1/recommendations/{id}/feedback", recommendationHandler.HandleFeedback)

	// Programs
	s.mux.HandleFunc("GET /v1/programs/active", programHandler.HandleActive)
	s.mux.HandleFunc("GET /v1/programs/day/{n}", programHandler.HandleDay)
	s.mux.HandleFunc("GET /v1/programs/calendar", programHandler.HandleCalendar)
	s.mux.HandleFunc("POST /v1/programs/meals/{id}/complete", programHandler.HandleCompleteMeal)
	s.mux.HandleFunc("POST /v1/programs/workouts/{id}/complete", programHandler.HandleCompleteWorkout)

	// Coach chat
	s.mux.Handle("POST /v1/coach/messages", limited(ratelimit.PolicyCoachChat, coachHandler.HandleSendMessage))
	s.mux.HandleFunc("GET /v1/coach/conversations/{id}/messages", coachHandler.HandleListMessages)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	authMiddleware := auth.NewMiddleware(s.config)

	var handler http.Handler = s.mux
	handler = authMiddleware.RequireAuth(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(s.config.ProgramGenTimeoutSeconds+10) * time.Second,
	}

	log.Printf("listening on :%d", s.config.Port)
	return server.ListenAndServe()
}

// Storage exposes the store for the worker bootstrap.
func (s *Server) Storage() storage.Store { return s.storage }
